package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Layout.Direction != "RL" || cfg.Store.Key != "json" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layout]
direction = "tb"
engine = "Graphviz"
tie_break = "jitter"
seed = 7

[parse]
max_nodes = 200

[store]
backend = "memory"
key = "doc.main"

[server]
addr = ":9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.Direction != "TB" || cfg.Layout.Engine != "graphviz" || cfg.Layout.TieBreak != "jitter" || cfg.Layout.Seed != 7 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if cfg.Parse.MaxNodes != 200 || cfg.Store.Backend != "memory" || cfg.Store.Key != "doc.main" || cfg.Server.Addr != ":9000" {
		t.Errorf("config = %+v", cfg)
	}
	// untouched sections keep their defaults
	if cfg.Store.RedisAddr != "localhost:6379" {
		t.Errorf("redis_addr = %q", cfg.Store.RedisAddr)
	}

	opts := cfg.PipelineOptions()
	if opts.Direction != "TB" || opts.Engine != "graphviz" || opts.Seed != 7 || opts.MaxNodes != 200 {
		t.Errorf("pipeline options = %+v", opts)
	}
	if so := cfg.StoreOptions(); so.Backend != "memory" {
		t.Errorf("store options = %+v", so)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[layout]\ncolour = \"red\"\n", "layout.colour"},
		{"bad toml", "[layout\n", "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"direction", func(c *Config) { c.Layout.Direction = "up" }, "Direction"},
		{"engine", func(c *Config) { c.Layout.Engine = "neato" }, "Engine"},
		{"tie break", func(c *Config) { c.Layout.TieBreak = "coin" }, "TieBreak"},
		{"backend", func(c *Config) { c.Store.Backend = "etcd" }, "Backend"},
		{"key", func(c *Config) { c.Store.Key = "../x" }, "Key"},
		{"empty key", func(c *Config) { c.Store.Key = "" }, "Key"},
		{"redis needs addr", func(c *Config) { c.Store.Backend = "redis"; c.Store.RedisAddr = "" }, "RedisAddr"},
		{"mongo needs uri", func(c *Config) { c.Store.Backend = "mongo" }, "MongoURI"},
		{"addr", func(c *Config) { c.Server.Addr = "localhost" }, "Addr"},
		{"max nodes", func(c *Config) { c.Parse.MaxNodes = -1 }, "MaxNodes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Fatalf("err = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("err = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestValidateAcceptsAliases(t *testing.T) {
	cfg := Default()
	cfg.Layout.Direction = " lr "
	cfg.Layout.Engine = "dot"
	cfg.Store.Backend = "Redis"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Layout.Direction != "LR" || cfg.Layout.Engine != "graphviz" || cfg.Store.Backend != "redis" {
		t.Errorf("normalized = %+v", cfg.Layout)
	}
}
