// Package config loads jsonflow settings from a TOML file.
//
// Precedence, lowest first: built-in defaults, the config file, command-line
// flags. Flags are applied by the CLI after [Load]; [Config.Validate] runs
// last so every source is checked the same way.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/layout"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// Config is the full set of settings.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Parse  ParseConfig  `toml:"parse"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
}

// LayoutConfig selects how diagrams are positioned.
type LayoutConfig struct {
	Direction string `toml:"direction" validate:"required,oneof=LR RL TB BT"`
	Engine    string `toml:"engine" validate:"required,oneof=layered graphviz"`
	TieBreak  string `toml:"tie_break" validate:"required,oneof=ordered jitter"`
	Seed      uint64 `toml:"seed"`
}

// ParseConfig bounds document size. Zero means the parser default.
type ParseConfig struct {
	MaxDepth int `toml:"max_depth" validate:"gte=0,lte=1024"`
	MaxNodes int `toml:"max_nodes" validate:"gte=0,lte=100000"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend         string `toml:"backend" validate:"required,oneof=memory file redis mongo"`
	Key             string `toml:"key" validate:"required,storagekey"`
	Dir             string `toml:"dir"`
	RedisAddr       string `toml:"redis_addr" validate:"required_if=Backend redis,omitempty,hostname_port"`
	MongoURI        string `toml:"mongo_uri" validate:"required_if=Backend mongo,omitempty,uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures the browser surface.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,listenaddr"`
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Direction: layout.DefaultDirection.String(),
			Engine:    layout.EngineLayered,
			TieBreak:  layout.TieBreakOrdered,
		},
		Store: StoreConfig{
			Backend:   store.BackendFile,
			Key:       store.DefaultKey,
			RedisAddr: "localhost:6379",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/jsonflow/config.toml (or the OS
// equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "jsonflow", "config.toml"), nil
}

// Load returns the defaults overlaid with the file at path. An empty path
// reads [DefaultPath] if that file exists. Unknown keys are an error.
// The result is not validated yet.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Normalize canonicalizes case so "rl" and "Graphviz" are accepted.
func (c *Config) Normalize() {
	c.Layout.Direction = strings.ToUpper(strings.TrimSpace(c.Layout.Direction))
	c.Layout.Engine = strings.ToLower(strings.TrimSpace(c.Layout.Engine))
	if c.Layout.Engine == "dot" {
		c.Layout.Engine = layout.EngineGraphviz
	}
	c.Layout.TieBreak = strings.ToLower(strings.TrimSpace(c.Layout.TieBreak))
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
}

// Validate normalizes and checks every field.
func (c *Config) Validate() error {
	c.Normalize()
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// StoreOptions converts the store section for [store.Open].
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Backend:         c.Store.Backend,
		Dir:             c.Store.Dir,
		RedisAddr:       c.Store.RedisAddr,
		MongoURI:        c.Store.MongoURI,
		MongoDatabase:   c.Store.MongoDatabase,
		MongoCollection: c.Store.MongoCollection,
	}
}

// PipelineOptions converts the layout and parse sections.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Direction: c.Layout.Direction,
		Engine:    c.Layout.Engine,
		TieBreak:  c.Layout.TieBreak,
		Seed:      c.Layout.Seed,
		MaxDepth:  c.Parse.MaxDepth,
		MaxNodes:  c.Parse.MaxNodes,
	}
}
