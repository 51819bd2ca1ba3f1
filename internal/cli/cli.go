package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/jsonflow/internal/config"
	"github.com/matzehuels/jsonflow/pkg/cache"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "jsonflow"

	// defaultStoreRetries is how often serve and watch try to reach a
	// network store before giving up.
	defaultStoreRetries = 3
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Settings
// =============================================================================

// settings loads the config file, applies the flags the user changed and
// validates the result.
func (c *CLI) settings(cmd *cobra.Command, overrides ...flagSet) (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o.apply(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagSet is a group of flags that override config values.
type flagSet interface {
	apply(cmd *cobra.Command, cfg *config.Config)
}

// layoutFlags override the [layout] section.
type layoutFlags struct {
	direction string
	engine    string
	tieBreak  string
	seed      uint64
}

func (f *layoutFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.direction, "direction", "d", "", "layout direction: LR, RL (default), TB, BT")
	fs.StringVarP(&f.engine, "engine", "e", "", "layout engine: layered (default), graphviz")
	fs.StringVar(&f.tieBreak, "tie-break", "", "tie-break for equal coordinates: ordered (default), jitter")
	fs.Uint64Var(&f.seed, "seed", 0, "seed for the jitter tie-break")
}

func (f *layoutFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("direction") {
		cfg.Layout.Direction = f.direction
	}
	if cmd.Flags().Changed("engine") {
		cfg.Layout.Engine = f.engine
	}
	if cmd.Flags().Changed("tie-break") {
		cfg.Layout.TieBreak = f.tieBreak
	}
	if cmd.Flags().Changed("seed") {
		cfg.Layout.Seed = f.seed
	}
}

// storeFlags override the [store] section.
type storeFlags struct {
	backend   string
	key       string
	dir       string
	redisAddr string
	mongoURI  string
}

func (f *storeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.backend, "store", "", "document store: file (default), memory, redis, mongo")
	fs.StringVarP(&f.key, "key", "k", "", "key of the document in the store (default \"json\")")
	fs.StringVar(&f.dir, "store-dir", "", "directory of the file store")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "redis address (host:port)")
	fs.StringVar(&f.mongoURI, "mongo-uri", "", "mongodb connection URI")
}

func (f *storeFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = f.backend
	}
	if cmd.Flags().Changed("key") {
		cfg.Store.Key = f.key
	}
	if cmd.Flags().Changed("store-dir") {
		cfg.Store.Dir = f.dir
	}
	if cmd.Flags().Changed("redis-addr") {
		cfg.Store.RedisAddr = f.redisAddr
	}
	if cmd.Flags().Changed("mongo-uri") {
		cfg.Store.MongoURI = f.mongoURI
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func newCache(cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to
// $XDG_CACHE_HOME/jsonflow and then the OS cache directory.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Input Helpers
// =============================================================================

// readInput reads a document from path, or from stdin when path is "" or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// isYAML reports whether path looks like a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ignoreCanceled maps context cancellation to a clean exit for long-running
// commands that stop on Ctrl-C.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
