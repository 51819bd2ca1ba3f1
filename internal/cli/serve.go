package cli

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jsonflow/internal/config"
	"github.com/matzehuels/jsonflow/internal/server"
	"github.com/matzehuels/jsonflow/pkg/controller"
	"github.com/matzehuels/jsonflow/pkg/layout"
	"github.com/matzehuels/jsonflow/pkg/observability"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// serverFlags override the [server] section.
type serverFlags struct {
	addr string
}

func (f *serverFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default 127.0.0.1:8080)")
}

func (f *serverFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = f.addr
	}
}

// serveCommand creates the serve command, the browser surface.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		lf        layoutFlags
		sf        storeFlags
		srvf      serverFlags
		noMetrics bool
		retries   int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live diagram of the stored document to the browser",
		Long: `Serve a live diagram of the stored document.

The page at / draws the current diagram and redraws it whenever the stored
document changes, whether through the page's editor, 'jsonflow doc set', or
another writer of the same store. The "Style" button re-runs the layout.

Also serves a JSON API under /api, a health check at /healthz and
Prometheus metrics at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd, &lf, &sf, &srvf)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, !noMetrics, retries)
		},
	}

	lf.register(cmd.Flags())
	sf.register(cmd.Flags())
	srvf.register(cmd.Flags())
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	cmd.Flags().IntVar(&retries, "store-retries", defaultStoreRetries, "attempts to reach a network store")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, metrics bool, retries int) error {
	logger := loggerFromContext(ctx)

	var prom *observability.Prometheus
	if metrics {
		prom = observability.NewPrometheus()
		prom.Register()
	}

	st, err := store.OpenWithRetry(ctx, cfg.StoreOptions(), retries)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := server.NewHub(logger)
	ctrl, err := newController(cfg, hub, logger)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	scfg := server.Config{
		Addr:       cfg.Server.Addr,
		Key:        cfg.Store.Key,
		Controller: ctrl,
		Hub:        hub,
		Store:      st,
		Runner:     runner,
		Options:    cfg.PipelineOptions(),
		Logger:     logger,
	}
	if prom != nil {
		scfg.Metrics = prom.Handler()
	}
	srv, err := server.New(scfg)
	if err != nil {
		return err
	}

	printSuccess("Serving %s", StyleLink.Render("http://"+cfg.Server.Addr))
	printDetail("%s store · key %q · %s", cfg.Store.Backend, cfg.Store.Key, cfg.Layout.Direction)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(ctrl.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(controller.Follow(gctx, st, cfg.Store.Key, ctrl)) })
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// newController builds a controller laying out with the configured engine.
func newController(cfg *config.Config, s controller.Surface, logger *log.Logger) (*controller.Controller, error) {
	opts := cfg.PipelineOptions()
	orch, err := opts.Orchestrator()
	if err != nil {
		return nil, err
	}
	dir, err := layout.ParseDirection(cfg.Layout.Direction)
	if err != nil {
		return nil, err
	}
	return controller.New(orch, s,
		controller.WithDirection(dir),
		controller.WithParseOptions(opts.ParseOptions()),
		controller.WithLogger(logger),
	), nil
}

