package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/jsonflow/internal/config"
	"github.com/matzehuels/jsonflow/pkg/controller"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// watchCommand creates the watch command, the terminal surface.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		lf      layoutFlags
		sf      storeFlags
		retries int
	)

	cmd := &cobra.Command{
		Use:   "watch [file.json]",
		Short: "Follow a document in the terminal",
		Long: `Follow a document in the terminal and show its laid-out nodes.

With a file argument the file itself is followed: every save redraws the
table. Without one, the configured store is followed, like 'serve' does.

Keys: s re-runs the layout, f jumps back to the top, q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd, &lf, &sf)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				dir, key, err := fileStoreTarget(args[0])
				if err != nil {
					return err
				}
				cfg.Store.Backend, cfg.Store.Dir, cfg.Store.Key = store.BackendFile, dir, key
			}
			return c.runWatch(cmd.Context(), cfg, retries)
		},
	}

	lf.register(cmd.Flags())
	sf.register(cmd.Flags())
	cmd.Flags().IntVar(&retries, "store-retries", defaultStoreRetries, "attempts to reach a network store")

	return cmd
}

// fileStoreTarget splits path/to/doc.json into the file store directory and
// key.
func fileStoreTarget(path string) (dir, key string, err error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return "", "", errs.New(errs.ErrCodeInvalidInput, "watch expects a .json file, got %s", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if err := errs.ValidateStorageKey(key); err != nil {
		return "", "", err
	}
	return filepath.Dir(abs), key, nil
}

func (c *CLI) runWatch(ctx context.Context, cfg *config.Config, retries int) error {
	st, err := store.OpenWithRetry(ctx, cfg.StoreOptions(), retries)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var ctrl *controller.Controller
	post := func(ev controller.Event) tea.Cmd { return poster(gctx, ctrl)(ev) }
	model := NewWatchModel(cfg.Store.Backend+":"+cfg.Store.Key, post)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	ctrl, err = newController(cfg, teaSurface{send: p.Send}, quietLogger())
	if err != nil {
		return err
	}

	g.Go(func() error { return ignoreCanceled(ctrl.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(controller.Follow(gctx, st, cfg.Store.Key, ctrl)) })
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
