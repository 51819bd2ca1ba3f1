package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonflow/internal/config"
	"github.com/matzehuels/jsonflow/pkg/document"
	"github.com/matzehuels/jsonflow/pkg/store"
)

// docCommand creates the doc command for reading and writing the stored
// document that serve and watch follow.
func (c *CLI) docCommand() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Read or replace the stored document",
	}
	sf.register(cmd.PersistentFlags())

	cmd.AddCommand(c.docGetCommand(&sf))
	cmd.AddCommand(c.docSetCommand(&sf))
	return cmd
}

func (c *CLI) docGetCommand(sf *storeFlags) *cobra.Command {
	var fallback bool
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd, sf)
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			text, err := st.Get(cmd.Context(), cfg.Store.Key)
			if errors.Is(err, store.ErrNotFound) && fallback {
				text, err = document.DefaultDocument, nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fallback, "default", false, "print the built-in sample when nothing is stored")
	return cmd
}

func (c *CLI) docSetCommand(sf *storeFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "set [file]",
		Short: "Replace the stored document with a file or stdin",
		Long: `Replace the stored document with the contents of a file, or stdin.

Running 'serve' and 'watch' sessions pick up the change immediately. Text
that is not valid JSON is rejected unless --force is given; a forced
malformed document blanks the diagram until it is fixed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd, sf)
			if err != nil {
				return err
			}
			input := firstArg(args)
			data, err := readInput(cmd, input)
			if err != nil {
				return fmt.Errorf("read %s: %w", displayName(input), err)
			}
			if isYAML(input) {
				if data, err = document.FromYAML(data); err != nil {
					return err
				}
			}
			valid := document.Valid(data)
			if !force && !valid {
				return fmt.Errorf("%s is not valid JSON (use --force to store it anyway)", displayName(input))
			}

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Set(cmd.Context(), cfg.Store.Key, string(data)); err != nil {
				return err
			}
			printSuccess("Stored %s under %q", displayName(input), cfg.Store.Key)
			printDetail("%s store · %d bytes", cfg.Store.Backend, len(data))
			if !valid {
				printWarning("Stored text is not valid JSON; surfaces will show no diagram")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "store the text even if it is not valid JSON")
	return cmd
}

// openStore opens the configured store, retrying network backends.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.OpenWithRetry(ctx, cfg.StoreOptions(), defaultStoreRetries)
}
