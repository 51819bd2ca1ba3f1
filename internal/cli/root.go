// Package cli implements the jsonflow command-line interface.
//
// The one-shot commands run a document through the pipeline:
//   - parse: JSON or YAML to an unpositioned node/edge set
//   - layout: positioned node/edge set (cached)
//   - render: SVG, PNG or DOT diagrams (cached)
//
// The long-running commands follow a stored document and keep a render
// surface in sync with it:
//   - serve: browser surface over HTTP and websockets
//   - watch: terminal surface
//
// Supporting commands are doc (read and write the stored document), cache
// and completion.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so helpers can log without extra plumbing.
//
// # Configuration
//
// Settings come from $XDG_CONFIG_HOME/jsonflow/config.toml (or --config);
// command-line flags override the file.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonflow/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "jsonflow draws JSON documents as node-link diagrams",
		Long:          `jsonflow turns a JSON document into a node-link diagram: one node per object, array and value, one edge per containment. Diagrams can be rendered once, served to a browser or followed in the terminal while the document changes.`,
		Version:       buildinfo.Resolved(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/jsonflow/config.toml)")

	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.docCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
