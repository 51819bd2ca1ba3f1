package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/jsonflow/pkg/graph"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes the positioned
// node/edge set of a document.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		yaml    bool
		noCache bool
		refresh bool
		lf      layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute node positions for a JSON document",
		Long: `Compute node positions for a JSON document.

The result is the same node and edge set 'parse' prints, with a position and
connector sides on every node. Horizontal directions (LR, RL) connect edges
on the left and right of each box, vertical ones (TB, BT) on top and bottom.

Results are cached by document content and layout settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.settings(cmd, &lf)
			if err != nil {
				return err
			}
			input := firstArg(args)
			opts := cfg.PipelineOptions()
			opts.YAML = yaml || isYAML(input)
			opts.Refresh = refresh

			runner, err := c.newRunner(cfg, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			return c.runLayout(cmd, runner, input, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, stdout for stdin)")
	cmd.Flags().BoolVar(&yaml, "yaml", false, "treat the input as YAML")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")
	lf.register(cmd.Flags())

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, runner *pipeline.Runner, input string, opts pipeline.Options, output string) error {
	ctx := cmd.Context()
	data, err := readInput(cmd, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", displayName(input), err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Direction))
	spinner.Start()
	prog := newProgress(loggerFromContext(ctx), "layout")
	els, cached, err := runner.LayoutWithCacheInfo(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	prog.done("settings", opts.String(), "nodes", len(els.Nodes), "cached", cached)

	outputPath := layoutOutput(input, output)
	if outputPath == "-" {
		return graph.WriteElements(els, cmd.OutOrStdout())
	}
	if err := graph.WriteElementsFile(els, outputPath); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(els.Nodes), len(els.Edges), cached)
	printNextStep("Render", appName+" render "+inputArg(input))
	return nil
}

// layoutOutput picks the output path; "-" means stdout.
func layoutOutput(input, output string) string {
	if output != "" {
		return output
	}
	if input == "" || input == "-" {
		return "-"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}

func inputArg(input string) string {
	if input == "" {
		return "-"
	}
	return input
}
