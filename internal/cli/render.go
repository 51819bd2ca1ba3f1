package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/pipeline"
)

// formatDOT writes the graphviz source instead of a rendered image.
const formatDOT = "dot"

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (several)
	formats  []string // svg, png, dot
	detailed bool     // add JSON paths and scalar values to node labels
	yaml     bool
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		opts       renderOpts
		lf         layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a JSON document as an SVG, PNG or DOT diagram",
		Long: `Render a JSON document as a node-link diagram with graphviz.

Several formats can be written at once (-f svg,png,dot); the outputs then
share the base path of -o, or of the input file. Rendered diagrams are
cached by their DOT source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			cfg, err := c.settings(cmd, &lf)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cfg, opts.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			input := firstArg(args)
			popts := cfg.PipelineOptions()
			popts.YAML = opts.yaml || isYAML(input)
			popts.Detailed = opts.detailed
			popts.Refresh = opts.refresh
			return c.runRender(cmd, runner, input, popts, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (several)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show JSON paths and values in node labels")
	cmd.Flags().BoolVar(&opts.yaml, "yaml", false, "treat the input as YAML")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when cached")
	lf.register(cmd.Flags())

	return cmd
}

// parseFormats splits the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// validateFormats checks every requested format.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if f == formatDOT {
			continue
		}
		if err := pipeline.ValidateFormat(f); err != nil {
			return errs.New(errs.ErrCodeInvalidInput, "invalid format: %s (must be svg, png or dot)", f)
		}
	}
	return nil
}

// basePath derives the base output path. An empty output uses the input's
// name (or "diagram" for stdin); a known format extension on output is
// stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			return "diagram"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if ext == formatDOT || pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

// outputPath returns where one format is written.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

func (c *CLI) runRender(cmd *cobra.Command, runner *pipeline.Runner, input string, opts pipeline.Options, ropts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	data, err := readInput(cmd, input)
	if err != nil {
		return fmt.Errorf("read %s: %w", displayName(input), err)
	}
	logger.Debug("rendering", "input", displayName(input), "formats", ropts.formats)

	single := len(ropts.formats) == 1
	for _, format := range ropts.formats {
		spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()

		var (
			out    []byte
			cached bool
		)
		if format == formatDOT {
			var dot string
			dot, err = runner.DOT(ctx, data, opts)
			out = []byte(dot)
		} else {
			o := opts
			o.Format = format
			out, cached, err = runner.RenderWithCacheInfo(ctx, data, o)
		}
		spinner.Stop()
		if err != nil {
			printError("Render %s failed", format)
			return err
		}

		path := outputPath(ropts.output, input, format, single)
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printSuccess("Rendered %s", format)
		printFile(path)
		if format != formatDOT {
			printDetail("%d bytes · %s", len(out), cacheStatus(cached))
		}
	}
	return nil
}
