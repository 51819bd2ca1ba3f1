// Package pipeline runs the one-shot parse → layout → render flow for a
// single document, shared by the CLI and the HTTP surface.
//
// # Stages
//
//  1. Parse: JSON (or YAML converted to JSON) into a document graph
//  2. Layout: position every node with the configured engine and tie-break
//  3. Render: graphviz SVG or PNG of the graph in the chosen direction
//
// Layout and render results are cached by content hash through
// [cache.Cache]; an unchanged document skips both.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	els, err := runner.Layout(ctx, data, pipeline.Options{Direction: "RL"})
//
//	svg, err := runner.Render(ctx, data, pipeline.Options{Format: pipeline.FormatSVG})
package pipeline

import (
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/document"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/layout"
)

// Render formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported render formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// Options configures one pipeline run. Zero values take the defaults
// applied by [Options.ValidateAndSetDefaults].
type Options struct {
	// Parse options
	YAML     bool `json:"yaml,omitempty"`
	MaxDepth int  `json:"max_depth,omitempty"`
	MaxNodes int  `json:"max_nodes,omitempty"`

	// Layout options
	Direction string `json:"direction,omitempty"`
	Engine    string `json:"engine,omitempty"`
	TieBreak  string `json:"tie_break,omitempty"`
	Seed      uint64 `json:"seed,omitempty"`

	// Render options
	Format   string `json:"format,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	validated bool
}

// ValidateAndSetDefaults normalizes names and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Direction == "" {
		o.Direction = layout.DefaultDirection.String()
	}
	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	o.Direction = dir.String()

	if o.Engine == "" {
		o.Engine = layout.EngineLayered
	}
	eng, err := layout.NewEngine(o.Engine)
	if err != nil {
		return err
	}
	o.Engine = eng.Name()

	tb, err := layout.NewTieBreaker(o.TieBreak, o.Seed)
	if err != nil {
		return err
	}
	o.TieBreak = tb.Name()

	if o.Format == "" {
		o.Format = FormatSVG
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if o.MaxDepth < 0 || o.MaxNodes < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "limits must not be negative")
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = document.DefaultMaxDepth
	}
	if o.MaxNodes == 0 {
		o.MaxNodes = document.DefaultMaxNodes
	}
	o.validated = true
	return nil
}

// ValidateFormat checks that a render format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be svg or png)", format)
	}
	return nil
}

// LayoutDirection returns the validated direction, or the default when
// Direction is empty.
func (o Options) LayoutDirection() layout.Direction {
	if o.Direction == "" {
		return layout.DefaultDirection
	}
	return layout.Direction(o.Direction)
}

// ParseOptions returns the document size limits.
func (o Options) ParseOptions() document.Options {
	return document.Options{MaxDepth: o.MaxDepth, MaxNodes: o.MaxNodes}
}

// Orchestrator builds a layout orchestrator for the configured engine and
// tie-break.
func (o Options) Orchestrator() (*layout.Orchestrator, error) {
	if err := o.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	eng, err := layout.NewEngine(o.Engine)
	if err != nil {
		return nil, err
	}
	tb, err := layout.NewTieBreaker(o.TieBreak, o.Seed)
	if err != nil {
		return nil, err
	}
	return layout.New(layout.WithEngine(eng), layout.WithTieBreaker(tb)), nil
}

// String summarizes the layout settings for logs.
func (o Options) String() string {
	return fmt.Sprintf("%s/%s/%s", o.Direction, o.Engine, o.TieBreak)
}
