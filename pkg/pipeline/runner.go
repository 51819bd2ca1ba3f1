package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsonflow/pkg/cache"
	"github.com/matzehuels/jsonflow/pkg/dag"
	"github.com/matzehuels/jsonflow/pkg/document"
	"github.com/matzehuels/jsonflow/pkg/graph"
	"github.com/matzehuels/jsonflow/pkg/render/nodelink"
)

// Runner executes pipeline stages with caching.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can share one with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses [cache.DefaultKeyer] and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Normalize returns the JSON text for data, converting from YAML when
// opts.YAML is set.
func (r *Runner) Normalize(data []byte, opts Options) ([]byte, error) {
	if !opts.YAML {
		return data, nil
	}
	return document.FromYAML(data)
}

// Parse builds the document graph for data.
func (r *Runner) Parse(ctx context.Context, data []byte, opts Options) (*dag.DAG, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.Normalize(data, opts)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	g, err := document.ParseWithOptions(data, opts.ParseOptions())
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("parsed document",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", time.Since(start))
	return g, nil
}

// LayoutWithCacheInfo lays out data and reports whether the result came
// from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, data []byte, opts Options) (graph.Elements, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Elements{}, false, err
	}
	jsonData, err := r.Normalize(data, opts)
	if err != nil {
		return graph.Elements{}, false, err
	}

	cacheKey := r.Keyer.LayoutKey(cache.Hash(jsonData), cache.LayoutKeyOpts{
		Direction: opts.Direction,
		Engine:    opts.Engine,
		TieBreak:  opts.TieBreak,
		Seed:      opts.Seed,
		MaxDepth:  opts.MaxDepth,
		MaxNodes:  opts.MaxNodes,
	})
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if els, err := graph.ReadElements(bytes.NewReader(cached)); err == nil {
				return els, true, nil
			}
			// undecodable entry: recompute
		}
	}

	g, err := r.Parse(ctx, jsonData, Options{MaxDepth: opts.MaxDepth, MaxNodes: opts.MaxNodes})
	if err != nil {
		return graph.Elements{}, false, err
	}
	orch, err := opts.Orchestrator()
	if err != nil {
		return graph.Elements{}, false, err
	}

	start := time.Now()
	els, err := orch.Layout(ctx, opts.LayoutDirection(), g)
	if err != nil {
		return graph.Elements{}, false, fmt.Errorf("layout: %w", err)
	}
	r.Logger.Info("computed layout",
		"nodes", len(els.Nodes),
		"settings", opts.String(),
		"duration", time.Since(start))

	if encoded, err := graph.MarshalElements(els); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, encoded, cache.TTLLayout)
	}
	return els, false, nil
}

// Layout is LayoutWithCacheInfo without the cache hit flag.
func (r *Runner) Layout(ctx context.Context, data []byte, opts Options) (graph.Elements, error) {
	els, _, err := r.LayoutWithCacheInfo(ctx, data, opts)
	return els, err
}

// DOT returns the graphviz source for data.
func (r *Runner) DOT(ctx context.Context, data []byte, opts Options) (string, error) {
	g, err := r.Parse(ctx, data, opts)
	if err != nil {
		return "", err
	}
	return nodelink.ToDOT(g, nodelink.Options{
		RankDir:  opts.Direction,
		Detailed: opts.Detailed,
	}), nil
}

// RenderWithCacheInfo renders data in opts.Format and reports whether the
// artifact came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, data []byte, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	dot, err := r.DOT(ctx, data, opts)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ArtifactKey(cache.Hash([]byte(dot)), opts.Format)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	var out []byte
	switch opts.Format {
	case FormatPNG:
		out, err = nodelink.RenderPNG(ctx, dot)
	default:
		out, err = nodelink.RenderSVG(ctx, dot)
	}
	if err != nil {
		return nil, false, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	r.Logger.Info("rendered diagram",
		"format", opts.Format,
		"bytes", len(out),
		"duration", time.Since(start))

	_ = r.Cache.Set(ctx, cacheKey, out, cache.TTLArtifact)
	return out, false, nil
}

// Render is RenderWithCacheInfo without the cache hit flag.
func (r *Runner) Render(ctx context.Context, data []byte, opts Options) ([]byte, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, data, opts)
	return out, err
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
