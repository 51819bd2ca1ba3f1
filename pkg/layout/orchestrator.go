package layout

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/matzehuels/jsonflow/pkg/dag"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/graph"
	"github.com/matzehuels/jsonflow/pkg/observability"
)

// Fixed node box size handed to the engines, in pixels.
const (
	NodeWidth  = 175
	NodeHeight = 50
)

// Orchestrator positions every node of a document graph. It owns one
// [Workspace], guarded by a mutex, so only one layout runs at a time per
// orchestrator.
type Orchestrator struct {
	mu         sync.Mutex
	ws         *Workspace
	engine     Engine
	tieBreak   TieBreaker
	nodeWidth  float64
	nodeHeight float64
	hooks      observability.LayoutHooks
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithEngine sets the placement engine. The default is the layered engine.
func WithEngine(e Engine) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithTieBreaker sets the x tie-break policy. The default is [OrderedTieBreak].
func WithTieBreaker(t TieBreaker) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tieBreak = t
		}
	}
}

// WithNodeSize overrides the node box size.
func WithNodeSize(width, height float64) Option {
	return func(o *Orchestrator) {
		if width > 0 && height > 0 {
			o.nodeWidth, o.nodeHeight = width, height
		}
	}
}

// WithHooks sets layout hooks. The default is the globally registered set.
func WithHooks(h observability.LayoutHooks) Option {
	return func(o *Orchestrator) {
		if h != nil {
			o.hooks = h
		}
	}
}

// New creates an orchestrator with its own workspace.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		ws:         NewWorkspace(),
		engine:     NewLayeredEngine(),
		tieBreak:   OrderedTieBreak{},
		nodeWidth:  NodeWidth,
		nodeHeight: NodeHeight,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Engine returns the configured engine.
func (o *Orchestrator) Engine() Engine { return o.engine }

// Layout positions every node of g for the given direction and returns the
// positioned elements. The node and edge sets match [graph.FromDAG] for g;
// only positions and connector sides are added. Every call replaces all
// positions.
func (o *Orchestrator) Layout(ctx context.Context, dir Direction, g *dag.DAG) (graph.Elements, error) {
	if !dir.Valid() {
		return graph.Elements{}, errs.New(errs.ErrCodeInvalidDirection, "unknown direction %q", dir)
	}
	if err := ctx.Err(); err != nil {
		return graph.Elements{}, err
	}

	hooks := o.hooks
	if hooks == nil {
		hooks = observability.Layout()
	}
	hooks.OnLayoutStart(ctx, o.engine.Name(), dir.String(), g.NodeCount())
	start := time.Now()

	els, err := o.layout(ctx, dir, g)

	hooks.OnLayoutComplete(ctx, o.engine.Name(), dir.String(), time.Since(start), err)
	return els, err
}

func (o *Orchestrator) layout(ctx context.Context, dir Direction, g *dag.DAG) (graph.Elements, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ws := o.ws
	ws.Reset()
	ws.SetDirection(dir)
	for _, n := range g.Nodes() {
		ws.SetNode(n.ID, o.nodeWidth, o.nodeHeight)
	}
	for _, e := range g.Edges() {
		if err := ws.SetEdge(e.From, e.To); err != nil {
			return graph.Elements{}, errs.Wrap(errs.ErrCodeLayout, err, "register edge")
		}
	}

	if err := o.engine.Place(ctx, ws); err != nil {
		if ctx.Err() != nil {
			return graph.Elements{}, ctx.Err()
		}
		return graph.Elements{}, errs.Wrap(errs.ErrCodeLayout, err, "%s engine", o.engine.Name())
	}

	els := graph.FromDAG(g)
	ids := els.NodeIDs()
	xs := make([]float64, len(ids))
	for i, id := range ids {
		n, ok := ws.Node(id)
		if !ok || !n.Placed {
			return graph.Elements{}, errs.New(errs.ErrCodeLayout, "%s engine left node %s unplaced", o.engine.Name(), id)
		}
		if !finite(n.X) || !finite(n.Y) {
			return graph.Elements{}, errs.New(errs.ErrCodeLayout, "%s engine placed node %s at (%v, %v)", o.engine.Name(), id, n.X, n.Y)
		}
		xs[i] = n.X
	}

	nudges := o.tieBreak.Nudges(ids, xs)
	if len(nudges) != len(ids) {
		return graph.Elements{}, errs.New(errs.ErrCodeInternal, "tie-break %s returned %d offsets for %d nodes", o.tieBreak.Name(), len(nudges), len(ids))
	}

	source, target := dir.Connectors()
	for i := range els.Nodes {
		n, _ := ws.Node(ids[i])
		els.Nodes[i].Position = &graph.Point{X: xs[i] + nudges[i], Y: n.Y}
		els.Nodes[i].SourcePosition = source
		els.Nodes[i].TargetPosition = target
	}
	return els, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String describes the orchestrator configuration for logs.
func (o *Orchestrator) String() string {
	return fmt.Sprintf("%s/%s", o.engine.Name(), o.tieBreak.Name())
}
