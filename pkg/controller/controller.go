package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/jsonflow/pkg/dag"
	"github.com/matzehuels/jsonflow/pkg/document"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/graph"
	"github.com/matzehuels/jsonflow/pkg/layout"
	"github.com/matzehuels/jsonflow/pkg/observability"
)

// ErrStopped is returned by [Controller.Post] once [Controller.Run] has returned.
var ErrStopped = errors.New("controller stopped")

// DefaultQueueSize is the capacity of the event queue drained by Run.
const DefaultQueueSize = 64

// Layouter positions a parsed document graph. [*layout.Orchestrator]
// implements it.
type Layouter interface {
	Layout(ctx context.Context, dir layout.Direction, g *dag.DAG) (graph.Elements, error)
}

// Surface is where frames are drawn: a browser page, a terminal, or a test
// recorder.
type Surface interface {
	// Publish replaces everything the surface shows with f.
	Publish(ctx context.Context, f graph.Frame) error
	// FitView asks the surface to zoom and pan so the whole graph is visible.
	FitView(ctx context.Context) error
}

// Discard is a Surface that drops every frame.
var Discard Surface = discard{}

type discard struct{}

func (discard) Publish(context.Context, graph.Frame) error { return nil }
func (discard) FitView(context.Context) error              { return nil }

// Controller turns document text into frames. Events are processed one at a
// time, either synchronously through [Controller.Dispatch] or queued through
// [Controller.Post] and drained by [Controller.Run].
type Controller struct {
	layouter  Layouter
	surface   Surface
	dir       layout.Direction
	parseOpts document.Options
	logger    *log.Logger
	hooks     observability.ControllerHooks

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once

	// procMu serializes event handling. mu guards the fields below for
	// readers on other goroutines.
	procMu   sync.Mutex
	mu       sync.RWMutex
	state    State
	ready    bool
	graph    *dag.DAG
	elements graph.Elements
	revision uint64
}

// Option configures a [Controller].
type Option func(*Controller)

// WithDirection sets the layout direction. The default is [layout.DefaultDirection].
func WithDirection(d layout.Direction) Option {
	return func(c *Controller) {
		if d.Valid() {
			c.dir = d
		}
	}
}

// WithParseOptions sets the document size limits.
func WithParseOptions(o document.Options) Option {
	return func(c *Controller) { c.parseOpts = o }
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks sets controller hooks. The default is the globally registered set.
func WithHooks(h observability.ControllerHooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.events = make(chan Event, n)
		}
	}
}

// New creates a controller in the [Uninitialized] state. A nil surface is
// replaced by [Discard].
func New(l Layouter, s Surface, opts ...Option) *Controller {
	if s == nil {
		s = Discard
	}
	c := &Controller{
		layouter: l,
		surface:  s,
		dir:      layout.DefaultDirection,
		logger:   log.Default(),
		events:   make(chan Event, DefaultQueueSize),
		done:     make(chan struct{}),
		elements: emptyElements(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Direction returns the layout direction used for every layout.
func (c *Controller) Direction() layout.Direction { return c.dir }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Ready reports whether the surface has signalled readiness and not been
// detached or unmounted since.
func (c *Controller) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Snapshot returns the frame for the current graph, whether or not it has
// been published. The elements are a deep copy.
func (c *Controller) Snapshot() graph.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameLocked(false)
}

// Dispatch handles one event synchronously and returns the resulting state.
// Malformed documents are not errors; they move the controller to [Invalid].
// Errors come from layout failures or from the surface, and leave the
// state as it was before the failing step.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (State, error) {
	c.procMu.Lock()
	defer c.procMu.Unlock()

	from := c.State()
	err := c.handle(ctx, ev)
	to := c.State()

	c.controllerHooks().OnTransition(ctx, ev.Kind.String(), from.String(), to.String())
	if from != to {
		c.logger.Debug("state changed", "event", ev.Kind, "from", from, "to", to)
	}
	return to, err
}

// Post queues ev for [Controller.Run]. It blocks while the queue is full.
func (c *Controller) Post(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the event queue until ctx is cancelled. Event errors are
// logged, not returned. Run must be called at most once.
func (c *Controller) Run(ctx context.Context) error {
	defer c.stopOnce.Do(func() { close(c.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			if _, err := c.Dispatch(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error("event failed", "event", ev.Kind, "err", err)
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case DocumentChanged:
		return c.documentChanged(ctx, ev.Text)

	case SurfaceReady:
		if !c.state.Valid() {
			return nil
		}
		c.setReady(true)
		if c.state == ValidUnlaid {
			if err := c.layout(ctx); err != nil {
				return err
			}
		}
		return c.publish(ctx, true)

	case RelayoutRequested:
		if !c.state.Valid() {
			return nil
		}
		if err := c.layout(ctx); err != nil {
			return err
		}
		if c.ready {
			return c.publish(ctx, true)
		}
		return nil

	case SurfaceDetached:
		c.setReady(false)
		return nil

	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown event kind %d", int(ev.Kind))
	}
}

func (c *Controller) documentChanged(ctx context.Context, text string) error {
	start := time.Now()
	g, err := document.ParseWithOptions([]byte(text), c.parseOpts)
	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	c.controllerHooks().OnParse(ctx, nodes, time.Since(start), err)

	if err != nil {
		if errors.Is(err, document.ErrTooLarge) {
			c.logger.Warn("document rejected", "err", err)
		} else {
			c.logger.Debug("document rejected", "err", err)
		}
		c.mu.Lock()
		c.state = Invalid
		c.graph = nil
		c.elements = emptyElements()
		c.mu.Unlock()

		// The empty frame unmounts the surface.
		perr := c.publish(ctx, false)
		c.setReady(false)
		return perr
	}

	c.mu.Lock()
	c.state = ValidUnlaid
	c.graph = g
	c.elements = graph.FromDAG(g)
	ready := c.ready
	c.mu.Unlock()

	c.logger.Debug("document parsed", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	// The surface always receives the fresh graph; fitting waits for readiness.
	return c.publish(ctx, ready)
}

func (c *Controller) layout(ctx context.Context) error {
	if c.layouter == nil {
		return errs.New(errs.ErrCodeInternal, "controller has no layouter")
	}
	els, err := c.layouter.Layout(ctx, c.dir, c.graph)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.elements = els
	c.state = ValidLaid
	c.mu.Unlock()
	c.logger.Debug("layout applied", "direction", c.dir, "nodes", len(els.Nodes))
	return nil
}

func (c *Controller) publish(ctx context.Context, fit bool) error {
	c.mu.Lock()
	c.revision++
	f := c.frameLocked(fit && c.state.Valid())
	c.mu.Unlock()

	c.controllerHooks().OnPublish(ctx, f.State, len(f.Elements.Nodes))
	if err := c.surface.Publish(ctx, f); err != nil {
		return errs.Wrap(errs.ErrCodeRender, err, "publish frame %d", f.Revision)
	}
	if f.Fit {
		if err := c.surface.FitView(ctx); err != nil {
			return errs.Wrap(errs.ErrCodeRender, err, "fit view")
		}
	}
	return nil
}

func (c *Controller) frameLocked(fit bool) graph.Frame {
	return graph.Frame{
		Revision:  c.revision,
		State:     c.state.String(),
		Direction: c.dir.String(),
		Elements:  c.elements.Clone(),
		Extent:    graph.DefaultExtent,
		Fit:       fit,
	}
}

func (c *Controller) setReady(v bool) {
	c.mu.Lock()
	c.ready = v
	c.mu.Unlock()
}

func (c *Controller) controllerHooks() observability.ControllerHooks {
	if c.hooks != nil {
		return c.hooks
	}
	return observability.Controller()
}

func emptyElements() graph.Elements {
	return graph.Elements{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
}
