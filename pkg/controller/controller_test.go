package controller

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/jsonflow/pkg/dag"
	"github.com/matzehuels/jsonflow/pkg/document"
	"github.com/matzehuels/jsonflow/pkg/document/documenttest"
	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/graph"
	"github.com/matzehuels/jsonflow/pkg/layout"
	"github.com/matzehuels/jsonflow/pkg/store"
)

const scenario = `{"a": 1, "b": {"c": 2}}`

// recorder is a Surface that keeps everything it is given.
type recorder struct {
	mu     sync.Mutex
	frames []graph.Frame
	fits   int
	err    error
}

func (r *recorder) Publish(_ context.Context, f graph.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) FitView(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits++
	return nil
}

func (r *recorder) count() (frames, fits int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames), r.fits
}

func (r *recorder) last(t *testing.T) graph.Frame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		t.Fatal("no frame published")
	}
	return r.frames[len(r.frames)-1]
}

func newTest(opts ...Option) (*Controller, *recorder) {
	rec := &recorder{}
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(layout.New(), rec, opts...), rec
}

func dispatch(t *testing.T, c *Controller, ev Event, want State) {
	t.Helper()
	got, err := c.Dispatch(context.Background(), ev)
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", ev.Kind, err)
	}
	if got != want {
		t.Fatalf("Dispatch(%s) state = %s, want %s", ev.Kind, got, want)
	}
}

func TestScenarioRL(t *testing.T) {
	c, rec := newTest()
	if c.State() != Uninitialized {
		t.Fatalf("initial state = %s", c.State())
	}

	dispatch(t, c, Changed(scenario), ValidUnlaid)
	frames, fits := rec.count()
	if frames != 1 || fits != 0 {
		t.Fatalf("frames = %d, fits = %d, want 1, 0", frames, fits)
	}
	if f := rec.last(t); f.State != "valid_unlaid" || f.Fit || f.Elements.Positioned() {
		t.Errorf("unlaid frame = %+v", f)
	}

	dispatch(t, c, Ready(), ValidLaid)
	frames, fits = rec.count()
	if frames != 2 || fits != 1 {
		t.Fatalf("frames = %d, fits = %d, want 2, 1", frames, fits)
	}

	f := rec.last(t)
	if f.State != "valid_laid" || f.Direction != "RL" || !f.Fit {
		t.Errorf("frame header = %+v", f)
	}
	if len(f.Elements.Nodes) != 4 || len(f.Elements.Edges) != 3 {
		t.Fatalf("frame has %d nodes, %d edges, want 4, 3", len(f.Elements.Nodes), len(f.Elements.Edges))
	}
	for _, n := range f.Elements.Nodes {
		if n.Position == nil {
			t.Errorf("node %s has no position", n.ID)
		}
		if n.SourcePosition != graph.PositionRight || n.TargetPosition != graph.PositionLeft {
			t.Errorf("node %s connectors = %s/%s", n.ID, n.SourcePosition, n.TargetPosition)
		}
	}
	if f.Extent != graph.DefaultExtent {
		t.Errorf("extent = %v", f.Extent)
	}
}

func TestInvalidRoundTrip(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)

	dispatch(t, c, Changed(""), Invalid)
	f := rec.last(t)
	if !f.Empty() || f.State != "invalid" || f.Fit {
		t.Errorf("invalid frame = %+v", f)
	}
	if c.Ready() {
		t.Error("surface still ready after invalid document")
	}

	// Nothing is mounted, so readiness is ignored.
	dispatch(t, c, Ready(), Invalid)

	_, fitsBefore := rec.count()
	dispatch(t, c, Changed(`{"back": true}`), ValidUnlaid)
	if f := rec.last(t); f.State != "valid_unlaid" || f.Fit {
		t.Errorf("frame after recovery = %+v", f)
	}
	if _, fits := rec.count(); fits != fitsBefore {
		t.Error("fit requested while the surface was unmounted")
	}
	dispatch(t, c, Ready(), ValidLaid)
	if !rec.last(t).Elements.Positioned() {
		t.Error("final frame is not laid out")
	}
}

func TestMalformedDocuments(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"{",
		`{"a": }`,
		`[1, 2,]`,
		`{"a": 1} trailing`,
		"\x00",
		`"unterminated`,
	}
	for _, in := range inputs {
		c, rec := newTest()
		dispatch(t, c, Changed(scenario), ValidUnlaid)
		dispatch(t, c, Ready(), ValidLaid)

		dispatch(t, c, Changed(in), Invalid)
		if !c.Snapshot().Empty() {
			t.Errorf("%q: snapshot not empty", in)
		}
		if !rec.last(t).Empty() {
			t.Errorf("%q: last published frame not empty", in)
		}
	}
}

func TestTooLargeIsInvalid(t *testing.T) {
	c, _ := newTest(WithParseOptions(document.Options{MaxNodes: 2}))
	dispatch(t, c, Changed(scenario), Invalid)
}

func TestIgnoredBeforeDocument(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Ready(), Uninitialized)
	dispatch(t, c, Relayout(), Uninitialized)
	dispatch(t, c, Detached(), Uninitialized)
	if n, _ := rec.count(); n != 0 {
		t.Errorf("published %d frames", n)
	}
}

func TestReadyWhileLaidRepublishes(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)
	first := rec.last(t)

	dispatch(t, c, Ready(), ValidLaid)
	second := rec.last(t)
	if second.Revision <= first.Revision {
		t.Errorf("revision %d not after %d", second.Revision, first.Revision)
	}
	if _, fits := rec.count(); fits != 2 {
		t.Errorf("fits = %d, want 2", fits)
	}
}

func TestDocumentChangeWhileReady(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)

	dispatch(t, c, Changed(`[1, 2, 3]`), ValidUnlaid)
	f := rec.last(t)
	if f.State != "valid_unlaid" || !f.Fit {
		t.Errorf("frame = %+v", f)
	}
	if len(f.Elements.Nodes) != 4 {
		t.Errorf("got %d nodes, want 4", len(f.Elements.Nodes))
	}
	for _, n := range f.Elements.Nodes {
		if n.Position != nil {
			t.Errorf("node %s kept a position across a document change", n.ID)
		}
	}
}

func TestRelayout(t *testing.T) {
	c, rec := newTest(WithDirection(layout.TopToBottom))
	dispatch(t, c, Changed(scenario), ValidUnlaid)

	// Not ready: laid out but not published.
	dispatch(t, c, Relayout(), ValidLaid)
	if n, _ := rec.count(); n != 1 {
		t.Errorf("published %d frames, want only the unlaid one", n)
	}
	if !c.Snapshot().Elements.Positioned() {
		t.Error("snapshot not positioned after relayout")
	}

	dispatch(t, c, Ready(), ValidLaid)
	dispatch(t, c, Relayout(), ValidLaid)
	frames, fits := rec.count()
	if frames != 3 || fits != 2 {
		t.Errorf("frames = %d, fits = %d, want 3, 2", frames, fits)
	}
	for _, n := range rec.last(t).Elements.Nodes {
		if n.SourcePosition != graph.PositionBottom || n.TargetPosition != graph.PositionTop {
			t.Errorf("node %s connectors = %s/%s", n.ID, n.SourcePosition, n.TargetPosition)
		}
	}
}

func TestDetached(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)
	dispatch(t, c, Detached(), ValidLaid)
	if c.Ready() {
		t.Fatal("still ready after detach")
	}
	_, before := rec.count()
	dispatch(t, c, Changed(`{"x": 1}`), ValidUnlaid)
	if _, fits := rec.count(); fits != before {
		t.Error("fit requested on a detached surface")
	}
	if rec.last(t).Fit {
		t.Error("frame for a detached surface asks for fit")
	}
}

type failingLayouter struct{}

func (failingLayouter) Layout(context.Context, layout.Direction, *dag.DAG) (graph.Elements, error) {
	return graph.Elements{}, errs.New(errs.ErrCodeLayout, "engine exploded")
}

func TestLayoutFailureKeepsState(t *testing.T) {
	rec := &recorder{}
	c := New(failingLayouter{}, rec, WithLogger(log.New(io.Discard)))
	if _, err := c.Dispatch(context.Background(), Changed(scenario)); err != nil {
		t.Fatal(err)
	}
	st, err := c.Dispatch(context.Background(), Ready())
	if !errs.Is(err, errs.ErrCodeLayout) {
		t.Errorf("error = %v, want LAYOUT", err)
	}
	if st != ValidUnlaid {
		t.Errorf("state = %s, want valid_unlaid", st)
	}
}

func TestPublishError(t *testing.T) {
	c, rec := newTest()
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	rec.mu.Lock()
	rec.err = errors.New("socket closed")
	rec.mu.Unlock()
	st, err := c.Dispatch(context.Background(), Ready())
	if !errs.Is(err, errs.ErrCodeRender) {
		t.Errorf("error = %v, want RENDER", err)
	}
	if st != ValidLaid {
		t.Errorf("state = %s, want valid_laid", st)
	}
}

func TestUnknownEvent(t *testing.T) {
	c, _ := newTest()
	if _, err := c.Dispatch(context.Background(), Event{Kind: 99}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("error = %v", err)
	}
}

func TestNilSurface(t *testing.T) {
	c := New(layout.New(), nil, WithLogger(log.New(io.Discard)))
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunAndPost(t *testing.T) {
	c, rec := newTest()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for _, ev := range []Event{Changed(scenario), Ready(), Relayout()} {
		if err := c.Post(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool {
		_, fits := rec.count()
		return fits == 2
	})
	if c.State() != ValidLaid {
		t.Errorf("state = %s", c.State())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if err := c.Post(context.Background(), Ready()); !errors.Is(err, ErrStopped) {
		t.Errorf("Post after stop = %v, want ErrStopped", err)
	}
}

func TestFollow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemoryStore()
	c, _ := newTest()
	go c.Run(ctx)

	followed := make(chan error, 1)
	go func() { followed <- Follow(ctx, s, store.DefaultKey, c) }()

	defaultNodes := func() int {
		g, err := document.Parse([]byte(document.DefaultDocument))
		if err != nil {
			t.Fatal(err)
		}
		return g.NodeCount()
	}()
	waitFor(t, func() bool { return len(c.Snapshot().Elements.Nodes) == defaultNodes })

	if err := s.Set(ctx, store.DefaultKey, scenario); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(c.Snapshot().Elements.Nodes) == 4 })

	if err := s.Set(ctx, store.DefaultKey, "{oops"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return c.State() == Invalid })

	cancel()
	if err := <-followed; !errors.Is(err, context.Canceled) {
		t.Errorf("Follow() = %v", err)
	}
}

type countingHooks struct {
	mu          sync.Mutex
	parses      int
	parseErrs   int
	transitions []string
	publishes   int
}

func (h *countingHooks) OnParse(_ context.Context, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parses++
	if err != nil {
		h.parseErrs++
	}
}

func (h *countingHooks) OnTransition(_ context.Context, event, from, to string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, event+":"+from+"->"+to)
}

func (h *countingHooks) OnPublish(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishes++
}

func TestHooks(t *testing.T) {
	h := &countingHooks{}
	c, _ := newTest(WithHooks(h))
	dispatch(t, c, Changed(scenario), ValidUnlaid)
	dispatch(t, c, Ready(), ValidLaid)
	dispatch(t, c, Changed("nope"), Invalid)

	want := []string{
		"document_changed:uninitialized->valid_unlaid",
		"surface_ready:valid_unlaid->valid_laid",
		"document_changed:valid_laid->invalid",
	}
	if len(h.transitions) != len(want) {
		t.Fatalf("transitions = %v", h.transitions)
	}
	for i := range want {
		if h.transitions[i] != want[i] {
			t.Errorf("transition[%d] = %s, want %s", i, h.transitions[i], want[i])
		}
	}
	if h.parses != 2 || h.parseErrs != 1 || h.publishes != 3 {
		t.Errorf("parses=%d parseErrs=%d publishes=%d", h.parses, h.parseErrs, h.publishes)
	}
}

func TestStateStrings(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Uninitialized, "uninitialized"},
		{Invalid, "invalid"},
		{ValidUnlaid, "valid_unlaid"},
		{ValidLaid, "valid_laid"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestEventSequenceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	shapes := gen.SliceOf(gen.IntRange(0, 9))
	keys := gen.SliceOf(gen.IntRange(0, len(documenttest.Keys)-1))
	// 0 valid doc, 1 malformed doc, 2 ready, 3 relayout, 4 detach
	steps := gen.SliceOf(gen.IntRange(0, 4))

	properties.Property("frames always match the state", prop.ForAll(
		func(shape, keyIdx, seq []int) bool {
			doc := string(documenttest.Build(shape, keyIdx))
			c, rec := newTest()
			for _, step := range seq {
				var ev Event
				switch step {
				case 0:
					ev = Changed(doc)
				case 1:
					ev = Changed(doc[:len(doc)/2] + "}{")
				case 2:
					ev = Ready()
				case 3:
					ev = Relayout()
				default:
					ev = Detached()
				}
				st, err := c.Dispatch(context.Background(), ev)
				if err != nil {
					return false
				}
				snap := c.Snapshot()
				switch st {
				case Invalid, Uninitialized:
					if !snap.Empty() || c.Ready() {
						return false
					}
				case ValidLaid:
					if !snap.Elements.Positioned() {
						return false
					}
				case ValidUnlaid:
					for _, n := range snap.Elements.Nodes {
						if n.Position != nil {
							return false
						}
					}
				}
			}
			rec.mu.Lock()
			defer rec.mu.Unlock()
			for _, f := range rec.frames {
				if f.State == "invalid" && !f.Empty() {
					return false
				}
			}
			return true
		},
		shapes, keys, steps,
	))

	properties.TestingRun(t)
}
