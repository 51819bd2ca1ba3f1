package layout

import (
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/dag"
	"github.com/matzehuels/jsonflow/pkg/dag/transform"
)

// WorkNode is a node registered in a [Workspace].
type WorkNode struct {
	ID     string
	Width  float64
	Height float64

	// X and Y are the placed center, valid once Placed is set.
	X, Y   float64
	Placed bool
}

// WorkEdge is a directed edge registered in a [Workspace].
type WorkEdge struct {
	From, To string
}

// Workspace holds the state of one layout computation: the direction, the
// sized nodes and edges to place, and the centers an [Engine] assigns.
//
// A Workspace is owned by its caller and is not safe for concurrent use.
// [Orchestrator] keeps one and resets it before every run.
type Workspace struct {
	direction Direction
	nodes     map[string]*WorkNode
	order     []string
	edges     []WorkEdge
}

// NewWorkspace returns an empty workspace laid out top to bottom.
func NewWorkspace() *Workspace {
	return &Workspace{
		direction: TopToBottom,
		nodes:     make(map[string]*WorkNode),
	}
}

// Reset clears all nodes and edges. The direction is kept.
func (w *Workspace) Reset() {
	clear(w.nodes)
	w.order = w.order[:0]
	w.edges = w.edges[:0]
}

// SetDirection sets the rank direction.
func (w *Workspace) SetDirection(d Direction) { w.direction = d }

// Direction returns the rank direction.
func (w *Workspace) Direction() Direction { return w.direction }

// SetNode registers a node with its box size, or resizes an existing one.
func (w *Workspace) SetNode(id string, width, height float64) {
	if n, ok := w.nodes[id]; ok {
		n.Width, n.Height = width, height
		return
	}
	w.nodes[id] = &WorkNode{ID: id, Width: width, Height: height}
	w.order = append(w.order, id)
}

// SetEdge registers a directed edge between two registered nodes.
func (w *Workspace) SetEdge(from, to string) error {
	if _, ok := w.nodes[from]; !ok {
		return fmt.Errorf("edge %s→%s: %w", from, to, dag.ErrUnknownSourceNode)
	}
	if _, ok := w.nodes[to]; !ok {
		return fmt.Errorf("edge %s→%s: %w", from, to, dag.ErrUnknownTargetNode)
	}
	w.edges = append(w.edges, WorkEdge{From: from, To: to})
	return nil
}

// Node returns the registered node with the given id.
func (w *Workspace) Node(id string) (*WorkNode, bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// Nodes returns the registered nodes in registration order.
func (w *Workspace) Nodes() []*WorkNode {
	out := make([]*WorkNode, len(w.order))
	for i, id := range w.order {
		out[i] = w.nodes[id]
	}
	return out
}

// Edges returns the registered edges in registration order.
// The returned slice should not be modified.
func (w *Workspace) Edges() []WorkEdge { return w.edges }

// NodeCount returns the number of registered nodes.
func (w *Workspace) NodeCount() int { return len(w.order) }

// Place records the center an engine assigned to a node.
func (w *Workspace) Place(id string, x, y float64) error {
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("place %s: unknown node", id)
	}
	n.X, n.Y, n.Placed = x, y, true
	return nil
}

// MaxSize returns the largest registered width and height.
func (w *Workspace) MaxSize() (width, height float64) {
	for _, n := range w.nodes {
		width = max(width, n.Width)
		height = max(height, n.Height)
	}
	return width, height
}

// Graph builds a layered DAG from the registered nodes and edges, with rows
// assigned by longest path from the sources.
func (w *Workspace) Graph() (*dag.DAG, error) {
	g := dag.New(nil)
	for _, id := range w.order {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", id, err)
		}
	}
	for _, e := range w.edges {
		if err := g.AddEdge(dag.Edge{From: e.From, To: e.To}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	transform.AssignLayers(g)
	return g, nil
}
