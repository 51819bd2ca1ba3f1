package layout

import (
	"errors"
	"testing"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

func TestWorkspace(t *testing.T) {
	ws := NewWorkspace()
	ws.SetDirection(RightToLeft)
	ws.SetNode("a", 10, 20)
	ws.SetNode("b", 30, 40)
	ws.SetNode("a", 15, 25)

	if ws.NodeCount() != 2 {
		t.Fatalf("NodeCount() = %d, want 2", ws.NodeCount())
	}
	a, ok := ws.Node("a")
	if !ok || a.Width != 15 || a.Height != 25 {
		t.Errorf("Node(a) = %+v, want resized 15x25", a)
	}

	if err := ws.SetEdge("a", "b"); err != nil {
		t.Fatalf("SetEdge: %v", err)
	}
	if err := ws.SetEdge("a", "x"); !errors.Is(err, dag.ErrUnknownTargetNode) {
		t.Errorf("SetEdge(a, x) = %v, want ErrUnknownTargetNode", err)
	}
	if err := ws.SetEdge("x", "a"); !errors.Is(err, dag.ErrUnknownSourceNode) {
		t.Errorf("SetEdge(x, a) = %v, want ErrUnknownSourceNode", err)
	}

	w, h := ws.MaxSize()
	if w != 30 || h != 40 {
		t.Errorf("MaxSize() = %v,%v, want 30,40", w, h)
	}

	g, err := ws.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if n, _ := g.Node("b"); n.Row != 1 {
		t.Errorf("row(b) = %d, want 1", n.Row)
	}

	if err := ws.Place("a", 1, 2); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := ws.Place("zzz", 1, 2); err == nil {
		t.Error("Place of unknown node should fail")
	}

	ws.Reset()
	if ws.NodeCount() != 0 || len(ws.Edges()) != 0 {
		t.Error("Reset should clear nodes and edges")
	}
	if _, ok := ws.Node("a"); ok {
		t.Error("node survived Reset")
	}
	if ws.Direction() != RightToLeft {
		t.Error("Reset should keep the direction")
	}
}
