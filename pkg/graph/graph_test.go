package graph

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

func scenarioDAG() *dag.DAG {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "#", Row: 0, Kind: dag.NodeKindObject, Meta: dag.Metadata{dag.MetaLabel: "{2}", dag.MetaPath: "$"}})
	g.AddNode(dag.Node{ID: "#/a", Row: 1, Meta: dag.Metadata{dag.MetaLabel: "a: 1", dag.MetaPath: "$.a", dag.MetaValue: "1"}})
	g.AddNode(dag.Node{ID: "#/b", Row: 1, Kind: dag.NodeKindObject, Meta: dag.Metadata{dag.MetaLabel: "b {1}", dag.MetaPath: "$.b"}})
	g.AddNode(dag.Node{ID: "#/b/c", Row: 2, Meta: dag.Metadata{dag.MetaLabel: "c: 2", dag.MetaPath: "$.b.c", dag.MetaValue: "2"}})
	g.AddEdge(dag.Edge{From: "#", To: "#/a"})
	g.AddEdge(dag.Edge{From: "#", To: "#/b"})
	g.AddEdge(dag.Edge{From: "#/b", To: "#/b/c"})
	return g
}

func TestFromDAG(t *testing.T) {
	els := FromDAG(scenarioDAG())

	if len(els.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(els.Nodes))
	}
	if len(els.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(els.Edges))
	}

	wantIDs := []string{"#", "#/a", "#/b", "#/b/c"}
	for i, id := range els.NodeIDs() {
		if id != wantIDs[i] {
			t.Errorf("node[%d] = %q, want %q", i, id, wantIDs[i])
		}
	}

	tests := []struct {
		id    string
		typ   string
		kind  string
		label string
		value string
	}{
		{"#", TypeSpecial, "object", "{2}", ""},
		{"#/a", TypeDefault, "value", "a: 1", "1"},
		{"#/b", TypeSpecial, "object", "b {1}", ""},
		{"#/b/c", TypeDefault, "value", "c: 2", "2"},
	}
	for i, tt := range tests {
		n := els.Nodes[i]
		if n.Type != tt.typ {
			t.Errorf("%s type = %q, want %q", tt.id, n.Type, tt.typ)
		}
		if n.Data.Kind != tt.kind {
			t.Errorf("%s kind = %q, want %q", tt.id, n.Data.Kind, tt.kind)
		}
		if n.Data.Label != tt.label {
			t.Errorf("%s label = %q, want %q", tt.id, n.Data.Label, tt.label)
		}
		if n.Data.Value != tt.value {
			t.Errorf("%s value = %q, want %q", tt.id, n.Data.Value, tt.value)
		}
		if n.Position != nil {
			t.Errorf("%s has position before layout", tt.id)
		}
	}

	if els.Edges[2].ID != "e:#/b->#/b/c" {
		t.Errorf("edge id = %q, want e:#/b->#/b/c", els.Edges[2].ID)
	}
}

func TestFromDAGOrdersByRow(t *testing.T) {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "deep", Row: 2})
	g.AddNode(dag.Node{ID: "root", Row: 0})
	g.AddNode(dag.Node{ID: "mid-2", Row: 1})
	g.AddNode(dag.Node{ID: "mid-1", Row: 1})

	got := FromDAG(g).NodeIDs()
	want := []string{"root", "mid-2", "mid-1", "deep"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestElementsClone(t *testing.T) {
	els := FromDAG(scenarioDAG())
	els.Nodes[0].Position = &Point{X: 1, Y: 2}

	c := els.Clone()
	c.Nodes[0].Position.X = 99

	if els.Nodes[0].Position.X != 1 {
		t.Error("Clone shares position pointers")
	}
}

func TestElementsPositioned(t *testing.T) {
	if (Elements{}).Positioned() {
		t.Error("empty elements reported as positioned")
	}
	els := FromDAG(scenarioDAG())
	if els.Positioned() {
		t.Error("fresh elements reported as positioned")
	}
	for i := range els.Nodes {
		els.Nodes[i].Position = &Point{}
	}
	if !els.Positioned() {
		t.Error("fully positioned elements not reported as positioned")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	els := FromDAG(scenarioDAG())
	els.Nodes[1].Position = &Point{X: 10.5, Y: 20}
	els.Nodes[1].SourcePosition = PositionRight
	els.Nodes[1].TargetPosition = PositionLeft

	data, err := MarshalElements(els)
	if err != nil {
		t.Fatalf("MarshalElements: %v", err)
	}
	if !strings.Contains(string(data), `"sourcePosition": "right"`) {
		t.Errorf("missing sourcePosition in %s", data)
	}

	got, err := UnmarshalElements(data)
	if err != nil {
		t.Fatalf("UnmarshalElements: %v", err)
	}
	if got.Nodes[1].Position == nil || got.Nodes[1].Position.X != 10.5 {
		t.Errorf("position = %+v, want x=10.5", got.Nodes[1].Position)
	}
	if got.Nodes[0].Position != nil {
		t.Error("unpositioned node gained a position")
	}
}

func TestMarshalEmpty(t *testing.T) {
	data, err := MarshalElements(Elements{})
	if err != nil {
		t.Fatalf("MarshalElements: %v", err)
	}
	if !strings.Contains(string(data), `"nodes": []`) {
		t.Errorf("empty nodes not encoded as []: %s", data)
	}
}

func TestUnmarshalElementsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{"nodes":`},
		{"unknown source", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source":"x","target":"a"}]}`},
		{"unknown target", `{"nodes":[{"id":"a"}],"edges":[{"id":"e","source":"a","target":"x"}]}`},
		{"duplicate node", `{"nodes":[{"id":"a"},{"id":"a"}],"edges":[]}`},
		{"empty id", `{"nodes":[{"id":""}],"edges":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalElements([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestElementsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elements.json")
	els := FromDAG(scenarioDAG())

	if err := WriteElementsFile(els, path); err != nil {
		t.Fatalf("WriteElementsFile: %v", err)
	}
	got, err := ReadElementsFile(path)
	if err != nil {
		t.Fatalf("ReadElementsFile: %v", err)
	}
	if len(got.Nodes) != 4 || len(got.Edges) != 3 {
		t.Errorf("got %d nodes, %d edges, want 4, 3", len(got.Nodes), len(got.Edges))
	}

	if _, err := ReadElementsFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFrameEmpty(t *testing.T) {
	if !(Frame{}).Empty() {
		t.Error("zero frame should be empty")
	}
	f := Frame{Elements: FromDAG(scenarioDAG())}
	if f.Empty() {
		t.Error("frame with nodes reported empty")
	}
}
