package transform

import (
	"testing"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

func TestAssignLayers(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  map[string]int
	}{
		{
			name:  "Empty",
			nodes: nil,
			want:  map[string]int{},
		},
		{
			name:  "Chain",
			nodes: []string{"a", "b", "c"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 2},
		},
		{
			name:  "LongestPathWins",
			nodes: []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"c", "d"}},
			want:  map[string]int{"a": 0, "b": 1, "c": 2, "d": 3},
		},
		{
			name:  "OverwritesRows",
			nodes: []string{"x", "y"},
			edges: [][2]string{{"x", "y"}},
			want:  map[string]int{"x": 0, "y": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := dag.New(nil)
			for i, id := range tt.nodes {
				if err := g.AddNode(dag.Node{ID: id, Row: 7 + i}); err != nil {
					t.Fatalf("AddNode(%s): %v", id, err)
				}
			}
			for _, e := range tt.edges {
				if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
					t.Fatalf("AddEdge(%s, %s): %v", e[0], e[1], err)
				}
			}

			AssignLayers(g)

			for id, want := range tt.want {
				n, _ := g.Node(id)
				if n.Row != want {
					t.Errorf("row(%s) = %d, want %d", id, n.Row, want)
				}
			}
			if tt.name != "LongestPathWins" {
				if err := g.Validate(); err != nil {
					t.Errorf("Validate() = %v", err)
				}
			}
		})
	}
}
