package dag_test

import (
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

func ExampleDAG_basic() {
	// {"a": 1, "b": {"c": 2}}
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "#", Row: 0, Kind: dag.NodeKindObject})
	_ = g.AddNode(dag.Node{ID: "#/a", Row: 1})
	_ = g.AddNode(dag.Node{ID: "#/b", Row: 1, Kind: dag.NodeKindObject})
	_ = g.AddNode(dag.Node{ID: "#/b/c", Row: 2})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/a"})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/b"})
	_ = g.AddEdge(dag.Edge{From: "#/b", To: "#/b/c"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Rows:", g.RowCount())
	// Output:
	// Nodes: 4
	// Edges: 3
	// Rows: 3
}

func ExampleDAG_traversal() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "#", Row: 0, Kind: dag.NodeKindArray})
	_ = g.AddNode(dag.Node{ID: "#/0", Row: 1})
	_ = g.AddNode(dag.Node{ID: "#/1", Row: 1})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/0"})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/1"})

	fmt.Println("Children of root:", g.Children("#"))
	fmt.Println("Parents of #/1:", g.Parents("#/1"))
	fmt.Println("Leaves:", dag.NodeIDs(g.Sinks()))
	// Output:
	// Children of root: [#/0 #/1]
	// Parents of #/1: [#]
	// Leaves: [#/0 #/1]
}

func ExampleCountLayerCrossings() {
	g := dag.New(nil)
	for _, id := range []string{"p", "q", "x", "y"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "p", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "q", To: "x"})

	fmt.Println(dag.CountLayerCrossings(g, []string{"p", "q"}, []string{"x", "y"}))
	fmt.Println(dag.CountLayerCrossings(g, []string{"p", "q"}, []string{"y", "x"}))
	// Output:
	// 1
	// 0
}
