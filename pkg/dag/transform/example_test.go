package transform_test

import (
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/dag"
	"github.com/matzehuels/jsonflow/pkg/dag/transform"
)

func ExampleAssignLayers() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "#"})
	_ = g.AddNode(dag.Node{ID: "#/a"})
	_ = g.AddNode(dag.Node{ID: "#/b"})
	_ = g.AddNode(dag.Node{ID: "#/b/c"})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/a"})
	_ = g.AddEdge(dag.Edge{From: "#", To: "#/b"})
	_ = g.AddEdge(dag.Edge{From: "#/b", To: "#/b/c"})

	transform.AssignLayers(g)

	for _, row := range g.RowIDs() {
		fmt.Println(row, dag.NodeIDs(g.NodesInRow(row)))
	}
	// Output:
	// 0 [#]
	// 1 [#/a #/b]
	// 2 [#/b/c]
}
