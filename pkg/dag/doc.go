// Package dag provides a directed acyclic graph organized into rows (layers).
//
// # Overview
//
// jsonflow turns a JSON document into a containment tree: the document root
// sits in row 0 and every object member or array element sits one row below
// its container. This package holds that tree together with the row index the
// layered layout engines work on.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "#", Row: 0, Kind: dag.NodeKindObject})
//	g.AddNode(dag.Node{ID: "#/a", Row: 1})
//	g.AddEdge(dag.Edge{From: "#", To: "#/a"})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.NodesInRow],
// and related methods. Use [DAG.Validate] to verify structural integrity.
//
// # Determinism
//
// Nodes keep insertion order. [DAG.Nodes], [DAG.Sources] and
// [DAG.NodesInRow] all return nodes in that order, so two graphs built from
// the same document are indistinguishable.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count inversions with a Fenwick
// tree in O(E log V). The native layered layout engine uses them to keep the
// best row ordering found during barycenter sweeps.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
