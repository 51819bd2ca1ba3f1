// Package layout positions the nodes of a document graph.
//
// # Overview
//
// An [Orchestrator] registers every node of a [dag.DAG] in its [Workspace]
// with a fixed box size ([NodeWidth] x [NodeHeight]), registers every edge,
// and asks an [Engine] to assign node centers for a [Direction]:
//
//	orch := layout.New(layout.WithEngine(layout.GraphvizEngine{}))
//	els, err := orch.Layout(ctx, layout.RightToLeft, g)
//
// The result is the [graph.Elements] of the graph with every node
// positioned. The node and edge sets are never changed.
//
// # Engines
//
//   - [LayeredEngine]: native longest-path ranking, barycenter ordering and
//     parent-centered packing
//   - [GraphvizEngine]: Graphviz's dot engine via go-graphviz
//
// # Connectors and Tie-Breaking
//
// Horizontal directions (LR, RL) attach edges to the right side of the
// source and the left side of the target. Vertical directions (TB, BT) use
// bottom and top.
//
// The y coordinate is copied from the engine unchanged. The x coordinate
// gets a sub-pixel offset from a [TieBreaker] so that no two nodes share an
// x value. [OrderedTieBreak] is the reproducible default; [JitterTieBreak]
// draws random offsets.
//
// # Concurrency
//
// An Orchestrator is safe for concurrent use. Calls are serialized on its
// workspace. Separate orchestrators share nothing.
package layout
