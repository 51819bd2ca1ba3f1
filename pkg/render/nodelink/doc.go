// Package nodelink renders document graphs as node-link diagrams with
// Graphviz.
//
// # Usage
//
// Convert a DAG to DOT format, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{RankDir: "RL"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Options
//
//   - RankDir: Graphviz rank direction (TB, BT, LR, RL); TB when empty
//   - NodeWidth, NodeHeight: fixed node box size in pixels (72 per inch)
//   - Detailed: adds the JSONPath and value type under each label
//
// Containers (the root, objects and arrays) are drawn filled so they stand
// out from scalar leaves.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process through WebAssembly. No system Graphviz install is needed.
package nodelink
