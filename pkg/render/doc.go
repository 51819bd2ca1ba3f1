// Package render groups the static renderers of jsonflow diagrams.
//
// Live surfaces (browser, terminal) draw positioned [graph.Elements]
// themselves. The renderers here produce standalone artifacts instead:
//
//   - [nodelink]: Graphviz DOT source, SVG and PNG output
//
// The same DOT source also drives the graphviz layout engine in pkg/layout,
// which reads node centers back from Graphviz's plain output format.
package render
