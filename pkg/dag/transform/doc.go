// Package transform provides graph transformations that prepare a DAG for
// layered layout.
//
// # Layer Assignment
//
// [AssignLayers] places every node one row below the deepest of its parents
// using a longest-path pass over a topological order. Graphs produced by the
// document parser already carry depth rows; layout engines still run
// [AssignLayers] on their own copy so that hand-built graphs (and graphs read
// back from elements files, which carry no rows) lay out the same way.
package transform
