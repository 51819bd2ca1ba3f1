// Package document turns JSON text into the containment graph jsonflow lays
// out and draws.
//
// # Granularity
//
// The document root becomes one node. Every object member and every array
// element below it becomes one more node, linked to its container by a
// parent→child edge. Objects and arrays are containers; strings, numbers,
// booleans and null are leaves. For {"a": 1, "b": {"c": 2}}:
//
//	#        {2}
//	├─ #/a   a: 1
//	└─ #/b   b {1}
//	   └─ #/b/c  c: 2
//
// # Identity
//
// Node ids are JSON Pointer fragments (RFC 6901): "#" for the root and
// "#/key/0" below it, with "~" escaped as "~0" and "/" as "~1". Members are
// visited in document order, so parsing the same text twice yields the same
// ids and edges. A repeated object key gets a "~dup<n>" suffix.
//
// # Failure
//
// [Parse] returns an error wrapping [ErrMalformed] for anything that is not
// valid JSON, including empty text. It never panics. Callers that only need
// a yes/no answer use [Valid].
package document
