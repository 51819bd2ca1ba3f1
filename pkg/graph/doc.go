// Package graph defines the wire format jsonflow hands to render surfaces.
//
// # Core Types
//
//   - [Elements]: the node and edge set derived from one document
//   - [Node], [Edge]: diagram elements, shaped for browser graph widgets
//   - [Frame]: a published snapshot (elements plus controller state)
//
// Node ids are JSON Pointer fragments such as "#/b/c". Edge ids are
// "e:<source>-><target>".
//
// # Serialization
//
//	{
//	  "nodes": [
//	    {"id": "#", "type": "special", "data": {"label": "{2}", "kind": "object"}},
//	    {"id": "#/a", "type": "default", "data": {"label": "a: 1", "kind": "value"}}
//	  ],
//	  "edges": [{"id": "e:#->#/a", "source": "#", "target": "#/a"}]
//	}
//
// Common operations:
//
//	els := graph.FromDAG(g)                      // DAG → Elements
//	graph.WriteElementsFile(els, "out.json")     // Elements → File
//	els, _ = graph.ReadElementsFile("out.json")  // File → Elements
//
// Positions and connector sides are filled in by pkg/layout.
package graph
