// Package pkg holds the libraries behind jsonflow, which draws JSON
// documents as node-link diagrams and keeps a live view in sync with a
// stored document.
//
// # Overview
//
//  1. [document] - parse JSON (or YAML) into a tree-shaped [dag.DAG]
//  2. [layout] - place every node on a layered grid ([layout.Orchestrator])
//  3. [graph] - the elements and frames handed to surfaces
//  4. [controller] - the view state machine fed by document and surface events
//  5. [store] - where the followed document lives (file, memory, redis, mongo)
//  6. [pipeline] - one-shot parse, layout and render with caching
//  7. [render] - DOT and Graphviz SVG/PNG output
//
// Supporting packages: [cache], [errors], [observability], [buildinfo].
//
// # Architecture
//
//	document text (store or file)
//	         ↓
//	    [document] (parse, one node per value)
//	         ↓
//	    [layout] (rows by depth, order within rows, pixel positions)
//	         ↓
//	    [controller] ─▶ Surface (browser over websockets, terminal table)
//
// # Quick Start
//
// Lay out a document once:
//
//	import (
//	    "context"
//
//	    "github.com/matzehuels/jsonflow/pkg/document"
//	    "github.com/matzehuels/jsonflow/pkg/layout"
//	)
//
//	g, err := document.Parse([]byte(`{"a":[1,2]}`))
//	if err != nil {
//	    return err
//	}
//	els, err := layout.New().Layout(context.Background(), layout.RightToLeft, g)
//
// Or follow a stored document and push frames to a surface:
//
//	c := controller.New(layout.New(), surface)
//	go c.Run(ctx)
//	err := controller.Follow(ctx, st, store.DefaultKey, c)
package pkg
