// Package controller keeps a render surface in sync with a JSON document.
//
// The [Controller] is a small state machine fed with explicit events:
//
//	Uninitialized ──DocumentChanged(valid)──▶ ValidUnlaid ──SurfaceReady──▶ ValidLaid
//	      │                                       ▲    │                       │
//	      └──DocumentChanged(malformed)──▶ Invalid ┘    └──RelayoutRequested───┘
//
// A document change always replaces the graph, drops its positions and
// hands the unpositioned graph to the surface as a [graph.Frame]. The first
// SurfaceReady after that triggers a layout; RelayoutRequested (the "Style"
// action) re-runs it. Once the surface is ready, every graph update is
// published and followed by a request to fit the view. A malformed document
// publishes an empty frame, which unmounts the surface, so readiness must be
// signalled again once the document is valid.
//
// Events are handled strictly one at a time. Tests call
// [Controller.Dispatch] directly; long-running surfaces queue events with
// [Controller.Post] and drain them with [Controller.Run]. [Follow] turns a
// [store.Store] into a stream of DocumentChanged events.
package controller
