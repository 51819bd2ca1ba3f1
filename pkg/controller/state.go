package controller

// State is the view controller's lifecycle state.
type State int

const (
	// Uninitialized is the state before the first document arrives.
	Uninitialized State = iota
	// Invalid means the current document text is not well-formed JSON.
	Invalid
	// ValidUnlaid means a graph exists but has no positions yet.
	ValidUnlaid
	// ValidLaid means every node of the current graph is positioned.
	ValidLaid
)

// String returns the snake_case state name used on the wire and in logs.
func (s State) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case ValidUnlaid:
		return "valid_unlaid"
	case ValidLaid:
		return "valid_laid"
	default:
		return "uninitialized"
	}
}

// Valid reports whether the state holds a graph.
func (s State) Valid() bool { return s == ValidUnlaid || s == ValidLaid }

// EventKind names what happened.
type EventKind int

const (
	// DocumentChanged carries new document text, from storage or the initial load.
	DocumentChanged EventKind = iota + 1
	// SurfaceReady means the render surface is mounted and can be fitted.
	SurfaceReady
	// RelayoutRequested is the user's "Style" action.
	RelayoutRequested
	// SurfaceDetached means the render surface went away.
	SurfaceDetached
)

func (k EventKind) String() string {
	switch k {
	case DocumentChanged:
		return "document_changed"
	case SurfaceReady:
		return "surface_ready"
	case RelayoutRequested:
		return "relayout_requested"
	case SurfaceDetached:
		return "surface_detached"
	default:
		return "unknown"
	}
}

// Event is one input to the controller. Text is only read for
// [DocumentChanged].
type Event struct {
	Kind EventKind
	Text string
}

// Changed returns a DocumentChanged event carrying text.
func Changed(text string) Event { return Event{Kind: DocumentChanged, Text: text} }

// Ready returns a SurfaceReady event.
func Ready() Event { return Event{Kind: SurfaceReady} }

// Relayout returns a RelayoutRequested event.
func Relayout() Event { return Event{Kind: RelayoutRequested} }

// Detached returns a SurfaceDetached event.
func Detached() Event { return Event{Kind: SurfaceDetached} }
