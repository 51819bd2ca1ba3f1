package layout

import (
	"context"
	"strings"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
)

// Engine assigns a center to every node registered in a workspace.
//
// Implementations read the direction, nodes and edges from the workspace and
// call [Workspace.Place] for each node. Coordinates are screen pixels with
// the origin at the top-left and y growing downwards.
type Engine interface {
	Name() string
	Place(ctx context.Context, ws *Workspace) error
}

// Engine names.
const (
	EngineLayered  = "layered"
	EngineGraphviz = "graphviz"
)

// Engines lists the names accepted by [NewEngine].
var Engines = []string{EngineLayered, EngineGraphviz}

// NewEngine returns the engine with the given name.
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EngineLayered, "":
		return NewLayeredEngine(), nil
	case EngineGraphviz, "dot":
		return GraphvizEngine{}, nil
	default:
		return nil, errs.New(errs.ErrCodeInvalidEngine, "unknown layout engine %q (want layered or graphviz)", name)
	}
}
