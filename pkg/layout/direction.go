package layout

import (
	"strings"

	errs "github.com/matzehuels/jsonflow/pkg/errors"
	"github.com/matzehuels/jsonflow/pkg/graph"
)

// Direction is the rank direction of a layered layout.
type Direction string

// Rank directions. The first letter names the side the root ends up on.
const (
	LeftToRight Direction = "LR"
	RightToLeft Direction = "RL"
	TopToBottom Direction = "TB"
	BottomToTop Direction = "BT"
)

// DefaultDirection puts the document root on the right.
const DefaultDirection = RightToLeft

// Directions lists every supported direction.
var Directions = []Direction{LeftToRight, RightToLeft, TopToBottom, BottomToTop}

// ParseDirection parses a direction code, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", errs.New(errs.ErrCodeInvalidDirection, "unknown direction %q (want LR, RL, TB or BT)", s)
	}
	return d, nil
}

// Valid reports whether d is one of the four supported directions.
func (d Direction) Valid() bool {
	switch d {
	case LeftToRight, RightToLeft, TopToBottom, BottomToTop:
		return true
	}
	return false
}

// Horizontal reports whether ranks run along the x axis.
func (d Direction) Horizontal() bool {
	return d == LeftToRight || d == RightToLeft
}

// Connectors returns the source and target connector sides for d.
// Horizontal layouts attach edges to the left and right sides, vertical
// layouts to the top and bottom.
func (d Direction) Connectors() (source, target graph.Position) {
	if d.Horizontal() {
		return graph.PositionRight, graph.PositionLeft
	}
	return graph.PositionBottom, graph.PositionTop
}

func (d Direction) String() string { return string(d) }
