package graph

import (
	"cmp"
	"slices"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node types. A surface picks the node template from the type.
const (
	TypeSpecial = "special" // root, objects and arrays
	TypeDefault = "default" // scalar leaves
)

// Position is the side of a node's box an edge attaches to.
type Position string

// Connector sides.
const (
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Extent bounds the area nodes may be dragged in: [[minX, minY], [maxX, maxY]].
type Extent [2][2]float64

// DefaultExtent is the node extent handed to render surfaces.
var DefaultExtent = Extent{{0, 0}, {1000, 1000}}

// =============================================================================
// Elements - Node/Edge Set
// =============================================================================

// Elements is the full node and edge set derived from one document.
// It is regenerated wholesale on every document change and never patched.
type Elements struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Point is a 2-D coordinate in surface pixels.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// NodeData is what a node template renders.
type NodeData struct {
	Label string `json:"label" bson:"label"`
	Kind  string `json:"kind" bson:"kind"`                       // "object", "array" or "value"
	Path  string `json:"path,omitempty" bson:"path,omitempty"`   // $.a.b style location
	Value string `json:"value,omitempty" bson:"value,omitempty"` // scalar text, leaves only
}

// Node is a positioned (or not yet positioned) diagram node.
// Position and the connector sides stay unset until layout runs.
type Node struct {
	ID             string   `json:"id" bson:"id"`
	Type           string   `json:"type" bson:"type"`
	Data           NodeData `json:"data" bson:"data"`
	Position       *Point   `json:"position,omitempty" bson:"position,omitempty"`
	SourcePosition Position `json:"sourcePosition,omitempty" bson:"sourcePosition,omitempty"`
	TargetPosition Position `json:"targetPosition,omitempty" bson:"targetPosition,omitempty"`
}

// IsSpecial reports whether the node uses the container template.
func (n *Node) IsSpecial() bool { return n.Type == TypeSpecial }

// Edge is a parent→child containment link.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// EdgeID returns the canonical edge id for a source/target pair.
func EdgeID(source, target string) string {
	return "e:" + source + "->" + target
}

// NodeIDs returns the node ids in element order.
func (e Elements) NodeIDs() []string {
	ids := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Positioned reports whether every node carries a position.
// An empty element set is never positioned.
func (e Elements) Positioned() bool {
	if len(e.Nodes) == 0 {
		return false
	}
	for _, n := range e.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can mutate positions freely.
func (e Elements) Clone() Elements {
	out := Elements{
		Nodes: make([]Node, len(e.Nodes)),
		Edges: slices.Clone(e.Edges),
	}
	for i, n := range e.Nodes {
		if n.Position != nil {
			p := *n.Position
			n.Position = &p
		}
		out.Nodes[i] = n
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// =============================================================================
// Frame - What a Surface Receives
// =============================================================================

// Frame is a snapshot published to a render surface.
type Frame struct {
	Revision  uint64   `json:"revision"`
	State     string   `json:"state"`
	Direction string   `json:"direction"`
	Elements  Elements `json:"elements"`
	Extent    Extent   `json:"extent"`
	Fit       bool     `json:"fit"`
}

// Empty reports whether the frame draws nothing.
func (f Frame) Empty() bool { return len(f.Elements.Nodes) == 0 }

// =============================================================================
// DAG → Elements Conversion
// =============================================================================

// FromDAG converts a parsed document graph into its wire format.
// Nodes are ordered by row, then by insertion order within a row, so the
// result is deterministic. No positions are set.
func FromDAG(g *dag.DAG) Elements {
	nodes := g.Nodes()
	slices.SortStableFunc(nodes, func(a, b *dag.Node) int {
		return cmp.Compare(a.Row, b.Row)
	})

	out := Elements{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for i, n := range nodes {
		out.Nodes[i] = nodeFromDAG(n)
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{ID: EdgeID(e.From, e.To), Source: e.From, Target: e.To})
	}
	return out
}

// nodeFromDAG is the single point of conversion for dag.Node values.
func nodeFromDAG(n *dag.Node) Node {
	node := Node{
		ID:   n.ID,
		Type: TypeDefault,
		Data: NodeData{
			Label: n.Label(),
			Kind:  n.Kind.String(),
		},
	}
	if n.IsContainer() || n.Row == 0 {
		node.Type = TypeSpecial
	}
	if s, ok := n.Meta[dag.MetaPath].(string); ok {
		node.Data.Path = s
	}
	if s, ok := n.Meta[dag.MetaValue].(string); ok {
		node.Data.Value = s
	}
	return node
}
