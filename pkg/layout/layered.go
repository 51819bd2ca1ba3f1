package layout

import (
	"context"
	"slices"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

// Default spacing of the layered engine, in pixels.
const (
	DefaultNodeSep = 50 // between neighbours in the same rank
	DefaultRankSep = 50 // between consecutive ranks
	DefaultPasses  = 8  // barycenter sweep pairs
)

// LayeredEngine is a native layered (Sugiyama-style) placement:
//
//  1. Ranks by longest path from the sources
//  2. Orders each rank with alternating barycenter sweeps, keeping the
//     ordering with the fewest edge crossings
//  3. Hands leaves consecutive slots and centers parents over their children
//
// Coordinates are computed top to bottom and then rotated or mirrored for
// the other directions.
type LayeredEngine struct {
	NodeSep float64
	RankSep float64
	Passes  int
}

// NewLayeredEngine returns a layered engine with default spacing.
func NewLayeredEngine() *LayeredEngine {
	return &LayeredEngine{NodeSep: DefaultNodeSep, RankSep: DefaultRankSep, Passes: DefaultPasses}
}

func (*LayeredEngine) Name() string { return EngineLayered }

func (e *LayeredEngine) Place(ctx context.Context, ws *Workspace) error {
	if ws.NodeCount() == 0 {
		return nil
	}
	g, err := ws.Graph()
	if err != nil {
		return err
	}

	orders := initialOrders(g)
	if err := e.reduceCrossings(ctx, g, orders); err != nil {
		return err
	}

	horizontal := ws.Direction().Horizontal()
	size := func(id string) (cross, rank float64) {
		n, _ := ws.Node(id)
		if horizontal {
			return n.Height, n.Width
		}
		return n.Width, n.Height
	}

	xs := e.assignCross(g, orders, size)
	ys, depth := e.assignRanks(g, orders, size)

	for _, n := range g.Nodes() {
		x, y := xs[n.ID], ys[n.ID]
		switch ws.Direction() {
		case BottomToTop:
			y = depth - y
		case LeftToRight:
			x, y = y, x
		case RightToLeft:
			x, y = depth-y, x
		}
		if err := ws.Place(n.ID, x, y); err != nil {
			return err
		}
	}
	return nil
}

func initialOrders(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string, g.RowCount())
	for _, r := range g.RowIDs() {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	return orders
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}

// reduceCrossings runs barycenter sweeps and leaves the best ordering found
// in orders. Ties keep the current relative order, so the result only
// depends on the input graph.
func (e *LayeredEngine) reduceCrossings(ctx context.Context, g *dag.DAG, orders map[int][]string) error {
	best := dag.CountCrossings(g, orders)
	if best == 0 {
		return nil
	}
	bestOrders := cloneOrders(orders)
	rows := g.RowIDs()

	for pass := 0; pass < e.Passes && best > 0; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := 1; i < len(rows); i++ {
			sortByBarycenter(orders, rows[i], rows[i-1], g.Parents)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			sortByBarycenter(orders, rows[i], rows[i+1], g.Children)
		}
		if c := dag.CountCrossings(g, orders); c < best {
			best = c
			bestOrders = cloneOrders(orders)
		}
	}

	clear(orders)
	for r, ids := range bestOrders {
		orders[r] = ids
	}
	return nil
}

// sortByBarycenter reorders row by the mean position of each node's
// neighbours in the fixed row. Nodes without neighbours there keep their
// current position as their weight.
func sortByBarycenter(orders map[int][]string, row, fixed int, neighbours func(string) []string) {
	pos := dag.PosMap(orders[fixed])
	ids := orders[row]
	weight := make(map[string]float64, len(ids))
	for i, id := range ids {
		sum, n := 0.0, 0
		for _, nb := range neighbours(id) {
			if p, ok := pos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		if n == 0 {
			weight[id] = float64(i)
		} else {
			weight[id] = sum / float64(n)
		}
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		switch wa, wb := weight[a], weight[b]; {
		case wa < wb:
			return -1
		case wa > wb:
			return 1
		}
		return 0
	})
}

// assignCross computes cross-axis centers. A depth-first walk in rank order
// hands every leaf the next slot from the left, and every parent is
// centered over the children it reached first. Slots are as wide as the
// widest box plus NodeSep, so nodes sharing a rank never overlap.
func (e *LayeredEngine) assignCross(g *dag.DAG, orders map[int][]string, size func(string) (float64, float64)) map[string]float64 {
	slot := 0.0
	for _, n := range g.Nodes() {
		w, _ := size(n.ID)
		slot = max(slot, w)
	}
	step := slot + e.NodeSep

	rank := make(map[string]int, g.NodeCount())
	for _, ids := range orders {
		for i, id := range ids {
			rank[id] = i
		}
	}

	xs := make(map[string]float64, g.NodeCount())
	visited := make(map[string]bool, g.NodeCount())
	next := 0

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		children := slices.Clone(g.Children(id))
		slices.SortStableFunc(children, func(a, b string) int {
			na, _ := g.Node(a)
			nb, _ := g.Node(b)
			if na.Row != nb.Row {
				return na.Row - nb.Row
			}
			return rank[a] - rank[b]
		})

		sum, n := 0.0, 0
		for _, c := range children {
			if visited[c] {
				continue
			}
			visit(c)
			sum += xs[c]
			n++
		}
		if n == 0 {
			xs[id] = slot/2 + float64(next)*step
			next++
			return
		}
		xs[id] = sum / float64(n)
	}

	for _, r := range g.RowIDs() {
		for _, id := range orders[r] {
			if !visited[id] {
				visit(id)
			}
		}
	}
	return xs
}

// assignRanks computes rank-axis centers. Each rank is as deep as its
// largest box. It also returns the total depth of the drawing.
func (e *LayeredEngine) assignRanks(g *dag.DAG, orders map[int][]string, size func(string) (float64, float64)) (map[string]float64, float64) {
	ys := make(map[string]float64, g.NodeCount())
	offset := 0.0
	for i, r := range g.RowIDs() {
		depth := 0.0
		for _, id := range orders[r] {
			_, h := size(id)
			depth = max(depth, h)
		}
		if i > 0 {
			offset += e.RankSep
		}
		for _, id := range orders[r] {
			ys[id] = offset + depth/2
		}
		offset += depth
	}
	return ys, offset
}
