package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// Center is a node center in pixels with the origin at the top-left corner.
type Center struct {
	X, Y float64
}

// NodeCenters lays out the DOT source with the dot engine and returns every
// node's center, keyed by node name.
//
// Graphviz reports positions with the origin at the bottom-left of the
// bounding box. NodeCenters flips the y axis so the result matches screen
// coordinates.
func NodeCenters(ctx context.Context, dot string) (map[string]Center, error) {
	laid, err := Render(ctx, dot, graphviz.XDOT)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g, err := graphviz.ParseBytes(bytes.TrimSpace(laid))
	if err != nil {
		return nil, fmt.Errorf("parse laid out DOT: %w", err)
	}
	defer g.Close()

	_, _, _, top, err := parseBox(g.GetStr("bb"))
	if err != nil {
		return nil, fmt.Errorf("bounding box: %w", err)
	}

	centers := make(map[string]Center)
	n, err := g.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr != nil {
			return nil, fmt.Errorf("node name: %w", nerr)
		}
		x, y, perr := parsePoint(n.GetStr("pos"))
		if perr != nil {
			return nil, fmt.Errorf("node %s: %w", name, perr)
		}
		centers[name] = Center{X: x, Y: top - y}
		n, err = g.NextNode(n)
	}
	if err != nil {
		return nil, fmt.Errorf("walk nodes: %w", err)
	}
	return centers, nil
}

// parsePoint parses a Graphviz point such as "84.5,27" or "84.5,27!".
func parsePoint(s string) (x, y float64, err error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "!")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("invalid point %q", s)
	}
	if x, err = strconv.ParseFloat(xs, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	if y, err = strconv.ParseFloat(ys, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return x, y, nil
}

// parseBox parses a Graphviz rectangle "llx,lly,urx,ury".
func parseBox(s string) (llx, lly, urx, ury float64, err error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("invalid box %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		if vals[i], err = strconv.ParseFloat(p, 64); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid box %q: %w", s, err)
		}
	}
	return vals[0], vals[1], vals[2], vals[3], nil
}
