package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

// PointsPerInch converts between Graphviz inches and surface pixels.
const PointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// RankDir is the Graphviz rank direction: TB, BT, LR or RL.
	RankDir string
	// NodeWidth and NodeHeight fix every node box to the given size in
	// pixels. Zero lets Graphviz size boxes to their labels.
	NodeWidth  float64
	NodeHeight float64
	// Detailed adds the JSONPath and value type below each label.
	Detailed bool
}

func (o Options) rankDir() string {
	switch o.RankDir {
	case "TB", "BT", "LR", "RL":
		return o.RankDir
	default:
		return "TB"
	}
}

// ToDOT converts a DAG to Graphviz DOT format. Nodes and edges are written
// in graph insertion order so the output is stable for a given document.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.rankDir())
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"")
	if opts.NodeWidth > 0 && opts.NodeHeight > 0 {
		fmt.Fprintf(&buf, ", fixedsize=true, width=%s, height=%s",
			inches(opts.NodeWidth), inches(opts.NodeHeight))
	}
	buf.WriteString("];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, opts.Detailed)
		attrs := fmtAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inches(px float64) string {
	return strconv.FormatFloat(px/PointsPerInch, 'f', 4, 64)
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.Label()
	}

	parts := []string{n.Label()}
	if p, ok := n.Meta[dag.MetaPath].(string); ok {
		parts = append(parts, p)
	}
	if t, ok := n.Meta[dag.MetaValueType].(string); ok {
		parts = append(parts, "("+t+")")
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsContainer() || n.Row == 0 {
		attrs = append(attrs, "fillcolor=\"#e8eef7\"", "penwidth=1.5")
	}
	return attrs
}

// Render runs Graphviz's dot engine over the DOT source and returns the
// output in the requested format.
func Render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// RenderSVG renders a DOT graph to SVG with a viewBox anchored at the origin.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := Render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

// RenderPNG renders a DOT graph to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return Render(ctx, dot, graphviz.PNG)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
