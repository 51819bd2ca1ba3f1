package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/jsonflow/pkg/dag"
)

func sampleDAG() *dag.DAG {
	g := dag.New(nil)
	g.AddNode(dag.Node{ID: "#", Kind: dag.NodeKindObject, Meta: dag.Metadata{dag.MetaLabel: "{2}", dag.MetaPath: "$", dag.MetaValueType: "object"}})
	g.AddNode(dag.Node{ID: "#/a", Row: 1, Meta: dag.Metadata{dag.MetaLabel: "a: 1", dag.MetaPath: "$.a", dag.MetaValueType: "number"}})
	g.AddNode(dag.Node{ID: "#/b", Row: 1, Meta: dag.Metadata{dag.MetaLabel: `b: "x"`, dag.MetaPath: "$.b", dag.MetaValueType: "string"}})
	g.AddEdge(dag.Edge{From: "#", To: "#/a"})
	g.AddEdge(dag.Edge{From: "#", To: "#/b"})
	return g
}

func TestToDOT(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		contains []string
		excludes []string
	}{
		{
			name: "defaults",
			opts: Options{},
			contains: []string{
				"digraph G {",
				"rankdir=TB;",
				`"#" [label="{2}", fillcolor="#e8eef7", penwidth=1.5];`,
				`"#/a" [label="a: 1"];`,
				`"#/b" [label="b: \"x\""];`,
				`"#" -> "#/a";`,
				`"#" -> "#/b";`,
			},
			excludes: []string{"fixedsize"},
		},
		{
			name:     "rank direction",
			opts:     Options{RankDir: "RL"},
			contains: []string{"rankdir=RL;"},
		},
		{
			name:     "unknown rank direction falls back",
			opts:     Options{RankDir: "XY"},
			contains: []string{"rankdir=TB;"},
		},
		{
			name:     "fixed size",
			opts:     Options{NodeWidth: 175, NodeHeight: 50},
			contains: []string{"fixedsize=true, width=2.4306, height=0.6944"},
		},
		{
			name:     "detailed",
			opts:     Options{Detailed: true},
			contains: []string{`label="a: 1\n$.a\n(number)"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := ToDOT(sampleDAG(), tt.opts)
			for _, want := range tt.contains {
				if !strings.Contains(dot, want) {
					t.Errorf("DOT missing %q:\n%s", want, dot)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(dot, bad) {
					t.Errorf("DOT should not contain %q", bad)
				}
			}
		})
	}
}

func TestToDOTStable(t *testing.T) {
	a := ToDOT(sampleDAG(), Options{RankDir: "LR"})
	b := ToDOT(sampleDAG(), Options{RankDir: "LR"})
	if a != b {
		t.Error("ToDOT output differs between calls")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleDAG(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
	if !bytes.Contains(svg, []byte(`viewBox="0 0 `)) {
		t.Error("viewBox not normalized")
	}
}

func TestRenderInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "not dot {"); err == nil {
		t.Error("expected error for invalid DOT")
	}
}

func TestNodeCenters(t *testing.T) {
	dot := ToDOT(sampleDAG(), Options{RankDir: "TB", NodeWidth: 175, NodeHeight: 50})
	centers, err := NodeCenters(context.Background(), dot)
	if err != nil {
		t.Fatalf("NodeCenters: %v", err)
	}
	if len(centers) != 3 {
		t.Fatalf("got %d centers, want 3: %v", len(centers), centers)
	}

	root, a, b := centers["#"], centers["#/a"], centers["#/b"]
	if root.Y >= a.Y || root.Y >= b.Y {
		t.Errorf("TB layout should put the root above its children: root=%v a=%v b=%v", root, a, b)
	}
	if a.Y != b.Y {
		t.Errorf("siblings should share a rank: a=%v b=%v", a, b)
	}
	if a.X == b.X {
		t.Errorf("siblings should not overlap: a=%v b=%v", a, b)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "normalizes",
			input: `<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`,
			want:  `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`,
		},
		{
			name:  "no viewBox",
			input: `<svg><g/></svg>`,
			want:  `<svg><g/></svg>`,
		},
		{
			name:  "zero size",
			input: `<svg viewBox="0 0 0 0"></svg>`,
			want:  `<svg viewBox="0 0 0 0"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(normalizeViewBox([]byte(tt.input)))
			if got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		x, y    float64
		wantErr bool
	}{
		{"84.5,27", 84.5, 27, false},
		{"10,20!", 10, 20, false},
		{"10", 0, 0, true},
		{"a,b", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			x, y, err := parsePoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (x != tt.x || y != tt.y) {
				t.Errorf("parsePoint(%q) = %v,%v, want %v,%v", tt.in, x, y, tt.x, tt.y)
			}
		})
	}
}
