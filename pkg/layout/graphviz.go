package layout

import (
	"context"
	"fmt"

	"github.com/matzehuels/jsonflow/pkg/render/nodelink"
)

// GraphvizEngine places nodes with Graphviz's dot engine. Every node is
// drawn as a fixed box of the largest registered size and the rank
// direction is passed through as rankdir.
type GraphvizEngine struct{}

func (GraphvizEngine) Name() string { return EngineGraphviz }

func (GraphvizEngine) Place(ctx context.Context, ws *Workspace) error {
	if ws.NodeCount() == 0 {
		return nil
	}
	g, err := ws.Graph()
	if err != nil {
		return err
	}

	w, h := ws.MaxSize()
	dot := nodelink.ToDOT(g, nodelink.Options{
		RankDir:    ws.Direction().String(),
		NodeWidth:  w,
		NodeHeight: h,
	})

	centers, err := nodelink.NodeCenters(ctx, dot)
	if err != nil {
		return fmt.Errorf("graphviz: %w", err)
	}
	for _, n := range ws.Nodes() {
		c, ok := centers[n.ID]
		if !ok {
			return fmt.Errorf("graphviz: no position for node %s", n.ID)
		}
		if err := ws.Place(n.ID, c.X, c.Y); err != nil {
			return err
		}
	}
	return nil
}
