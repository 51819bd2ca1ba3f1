package transform

import "github.com/matzehuels/jsonflow/pkg/dag"

// AssignLayers assigns nodes to rows with a longest-path pass over a
// topological order (Kahn's algorithm). Each node lands one row below the
// deepest of its parents:
//   - Source nodes (no incoming edges) are at row 0
//   - All parents are strictly above their children
//
// Existing row assignments are overwritten. Nodes are visited in insertion
// order so the result is deterministic.
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle never reach
// zero in-degree and keep row 0.
//
// Time complexity is O(V + E).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		degree := g.InDegree(n.ID)
		inDegree[n.ID] = degree
		rows[n.ID] = 0
		if degree == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
