package metrics

import "github.com/matzehuels/modelgraph/pkg/diagram"

// EdgeNodeCollision scores how rarely edges run through nodes they do not
// connect: 1 − collisions / ((nodes − 2) · edges). Graphs too small for
// the denominator to be positive score 1.
type EdgeNodeCollision struct{}

func (EdgeNodeCollision) Name() string { return "edge_node_collision" }

type collision struct {
	edge string
	node string
}

func collisions(g *diagram.MainGraph) (hits []collision, nodes, edges int) {
	ns := placedNodes(g)
	es := placedEdges(g)
	for _, pe := range es {
		for _, n := range ns {
			id, _ := g.NodeID(n.ID)
			if pe.touches(diagram.NodeEndpoint(id)) {
				continue
			}
			if SegmentIntersectsRect(pe.seg, n.Visual.Rect()) {
				hits = append(hits, collision{edge: pe.e.ID, node: n.ID})
			}
		}
	}
	return hits, len(ns), len(es)
}

func (EdgeNodeCollision) Compute(g *diagram.MainGraph) float64 {
	hits, n, e := collisions(g)
	den := float64(n-2) * float64(e)
	if den <= 0 {
		return 1
	}
	return 1 - float64(len(hits))/den
}

// ComputePerNode returns how many edges pass through each node.
func (EdgeNodeCollision) ComputePerNode(g *diagram.MainGraph) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, n := range placedNodes(g) {
		out[n.ID] = 0
	}
	hits, _, _ := collisions(g)
	for _, h := range hits {
		out[h.node]++
	}
	return out, nil
}

// ComputePerEdge returns how many nodes each edge passes through.
func (EdgeNodeCollision) ComputePerEdge(g *diagram.MainGraph) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pe := range placedEdges(g) {
		out[pe.e.ID] = 0
	}
	hits, _, _ := collisions(g)
	for _, h := range hits {
		out[h.edge]++
	}
	return out, nil
}
