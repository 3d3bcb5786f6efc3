package metrics

import "github.com/matzehuels/modelgraph/pkg/diagram"

// Area scores the bounding box of all node positions as (width + height)².
// Node sizes do not count. Smaller is better.
type Area struct{}

func (Area) Name() string { return "area" }

func (Area) Compute(g *diagram.MainGraph) float64 {
	ns := placedNodes(g)
	if len(ns) == 0 {
		return 0
	}
	p := ns[0].Visual.Position
	minX, minY, maxX, maxY := p.X, p.Y, p.X, p.Y
	for _, n := range ns[1:] {
		p := n.Visual.Position
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}
	s := (maxX - minX) + (maxY - minY)
	return s * s
}

func (m Area) ComputePerNode(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "node")
}

func (m Area) ComputePerEdge(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "edge")
}
