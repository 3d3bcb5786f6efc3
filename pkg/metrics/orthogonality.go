package metrics

import (
	"math"

	"github.com/matzehuels/modelgraph/pkg/diagram"
)

// DefaultAlignmentTolerance is the distance under which two coordinates
// count as aligned.
const DefaultAlignmentTolerance = 50.0

// NodeOrthogonality counts node pairs aligned on a horizontal or vertical
// axis, comparing both top-left and bottom-right corners.
type NodeOrthogonality struct {
	Tolerance float64
}

func (NodeOrthogonality) Name() string { return "node_orthogonality" }

func (m NodeOrthogonality) aligned(a, b diagram.Rect) bool {
	tol := m.Tolerance
	if tol <= 0 {
		tol = DefaultAlignmentTolerance
	}
	near := func(x, y float64) bool { return math.Abs(x-y) < tol }
	return near(a.X, b.X) || near(a.Y, b.Y) ||
		near(a.X+a.W, b.X+b.W) || near(a.Y+a.H, b.Y+b.H)
}

func (m NodeOrthogonality) Compute(g *diagram.MainGraph) float64 {
	ns := placedNodes(g)
	n := 0
	for i := range ns {
		for j := i + 1; j < len(ns); j++ {
			if m.aligned(ns[i].Visual.Rect(), ns[j].Visual.Rect()) {
				n++
			}
		}
	}
	return float64(n)
}

// ComputePerNode returns how many other nodes each node is aligned with.
func (m NodeOrthogonality) ComputePerNode(g *diagram.MainGraph) (map[string]float64, error) {
	ns := placedNodes(g)
	out := make(map[string]float64, len(ns))
	for i := range ns {
		out[ns[i].ID] += 0
		for j := i + 1; j < len(ns); j++ {
			if m.aligned(ns[i].Visual.Rect(), ns[j].Visual.Rect()) {
				out[ns[i].ID]++
				out[ns[j].ID]++
			}
		}
	}
	return out, nil
}

func (m NodeOrthogonality) ComputePerEdge(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "edge")
}
