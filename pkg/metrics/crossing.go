package metrics

import (
	"math"

	"github.com/matzehuels/modelgraph/pkg/diagram"
)

// DefaultIdealAngle is the crossing angle, in degrees, scored as perfect.
const DefaultIdealAngle = 70.0

// forEachCrossing visits every crossing between outgoing edges of two
// distinct nodes, once from each side. Edges sharing an endpoint never
// cross.
func forEachCrossing(g *diagram.MainGraph, fn func(a, b placedEdge)) {
	var outgoing [][]placedEdge
	for _, nid := range g.AllNodes() {
		var own []placedEdge
		for eid := range g.NodeAt(nid).Outgoing() {
			if pe, ok := place(g, eid); ok {
				own = append(own, pe)
			}
		}
		outgoing = append(outgoing, own)
	}
	for i := range outgoing {
		for j := range outgoing {
			if i == j {
				continue
			}
			for _, a := range outgoing[i] {
				for _, b := range outgoing[j] {
					if a.id == b.id || a.sharesEndpoint(b) {
						continue
					}
					if SegmentsIntersect(a.seg, b.seg) {
						fn(a, b)
					}
				}
			}
		}
	}
}

// EdgeCrossing counts pairs of crossing edges.
type EdgeCrossing struct{}

func (EdgeCrossing) Name() string { return "edge_crossing" }

// Compute returns the number of crossings.
func (EdgeCrossing) Compute(g *diagram.MainGraph) float64 {
	n := 0
	forEachCrossing(g, func(_, _ placedEdge) { n++ })
	return float64(n) / 2
}

func (m EdgeCrossing) ComputePerNode(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "node")
}

// ComputePerEdge returns, for every positioned outgoing edge, the number of
// edges it crosses.
func (EdgeCrossing) ComputePerEdge(g *diagram.MainGraph) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pe := range placedEdges(g) {
		out[pe.e.ID] = 0
	}
	forEachCrossing(g, func(a, _ placedEdge) { out[a.e.ID]++ })
	return out, nil
}

// CrossingAngle scores how close crossing angles are to the ideal angle:
// 1 − Σ|ideal − angle| / (crossings · ideal). Angles are folded to at most
// 90 degrees. Without crossings the score is 1.
type CrossingAngle struct {
	Ideal float64
}

func (CrossingAngle) Name() string { return "crossing_angle" }

func (m CrossingAngle) Compute(g *diagram.MainGraph) float64 {
	ideal := m.Ideal
	if ideal <= 0 {
		ideal = DefaultIdealAngle
	}
	crossings := 0
	deviation := 0.0
	forEachCrossing(g, func(a, b placedEdge) {
		angle := AngleBetween(a.seg, b.seg)
		if angle > 90 {
			angle = 180 - angle
		}
		deviation += math.Abs(ideal - angle)
		crossings++
	})
	if crossings == 0 {
		return 1
	}
	return 1 - deviation/(float64(crossings)*ideal)
}

func (m CrossingAngle) ComputePerNode(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "node")
}

func (m CrossingAngle) ComputePerEdge(*diagram.MainGraph) (map[string]float64, error) {
	return nil, unsupported(m, "edge")
}
