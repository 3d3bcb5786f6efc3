package metrics

import (
	"fmt"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/observability"
)

// ErrUnsupported is returned by breakdowns a metric does not offer.
var ErrUnsupported = errors.New(errors.ErrCodeUnsupported, "metric breakdown not supported")

// Metric is one layout quality measure.
type Metric interface {
	Name() string
	Compute(g *diagram.MainGraph) float64
	ComputePerNode(g *diagram.MainGraph) (map[string]float64, error)
	ComputePerEdge(g *diagram.MainGraph) (map[string]float64, error)
}

func unsupported(m Metric, what string) error {
	return fmt.Errorf("%s per %s: %w", m.Name(), what, ErrUnsupported)
}

// Default returns every metric of this package in report order.
func Default() []Metric {
	return []Metric{
		EdgeCrossing{},
		EdgeNodeCollision{},
		NodeOrthogonality{Tolerance: DefaultAlignmentTolerance},
		Area{},
		CrossingAngle{Ideal: DefaultIdealAngle},
	}
}

// Result is one computed metric value.
type Result struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Report holds metric values in evaluation order.
type Report struct {
	Results []Result `json:"results"`
}

// Get returns the value of the named metric.
func (r Report) Get(name string) (float64, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res.Value, true
		}
	}
	return 0, false
}

// Map returns the values keyed by metric name.
func (r Report) Map() map[string]float64 {
	out := make(map[string]float64, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Value
	}
	return out
}

// Evaluate computes each metric on g and reports it to the metric hooks.
func Evaluate(g *diagram.MainGraph, ms ...Metric) Report {
	r := Report{Results: make([]Result, 0, len(ms))}
	for _, m := range ms {
		v := m.Compute(g)
		observability.Metrics().OnMetricComputed(m.Name(), v)
		r.Results = append(r.Results, Result{Name: m.Name(), Value: v})
	}
	return r
}

// placedEdge is a live edge with both endpoints positioned.
type placedEdge struct {
	id  diagram.EdgeID
	e   *diagram.Edge
	seg Segment
}

func (p placedEdge) touches(ep diagram.Endpoint) bool {
	return p.e.Start == ep || p.e.End == ep
}

func (p placedEdge) sharesEndpoint(q placedEdge) bool {
	return p.touches(q.e.Start) || p.touches(q.e.End)
}

func place(g *diagram.MainGraph, id diagram.EdgeID) (placedEdge, bool) {
	e := g.EdgeAt(id)
	a, ok := g.Center(e.Start)
	if !ok {
		return placedEdge{}, false
	}
	b, ok := g.Center(e.End)
	if !ok {
		return placedEdge{}, false
	}
	return placedEdge{id: id, e: e, seg: Segment{A: a, B: b}}, true
}

// placedEdges returns every live positioned edge in insertion order.
func placedEdges(g *diagram.MainGraph) []placedEdge {
	var out []placedEdge
	for _, id := range g.AllEdges() {
		if pe, ok := place(g, id); ok {
			out = append(out, pe)
		}
	}
	return out
}

// placedNodes returns positioned entity nodes in creation order.
func placedNodes(g *diagram.MainGraph) []*diagram.Node {
	var out []*diagram.Node
	for _, id := range g.AllNodes() {
		n := g.NodeAt(id)
		if n.Visual != nil && !n.IsDummy() {
			out = append(out, n)
		}
	}
	return out
}
