// Package metrics scores positioned diagrams with aesthetic quality
// measures.
//
// Every [Metric] computes a whole-graph scalar. Some also break the value
// down per node or per edge; the others return [ErrUnsupported] rather
// than an empty map, so callers can tell "no data" from "not offered".
//
// All metrics are read-only and look at straight segments between the
// centers of edge endpoints. Nodes and edges without a position are
// ignored.
//
// # Usage
//
//	report := metrics.Evaluate(g, metrics.Default()...)
//	for _, r := range report.Results {
//	    fmt.Printf("%-22s %8.3f\n", r.Name, r.Value)
//	}
package metrics
