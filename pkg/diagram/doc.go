// Package diagram builds the layout graph of a conceptual model.
//
// A [MainGraph] owns every [Node], [Edge] and [Graph] of one diagram in flat
// arenas addressed by integer ids ([NodeID], [EdgeID], [GraphID]). Graphs
// hold ordered member sets of [Endpoint] values, so nesting is expressed by
// index sets rather than owning references: moving a node into a subgraph is
// an update of two member sets and the node's Graph field, nothing else.
//
// # Two views
//
// The graph has a possibly nested view (the main graph contains nodes and
// subgraphs, subgraphs contain nodes) and a flat view: [MainGraph.AllNodes]
// and [MainGraph.AllEdges] list every node and live edge regardless of
// nesting depth. Metrics and the visual adapter work on the flat view;
// layout works level by level on the nested one.
//
// # Construction
//
// [Build] creates nodes for visible classes and class profiles, then walks
// their relationships, generalizations and profile links, creating target
// nodes lazily on first reference. References to entities that are not part
// of the extracted model are skipped and collected as [DanglingReference]
// records; the build itself never fails.
//
// # Generalization grouping
//
// [MainGraph.GroupGeneralizations] partitions the generalization relation
// into weakly connected components and replaces each component with a dummy
// subgraph. Every edge crossing the new boundary is split in two halves
// ("<id>#0" outside, "<id>#1" inside) that keep the semantic entity and type
// of the original edge.
//
// # Adjacency order
//
// Each node and graph keeps six adjacency lists. [Adjacency.Edges] visits
// them in a fixed order: relationship, generalization, profile, then reverse
// relationship, reverse generalization, reverse profile. Metrics depend on
// this order for reproducible results.
//
// MainGraph is not safe for concurrent use; each caller owns its instance.
package diagram
