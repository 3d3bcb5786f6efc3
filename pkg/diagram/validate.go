package diagram

import (
	"fmt"
	"slices"
)

// Validate checks the structural invariants of the graph:
//   - every node is a direct member of exactly one graph, and its Graph
//     field names that graph;
//   - every subgraph's Parent lists it as a member;
//   - the id registries resolve to the right arena slots;
//   - every live edge has resolvable endpoints and sits in the matching
//     forward and reverse adjacency lists.
//
// It returns an error wrapping [ErrCorrupt] describing the first violation.
func (g *MainGraph) Validate() error {
	seen := make(map[NodeID]GraphID, len(g.nodes))
	for gid := range g.graphs {
		gr := &g.graphs[gid]
		if gid != int(MainGraphID) {
			if !g.validGraph(gr.Parent) || !g.graphs[gr.Parent].Contains(GraphEndpoint(GraphID(gid))) {
				return fmt.Errorf("%w: graph %s not listed by its parent", ErrCorrupt, gr.ID)
			}
		}
		if len(gr.index) != len(gr.members) {
			return fmt.Errorf("%w: graph %s index out of sync", ErrCorrupt, gr.ID)
		}
		for _, ep := range gr.members {
			if !g.validEndpoint(ep) {
				return fmt.Errorf("%w: graph %s has invalid member", ErrCorrupt, gr.ID)
			}
			if ep.IsGraph() {
				continue
			}
			n := ep.Node()
			if prev, dup := seen[n]; dup {
				return fmt.Errorf("%w: node %s in graphs %s and %s",
					ErrCorrupt, g.nodes[n].ID, g.graphs[prev].ID, gr.ID)
			}
			seen[n] = GraphID(gid)
			if g.nodes[n].Graph != GraphID(gid) {
				return fmt.Errorf("%w: node %s source graph mismatch", ErrCorrupt, g.nodes[n].ID)
			}
		}
	}
	if len(seen) != len(g.nodes) {
		return fmt.Errorf("%w: %d nodes belong to no graph", ErrCorrupt, len(g.nodes)-len(seen))
	}

	for i, n := range g.nodes {
		if id, ok := g.nodeByID[n.ID]; !ok || id != NodeID(i) {
			return fmt.Errorf("%w: node registry mismatch for %s", ErrCorrupt, n.ID)
		}
	}
	for i, gr := range g.graphs {
		if id, ok := g.graphByID[gr.ID]; !ok || id != GraphID(i) {
			return fmt.Errorf("%w: graph registry mismatch for %s", ErrCorrupt, gr.ID)
		}
	}

	for _, eid := range g.allEdges {
		e := &g.edges[eid]
		if e.removed {
			return fmt.Errorf("%w: removed edge %s still listed", ErrCorrupt, e.ID)
		}
		if !g.validEndpoint(e.Start) || !g.validEndpoint(e.End) {
			return fmt.Errorf("%w: edge %s has unresolvable endpoint", ErrCorrupt, e.ID)
		}
		if !slices.Contains(*g.Adjacency(e.Start).forward(e.Type), eid) {
			return fmt.Errorf("%w: edge %s missing from start adjacency", ErrCorrupt, e.ID)
		}
		if !slices.Contains(*g.Adjacency(e.End).reverse(e.Type), eid) {
			return fmt.Errorf("%w: edge %s missing from end adjacency", ErrCorrupt, e.ID)
		}
	}
	return nil
}
