package diagram

import (
	"fmt"
	"slices"
)

// Components partitions the generalization relation among the direct node
// members of graph parent into weakly connected components.
//
// Only live generalization edges whose endpoints are both direct node
// members of parent take part. Components are returned in the order their
// seed child was created; members of a component are sorted by NodeID.
func (g *MainGraph) Components(parent GraphID) [][]NodeID {
	if !g.validGraph(parent) {
		return nil
	}
	gr := &g.graphs[parent]

	parents := make(map[NodeID][]NodeID)
	children := make(map[NodeID][]NodeID)
	var seeds []NodeID
	for _, ep := range gr.members {
		if ep.IsGraph() {
			continue
		}
		child := ep.Node()
		for _, eid := range g.nodes[child].Generalization {
			e := &g.edges[eid]
			if e.End.IsGraph() || !gr.Contains(e.End) {
				continue
			}
			p := e.End.Node()
			if _, seen := parents[child]; !seen {
				seeds = append(seeds, child)
			}
			parents[child] = append(parents[child], p)
			children[p] = append(children[p], child)
		}
	}
	slices.Sort(seeds)

	comp := make(map[NodeID]int)
	var out [][]NodeID
	for _, seed := range seeds {
		if _, done := comp[seed]; done {
			continue
		}
		id := len(out)
		var members []NodeID
		stack := []NodeID{seed}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, done := comp[n]; done {
				continue
			}
			comp[n] = id
			members = append(members, n)
			for _, next := range parents[n] {
				if _, done := comp[next]; !done {
					stack = append(stack, next)
				}
			}
			for _, next := range children[n] {
				if _, done := comp[next]; !done {
					stack = append(stack, next)
				}
			}
		}
		slices.Sort(members)
		out = append(out, members)
	}
	return out
}

// GroupGeneralizations replaces every generalization component of graph
// parent with a dummy subgraph and returns the new subgraphs in creation
// order. Components with fewer than two members are left ungrouped.
func (g *MainGraph) GroupGeneralizations(parent GraphID) ([]GraphID, error) {
	if !g.validGraph(parent) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGraph, parent)
	}
	var created []GraphID
	for _, members := range g.Components(parent) {
		if len(members) < 2 {
			g.logger.Debug("skipping single-node component", "node", g.nodes[members[0]].ID)
			continue
		}
		sg, err := g.Group(parent, members)
		if err != nil {
			return created, err
		}
		created = append(created, sg)
	}
	return created, nil
}

// Group moves members out of graph parent into a new dummy subgraph and
// repairs every edge crossing the new boundary.
//
// Edges with both endpoints inside the subgraph are re-owned by it. An edge
// crossing the boundary is replaced by two halves that keep its entity,
// type and direction: "<id>#0" joins the outside endpoint and the subgraph
// and belongs to parent, "<id>#1" joins the subgraph and the inside member
// and belongs to the subgraph.
func (g *MainGraph) Group(parent GraphID, members []NodeID) (GraphID, error) {
	if !g.validGraph(parent) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownGraph, parent)
	}
	if len(members) == 0 {
		return 0, fmt.Errorf("%w: empty member set", ErrUnknownNode)
	}
	for _, m := range members {
		if m < 0 || int(m) >= len(g.nodes) || g.nodes[m].Graph != parent {
			return 0, fmt.Errorf("%w: %d is not a member of %s", ErrUnknownNode, m, g.graphs[parent].ID)
		}
	}

	sg := g.newSubgraph(parent, true)
	for _, m := range members {
		g.moveNode(m, sg)
	}

	inside := make(map[Endpoint]bool, len(members)+1)
	inside[GraphEndpoint(sg)] = true
	for _, m := range members {
		inside[NodeEndpoint(m)] = true
	}

	// Outgoing and incoming edges are repaired in two independent passes.
	for _, m := range members {
		for _, eid := range slices.Collect(g.nodes[m].Outgoing()) {
			if err := g.repair(eid, g.edges[eid].End, inside, parent, sg); err != nil {
				return sg, err
			}
		}
	}
	for _, m := range members {
		for _, eid := range slices.Collect(g.nodes[m].Incoming()) {
			if err := g.repair(eid, g.edges[eid].Start, inside, parent, sg); err != nil {
				return sg, err
			}
		}
	}

	g.logger.Debug("grouped generalization component",
		"subgraph", g.graphs[sg].ID, "parent", g.graphs[parent].ID, "members", len(members))
	return sg, nil
}

func (g *MainGraph) repair(eid EdgeID, other Endpoint, inside map[Endpoint]bool, parent, sg GraphID) error {
	e := &g.edges[eid]
	if e.removed {
		return nil
	}
	if inside[other] {
		e.Owner = sg
		return nil
	}
	return g.splitEdge(eid, parent, sg)
}

// splitEdge replaces a boundary-crossing edge with its outer and inner half.
func (g *MainGraph) splitEdge(eid EdgeID, parent, sg GraphID) error {
	orig := g.edges[eid]
	g.removeEdge(eid)

	sgEP := GraphEndpoint(sg)
	outer := EdgeSpec{ID: orig.ID + "#0", Type: orig.Type, Entity: orig.Entity, IsProfile: orig.IsProfile}
	inner := EdgeSpec{ID: orig.ID + "#1", Type: orig.Type, Entity: orig.Entity, IsProfile: orig.IsProfile}
	if g.nodeInside(orig.Start, sg) {
		// member -> outside
		outer.Start, outer.End = sgEP, orig.End
		inner.Start, inner.End = orig.Start, sgEP
	} else {
		// outside -> member
		outer.Start, outer.End = orig.Start, sgEP
		inner.Start, inner.End = sgEP, orig.End
	}

	if _, err := g.addEdge(outer, parent, eid); err != nil {
		return fmt.Errorf("split %s: %w", orig.ID, err)
	}
	if _, err := g.addEdge(inner, sg, eid); err != nil {
		return fmt.Errorf("split %s: %w", orig.ID, err)
	}
	return nil
}

func (g *MainGraph) nodeInside(ep Endpoint, sg GraphID) bool {
	return !ep.IsGraph() && g.nodes[ep.Index].Graph == sg
}

// Root returns the edge an edge was (possibly repeatedly) split from, or
// the edge itself.
func (g *MainGraph) Root(eid EdgeID) EdgeID {
	for g.edges[eid].Origin != noEdge {
		eid = g.edges[eid].Origin
	}
	return eid
}
