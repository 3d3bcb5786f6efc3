package diagram

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/modelgraph/pkg/model"
)

func TestGroupSiblingsUnderCommonParent(t *testing.T) {
	g := buildOf(t,
		class("A"), class("B"), class("C"),
		isA("g1", "B", "A"), isA("g2", "C", "A"), rel("r1", "B", "C"),
	)
	edgesBefore := g.EdgeCount()

	created, err := g.GroupGeneralizations(MainGraphID)
	if err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d subgraphs, want 1", len(created))
	}

	sg := g.GraphAt(created[0])
	if sg.ID != "subgraph-0" {
		t.Errorf("subgraph id = %q, want subgraph-0", sg.ID)
	}
	if !sg.IsDummy {
		t.Error("subgraph IsDummy = false, want true")
	}
	if _, ok := g.GraphAt(MainGraphID).Member("subgraph-0"); !ok {
		t.Error("subgraph-0 not in main graph membership")
	}
	for _, id := range []string{"A", "B", "C"} {
		if _, ok := sg.Member(id); !ok {
			t.Errorf("%s not in subgraph", id)
		}
		if _, ok := g.GraphAt(MainGraphID).Member(id); ok {
			t.Errorf("%s still a direct member of main", id)
		}
		if n, _ := g.Node(id); n.Graph != created[0] {
			t.Errorf("%s.Graph = %d, want %d", id, n.Graph, created[0])
		}
	}

	r := mustEdge(t, g, "r1")
	if r.IsSplit() || r.Owner != created[0] {
		t.Errorf("r1 split=%v owner=%d, want unsplit edge owned by subgraph", r.IsSplit(), r.Owner)
	}
	if _, ok := g.Edge("r1#0"); ok {
		t.Error("internal edge r1 was split")
	}
	if g.EdgeCount() != edgesBefore {
		t.Errorf("EdgeCount() = %d, want %d", g.EdgeCount(), edgesBefore)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGroupSplitsBoundaryEdges(t *testing.T) {
	g := buildOf(t,
		class("A"), class("B"), class("D"),
		isA("g1", "B", "A"), rel("r1", "D", "B"),
	)

	created, err := g.GroupGeneralizations(MainGraphID)
	if err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d subgraphs, want 1", len(created))
	}
	sg := created[0]
	orig := mustEdgeID(t, g, "r1")

	if _, ok := g.Edge("r1"); ok {
		t.Error("boundary edge r1 still live")
	}
	if !g.EdgeAt(orig).Removed() {
		t.Error("r1 not marked removed")
	}

	outer := mustEdge(t, g, "r1#0")
	if g.EndpointID(outer.Start) != "D" || g.EndpointID(outer.End) != "subgraph-0" || outer.Owner != MainGraphID {
		t.Errorf("r1#0 = %s->%s owner %d, want D->subgraph-0 owned by main",
			g.EndpointID(outer.Start), g.EndpointID(outer.End), outer.Owner)
	}
	inner := mustEdge(t, g, "r1#1")
	if g.EndpointID(inner.Start) != "subgraph-0" || g.EndpointID(inner.End) != "B" || inner.Owner != sg {
		t.Errorf("r1#1 = %s->%s owner %d, want subgraph-0->B owned by subgraph",
			g.EndpointID(inner.Start), g.EndpointID(inner.End), inner.Owner)
	}
	for _, e := range []*Edge{outer, inner} {
		if e.Entity.ID != "r1" || e.Type != EdgeRelationship {
			t.Errorf("%s entity=%s type=%s, want r1 relationship", e.ID, e.Entity.ID, e.Type)
		}
		if g.Root(mustEdgeID(t, g, e.ID)) != orig {
			t.Errorf("Root(%s) does not lead back to r1", e.ID)
		}
	}

	d := mustNode(t, g, "D")
	if n := g.NodeAt(d); n.Graph != MainGraphID {
		t.Errorf("D.Graph = %d, want main", n.Graph)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGroupOutgoingBoundaryEdge(t *testing.T) {
	g := buildOf(t,
		class("A"), class("B"), class("D"),
		isA("g1", "B", "A"), rel("r1", "B", "D"),
	)
	if _, err := g.GroupGeneralizations(MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}

	outer := mustEdge(t, g, "r1#0")
	if g.EndpointID(outer.Start) != "subgraph-0" || g.EndpointID(outer.End) != "D" {
		t.Errorf("r1#0 = %s->%s, want subgraph-0->D", g.EndpointID(outer.Start), g.EndpointID(outer.End))
	}
	inner := mustEdge(t, g, "r1#1")
	if g.EndpointID(inner.Start) != "B" || g.EndpointID(inner.End) != "subgraph-0" {
		t.Errorf("r1#1 = %s->%s, want B->subgraph-0", g.EndpointID(inner.Start), g.EndpointID(inner.End))
	}
}

func TestGroupCounterIsPerGraph(t *testing.T) {
	for range 2 {
		g := buildOf(t, class("A"), class("B"), isA("g1", "B", "A"))
		created, err := g.GroupGeneralizations(MainGraphID)
		if err != nil {
			t.Fatalf("GroupGeneralizations() error = %v", err)
		}
		if id := g.GraphAt(created[0]).ID; id != "subgraph-0" {
			t.Errorf("first subgraph id = %q, want subgraph-0", id)
		}
	}
}

func TestGroupMultipleComponents(t *testing.T) {
	g := buildOf(t,
		class("A"), class("B"), class("C"), class("D"), class("E"),
		isA("g1", "B", "A"), isA("g2", "D", "C"), rel("r1", "B", "D"),
	)
	created, err := g.GroupGeneralizations(MainGraphID)
	if err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d subgraphs, want 2", len(created))
	}
	if g.GraphAt(created[0]).ID != "subgraph-0" || g.GraphAt(created[1]).ID != "subgraph-1" {
		t.Errorf("ids = %s, %s; want subgraph-0, subgraph-1", g.GraphAt(created[0]).ID, g.GraphAt(created[1]).ID)
	}
	// r1 crosses out of the first group, then its outer half is split
	// again when the second group is formed.
	if _, ok := g.Edge("r1#0#0"); !ok {
		t.Error("r1#0#0 missing after second grouping")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestGroupSelfGeneralizationIsElided(t *testing.T) {
	g := buildOf(t, class("A"), isA("g1", "A", "A"))
	created, err := g.GroupGeneralizations(MainGraphID)
	if err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created %d subgraphs for a single node, want 0", len(created))
	}
}

func TestGroupRejectsForeignMembers(t *testing.T) {
	g := buildOf(t, class("A"), class("B"), isA("g1", "B", "A"))
	created, _ := g.GroupGeneralizations(MainGraphID)
	a := mustNode(t, g, "A")

	if _, err := g.Group(MainGraphID, []NodeID{a}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Group() error = %v, want %v", err, ErrUnknownNode)
	}
	if _, err := g.Group(created[0]+5, []NodeID{a}); !errors.Is(err, ErrUnknownGraph) {
		t.Errorf("Group() error = %v, want %v", err, ErrUnknownGraph)
	}
}

func mustEdgeID(t *testing.T, g *MainGraph, id string) EdgeID {
	t.Helper()
	for eid := range g.edges {
		if g.edges[eid].ID == id {
			return EdgeID(eid)
		}
	}
	t.Fatalf("edge %q not in arena", id)
	return 0
}

// randomModel builds n classes plus generalization and relationship edges
// picked from the (from, to) index pairs.
func randomModel(n int, gens, rels []int) []model.Entity {
	entities := make([]model.Entity, 0, n+len(gens)+len(rels))
	name := func(i int) string { return fmt.Sprintf("C%02d", i%n) }
	for i := range n {
		entities = append(entities, class(name(i)))
	}
	for i := 0; i+1 < len(gens); i += 2 {
		entities = append(entities, isA(fmt.Sprintf("g%d", i), name(gens[i]), name(gens[i+1])))
	}
	for i := 0; i+1 < len(rels); i += 2 {
		entities = append(entities, rel(fmt.Sprintf("r%d", i), name(rels[i]), name(rels[i+1])))
	}
	return entities
}

func TestGroupProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	indexes := gen.SliceOfN(12, gen.IntRange(0, 7))

	properties.Property("every generalized node ends up in exactly one subgraph", prop.ForAll(
		func(gens, rels []int) bool {
			g := Build(extractOf(randomModel(8, gens, rels)...), nil)
			generalized := make(map[NodeID]bool)
			for _, eid := range g.AllEdges() {
				e := g.EdgeAt(eid)
				if e.Type == EdgeGeneralization && e.Start != e.End {
					generalized[e.Start.Node()] = true
					generalized[e.End.Node()] = true
				}
			}
			created, err := g.GroupGeneralizations(MainGraphID)
			if err != nil || g.Validate() != nil {
				return false
			}
			owner := make(map[NodeID]GraphID)
			for _, sg := range created {
				for _, ep := range g.Members(sg) {
					if ep.IsGraph() {
						return false
					}
					if _, dup := owner[ep.Node()]; dup {
						return false
					}
					owner[ep.Node()] = sg
				}
			}
			for n := range generalized {
				if _, ok := owner[n]; !ok {
					return false
				}
			}
			return len(owner) == len(generalized)
		},
		indexes, indexes,
	))

	properties.Property("boundary edges are replaced by exactly two halves", prop.ForAll(
		func(gens, rels []int) bool {
			g := Build(extractOf(randomModel(8, gens, rels)...), nil)
			before := g.EdgeCount()
			if _, err := g.GroupGeneralizations(MainGraphID); err != nil {
				return false
			}
			removed := 0
			halves := 0
			for eid := range g.edges {
				e := &g.edges[eid]
				if e.Removed() {
					removed++
				}
				if e.IsSplit() && !e.Removed() {
					halves++
				}
			}
			// Each split removes one live edge and adds two.
			return g.EdgeCount() == before+removed && halves == 2*removed-countResplit(g)
		},
		indexes, indexes,
	))

	properties.TestingRun(t)
}

// countResplit counts split halves that were themselves split again.
func countResplit(g *MainGraph) int {
	n := 0
	for eid := range g.edges {
		e := &g.edges[eid]
		if e.IsSplit() && e.Removed() {
			n++
		}
	}
	return n
}
