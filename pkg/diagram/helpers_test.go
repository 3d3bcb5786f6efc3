package diagram

import (
	"testing"

	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
)

func class(id string) model.Entity {
	return model.Entity{ID: id, Type: model.TypeClass}
}

func classProfile(id string, of ...string) model.Entity {
	return model.Entity{ID: id, Type: model.TypeClassProfile, Profiling: of}
}

func rel(id, from, to string) model.Entity {
	return model.Entity{
		ID:   id,
		Type: model.TypeRelationship,
		Ends: []model.RelationshipEnd{{Concept: from}, {Concept: to}},
	}
}

func attr(id, owner string) model.Entity {
	return model.Entity{
		ID:   id,
		Type: model.TypeRelationship,
		Ends: []model.RelationshipEnd{{Concept: owner}, {Name: id}},
	}
}

func isA(id, child, parent string) model.Entity {
	return model.Entity{ID: id, Type: model.TypeGeneralization, Child: child, Parent: parent}
}

func extractOf(entities ...model.Entity) extract.Result {
	m := model.SemanticModel{ID: "m1", Entities: make(map[string]model.Entity)}
	for _, e := range entities {
		m.Entities[e.ID] = e
	}
	return extract.Extract([]model.SemanticModel{m})
}

func buildOf(t *testing.T, entities ...model.Entity) *MainGraph {
	t.Helper()
	g := Build(extractOf(entities...), nil)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() after Build: %v", err)
	}
	return g
}

func mustNode(t *testing.T, g *MainGraph, id string) NodeID {
	t.Helper()
	n, ok := g.NodeID(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n
}

func mustEdge(t *testing.T, g *MainGraph, id string) *Edge {
	t.Helper()
	e, ok := g.Edge(id)
	if !ok {
		t.Fatalf("edge %q not found", id)
	}
	return e
}
