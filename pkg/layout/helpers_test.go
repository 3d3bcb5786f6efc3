package layout

import (
	"context"
	"fmt"
	"testing"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
)

// newGraph builds a graph of classes with generalizations child->parent
// given as pairs, and relationships given as pairs.
func newGraph(t *testing.T, classes []string, gens, rels [][2]string) *diagram.MainGraph {
	t.Helper()
	m := model.SemanticModel{ID: "m", Entities: make(map[string]model.Entity)}
	for _, c := range classes {
		m.Entities[c] = model.Entity{ID: c, Type: model.TypeClass}
	}
	for i, p := range gens {
		id := fmt.Sprintf("g%d", i)
		m.Entities[id] = model.Entity{ID: id, Type: model.TypeGeneralization, Child: p[0], Parent: p[1]}
	}
	for i, p := range rels {
		id := fmt.Sprintf("r%d", i)
		m.Entities[id] = model.Entity{
			ID:   id,
			Type: model.TypeRelationship,
			Ends: []model.RelationshipEnd{{Concept: p[0]}, {Concept: p[1]}},
		}
	}
	g := diagram.Build(extract.Extract([]model.SemanticModel{m}), nil)
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	return g
}

// fakeBackend places item i at (100*i, 10*i) and records its calls.
type fakeBackend struct {
	calls  []Scope
	failOn int // 1-based call that fails, 0 never
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Layout(_ context.Context, s Scope) (Positions, error) {
	f.calls = append(f.calls, s)
	if f.failOn == len(f.calls) {
		return nil, fmt.Errorf("backend exploded")
	}
	pos := make(Positions, len(s.Items))
	for i, it := range s.Items {
		pos[it.ID] = model.Position{X: float64(100 * i), Y: float64(10 * i)}
	}
	return pos, nil
}

func blockOf(alg Algorithm) Block {
	return Block{Algorithm: alg, ShouldBeConsidered: true, ConstrainedNodes: SubsetAll}
}

func positionsOf(g *diagram.MainGraph) map[string]model.Position {
	out := make(map[string]model.Position)
	for _, nid := range g.AllNodes() {
		n := g.NodeAt(nid)
		if n.Visual != nil {
			out[n.ID] = n.Visual.Position
		}
	}
	return out
}
