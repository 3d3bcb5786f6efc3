package diagram

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	g := New()
	if _, err := g.AddNode(Node{ID: "a"}, MainGraphID); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	tests := []struct {
		name   string
		node   Node
		parent GraphID
		want   error
	}{
		{"empty id", Node{}, MainGraphID, ErrInvalidID},
		{"duplicate", Node{ID: "a"}, MainGraphID, ErrDuplicateID},
		{"clashes with graph", Node{ID: MainGraphName}, MainGraphID, ErrDuplicateID},
		{"unknown parent", Node{ID: "b"}, 7, ErrUnknownGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddNode(tt.node, tt.parent)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.want)
			}
		})
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{ID: "a"}, MainGraphID)
	b, _ := g.AddNode(Node{ID: "b"}, MainGraphID)

	id, err := g.AddEdge(EdgeSpec{ID: "ab", Type: EdgeGeneralization, Start: NodeEndpoint(a), End: NodeEndpoint(b)}, MainGraphID)
	if err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}

	if got := g.NodeAt(a).Generalization; !slices.Equal(got, []EdgeID{id}) {
		t.Errorf("start Generalization = %v, want [%d]", got, id)
	}
	if got := g.NodeAt(b).ReverseGeneralization; !slices.Equal(got, []EdgeID{id}) {
		t.Errorf("end ReverseGeneralization = %v, want [%d]", got, id)
	}
	if got := g.NodeAt(a).Relationship; len(got) != 0 {
		t.Errorf("start Relationship = %v, want empty", got)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}

	_, err = g.AddEdge(EdgeSpec{ID: "ab", Start: NodeEndpoint(a), End: NodeEndpoint(b)}, MainGraphID)
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate AddEdge() error = %v, want %v", err, ErrDuplicateID)
	}
	_, err = g.AddEdge(EdgeSpec{ID: "ax", Start: NodeEndpoint(a), End: NodeEndpoint(9)}, MainGraphID)
	if !errors.Is(err, ErrUnknownEndpoint) {
		t.Errorf("dangling AddEdge() error = %v, want %v", err, ErrUnknownEndpoint)
	}
}

func TestAdjacencyOrder(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{ID: "a"}, MainGraphID)
	b, _ := g.AddNode(Node{ID: "b"}, MainGraphID)
	add := func(id string, typ EdgeType, from, to NodeID) EdgeID {
		eid, err := g.AddEdge(EdgeSpec{ID: id, Type: typ, Start: NodeEndpoint(from), End: NodeEndpoint(to)}, MainGraphID)
		if err != nil {
			t.Fatalf("AddEdge(%s) error = %v", id, err)
		}
		return eid
	}
	p := add("p", EdgeProfile, a, b)
	gz := add("g", EdgeGeneralization, a, b)
	r := add("r", EdgeRelationship, a, b)
	rr := add("rr", EdgeRelationship, b, a)

	got := slices.Collect(g.NodeAt(a).Edges())
	want := []EdgeID{r, gz, p, rr}
	if !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	if d := g.NodeAt(a).Degree(); d != 4 {
		t.Errorf("Degree() = %d, want 4", d)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := buildOf(t, class("A"), class("B"), isA("g1", "B", "A"))
	a := mustNode(t, g, "A")
	g.SetVisual(NodeEndpoint(a), Visual{Width: 10, Height: 10})

	c := g.Clone()
	if _, err := c.GroupGeneralizations(MainGraphID); err != nil {
		t.Fatalf("GroupGeneralizations() error = %v", err)
	}
	c.NodeAt(a).Visual.Position.X = 99

	if g.GraphCount() != 1 {
		t.Errorf("original GraphCount() = %d, want 1", g.GraphCount())
	}
	if got := g.NodeAt(a).Visual.Position.X; got != 0 {
		t.Errorf("original X = %v, want 0", got)
	}
	if got := g.NodeAt(a).Graph; got != MainGraphID {
		t.Errorf("original node graph = %d, want main", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("original Validate() = %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("clone Validate() = %v", err)
	}
}

func TestEndpointOf(t *testing.T) {
	g := buildOf(t, class("A"))
	ep, ok := g.EndpointOf("A")
	if !ok || ep.IsGraph() {
		t.Errorf("EndpointOf(A) = %v, %v; want node", ep, ok)
	}
	ep, ok = g.EndpointOf(MainGraphName)
	if !ok || !ep.IsGraph() || ep.Graph() != MainGraphID {
		t.Errorf("EndpointOf(main) = %v, %v; want main graph", ep, ok)
	}
	if _, ok := g.EndpointOf("missing"); ok {
		t.Error("EndpointOf(missing) found an endpoint")
	}
}

func TestCenter(t *testing.T) {
	g := New()
	a, _ := g.AddNode(Node{ID: "a", Visual: &Visual{Width: 20, Height: 10}}, MainGraphID)
	b, _ := g.AddNode(Node{ID: "b"}, MainGraphID)

	c, ok := g.Center(NodeEndpoint(a))
	if !ok || c.X != 10 || c.Y != 5 {
		t.Errorf("Center(a) = %v, %v; want {10 5}, true", c, ok)
	}
	if _, ok := g.Center(NodeEndpoint(b)); ok {
		t.Error("Center(b) reported a position for a node without visual")
	}
}
