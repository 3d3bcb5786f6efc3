package diagram

import (
	"iter"
	"slices"

	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
)

// NodeID indexes the node arena of a MainGraph.
type NodeID int

// EdgeID indexes the edge arena of a MainGraph.
type EdgeID int

// GraphID indexes the graph arena of a MainGraph. The main graph is always
// [MainGraphID].
type GraphID int

// MainGraphID is the id of the top-level graph.
const MainGraphID GraphID = 0

const noEdge EdgeID = -1

// EndpointKind tells whether an Endpoint refers to a node or a graph.
type EndpointKind uint8

const (
	EndpointNode EndpointKind = iota
	EndpointGraph
)

// Endpoint is either a node or a (sub)graph. Edges may terminate on both.
type Endpoint struct {
	Kind  EndpointKind
	Index int
}

// NodeEndpoint returns the endpoint for node n.
func NodeEndpoint(n NodeID) Endpoint { return Endpoint{Kind: EndpointNode, Index: int(n)} }

// GraphEndpoint returns the endpoint for graph g.
func GraphEndpoint(g GraphID) Endpoint { return Endpoint{Kind: EndpointGraph, Index: int(g)} }

// IsGraph reports whether the endpoint refers to a graph.
func (e Endpoint) IsGraph() bool { return e.Kind == EndpointGraph }

// Node returns the node id. Only meaningful when !IsGraph().
func (e Endpoint) Node() NodeID { return NodeID(e.Index) }

// Graph returns the graph id. Only meaningful when IsGraph().
func (e Endpoint) Graph() GraphID { return GraphID(e.Index) }

// EdgeType is the semantic classification of an edge. It decides which
// adjacency list the edge lives in; topology treats all types alike.
type EdgeType uint8

const (
	EdgeRelationship EdgeType = iota
	EdgeGeneralization
	EdgeProfile
)

func (t EdgeType) String() string {
	switch t {
	case EdgeRelationship:
		return "relationship"
	case EdgeGeneralization:
		return "generalization"
	case EdgeProfile:
		return "profile"
	}
	return "unknown"
}

// NodeKind distinguishes entity-backed nodes from structural ones.
type NodeKind uint8

const (
	// NodeKindEntity is backed by a class or class profile.
	NodeKindEntity NodeKind = iota
	// NodeKindDummy has no semantic entity and exists for layout only.
	NodeKindDummy
)

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y, W, H float64
}

// Center returns the geometric center of r.
func (r Rect) Center() model.Position {
	return model.Position{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Visual is the positioned payload of a node or graph.
type Visual struct {
	Position model.Position
	Width    float64
	Height   float64
	Anchored bool
}

// Rect returns the rectangle covered by v.
func (v Visual) Rect() Rect {
	return Rect{X: v.Position.X, Y: v.Position.Y, W: v.Width, H: v.Height}
}

// Adjacency holds the typed edge lists of a node or graph. Forward lists
// hold edges starting here, reverse lists edges ending here.
type Adjacency struct {
	Relationship   []EdgeID
	Generalization []EdgeID
	Profile        []EdgeID

	ReverseRelationship   []EdgeID
	ReverseGeneralization []EdgeID
	ReverseProfile        []EdgeID
}

func (a *Adjacency) forward(t EdgeType) *[]EdgeID {
	switch t {
	case EdgeGeneralization:
		return &a.Generalization
	case EdgeProfile:
		return &a.Profile
	}
	return &a.Relationship
}

func (a *Adjacency) reverse(t EdgeType) *[]EdgeID {
	switch t {
	case EdgeGeneralization:
		return &a.ReverseGeneralization
	case EdgeProfile:
		return &a.ReverseProfile
	}
	return &a.ReverseRelationship
}

// Outgoing iterates relationship, generalization and profile edges.
func (a *Adjacency) Outgoing() iter.Seq[EdgeID] {
	return chain(a.Relationship, a.Generalization, a.Profile)
}

// Incoming iterates the reverse lists in the same type order as Outgoing.
func (a *Adjacency) Incoming() iter.Seq[EdgeID] {
	return chain(a.ReverseRelationship, a.ReverseGeneralization, a.ReverseProfile)
}

// Edges iterates all six lists: the forward lists, then the reverse lists.
// The sequence is restartable and reflects the lists at iteration time.
func (a *Adjacency) Edges() iter.Seq[EdgeID] {
	return chain(a.Relationship, a.Generalization, a.Profile,
		a.ReverseRelationship, a.ReverseGeneralization, a.ReverseProfile)
}

// Degree returns the number of incident edges.
func (a *Adjacency) Degree() int {
	return len(a.Relationship) + len(a.Generalization) + len(a.Profile) +
		len(a.ReverseRelationship) + len(a.ReverseGeneralization) + len(a.ReverseProfile)
}

func (a Adjacency) clone() Adjacency {
	return Adjacency{
		Relationship:          slices.Clone(a.Relationship),
		Generalization:        slices.Clone(a.Generalization),
		Profile:               slices.Clone(a.Profile),
		ReverseRelationship:   slices.Clone(a.ReverseRelationship),
		ReverseGeneralization: slices.Clone(a.ReverseGeneralization),
		ReverseProfile:        slices.Clone(a.ReverseProfile),
	}
}

func chain(lists ...[]EdgeID) iter.Seq[EdgeID] {
	return func(yield func(EdgeID) bool) {
		for _, l := range lists {
			for _, id := range l {
				if !yield(id) {
					return
				}
			}
		}
	}
}

// Node is a vertex of the diagram: one class or class profile, or a dummy.
type Node struct {
	ID        string
	Kind      NodeKind
	Entity    extract.Ref
	IsProfile bool

	// Attributes are the relationships whose source end is this node and
	// whose target end has no concept. They are not edges.
	Attributes []extract.Relationship

	Adjacency

	// Visual is nil until the node has a position.
	Visual *Visual

	// Graph is the graph whose member set currently contains the node.
	Graph GraphID
}

// IsDummy reports whether the node has no semantic entity.
func (n *Node) IsDummy() bool { return n.Kind == NodeKindDummy }

// Edge connects two endpoints. Start and End carry the direction used for
// rendering semantics; adjacency bookkeeping stores the edge on both ends.
type Edge struct {
	ID        string
	Type      EdgeType
	Entity    extract.Ref
	IsProfile bool
	Start     Endpoint
	End       Endpoint

	// Owner is the graph the edge was inserted into.
	Owner GraphID

	// Origin is the edge this one was split from, or -1.
	Origin EdgeID

	Waypoints []model.Position

	removed bool
}

// Removed reports whether the edge was replaced by a split.
func (e *Edge) Removed() bool { return e.removed }

// IsSplit reports whether the edge is one half of a split edge.
func (e *Edge) IsSplit() bool { return e.Origin != noEdge }

// Graph is a container of nodes and subgraphs. A subgraph also acts as an
// edge endpoint, so it carries its own adjacency and visual payload.
type Graph struct {
	ID      string
	IsDummy bool
	Parent  GraphID

	members []Endpoint
	index   map[string]Endpoint

	Adjacency
	Visual *Visual
}

// IsMain reports whether g is the top-level graph.
func (g *Graph) IsMain() bool { return g.Parent < 0 }

// Len returns the number of direct members.
func (g *Graph) Len() int { return len(g.members) }

// Member looks up a direct member by identifier.
func (g *Graph) Member(id string) (Endpoint, bool) {
	ep, ok := g.index[id]
	return ep, ok
}

// Contains reports whether ep is a direct member of g.
func (g *Graph) Contains(ep Endpoint) bool {
	return slices.Contains(g.members, ep)
}
