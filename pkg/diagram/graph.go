package diagram

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
)

var (
	// ErrInvalidID is returned when a node, edge or graph id is empty.
	ErrInvalidID = errors.New("identifier must not be empty")

	// ErrDuplicateID is returned when an identifier is already used by a
	// node, edge or graph of the same MainGraph.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrUnknownNode is returned when a node id is not registered or is not
	// a direct member of the graph an operation targets.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownGraph is returned when a GraphID is out of range.
	ErrUnknownGraph = errors.New("unknown graph")

	// ErrUnknownEndpoint is returned by AddEdge when an endpoint is not
	// registered in the MainGraph.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")

	// ErrCorrupt is returned by Validate when an invariant does not hold.
	ErrCorrupt = errors.New("graph invariant violated")
)

// MainGraphName is the identifier of the top-level graph.
const MainGraphName = "main"

// MainGraph owns every node, edge and graph of one diagram.
//
// The zero value is not usable; create instances with [New] or [Build].
type MainGraph struct {
	nodes  []Node
	edges  []Edge
	graphs []Graph

	// allEdges lists live edges in insertion order.
	allEdges []EdgeID

	nodeByID  map[string]NodeID
	edgeByID  map[string]EdgeID
	graphByID map[string]GraphID

	dangling    []DanglingReference
	subgraphSeq int
	logger      *log.Logger
}

// Option configures a MainGraph.
type Option func(*MainGraph)

// WithLogger sets the logger used for construction and grouping diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *MainGraph) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates an empty MainGraph containing only the top-level graph.
func New(opts ...Option) *MainGraph {
	g := &MainGraph{
		nodeByID:  make(map[string]NodeID),
		edgeByID:  make(map[string]EdgeID),
		graphByID: map[string]GraphID{MainGraphName: MainGraphID},
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
	}
	g.graphs = append(g.graphs, Graph{
		ID:     MainGraphName,
		Parent: -1,
		index:  make(map[string]Endpoint),
	})
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Logger returns the logger attached to the graph.
func (g *MainGraph) Logger() *log.Logger { return g.logger }

// NodeCount returns the number of nodes, including nodes moved into subgraphs.
func (g *MainGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of live edges.
func (g *MainGraph) EdgeCount() int { return len(g.allEdges) }

// GraphCount returns the number of graphs including the main graph.
func (g *MainGraph) GraphCount() int { return len(g.graphs) }

// AllNodes returns every node id in creation order.
func (g *MainGraph) AllNodes() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// AllEdges returns the live edge ids in insertion order.
func (g *MainGraph) AllEdges() []EdgeID { return slices.Clone(g.allEdges) }

// NodeAt returns the node with the given id. It panics if id is out of range.
func (g *MainGraph) NodeAt(id NodeID) *Node { return &g.nodes[id] }

// EdgeAt returns the edge with the given id, live or removed.
func (g *MainGraph) EdgeAt(id EdgeID) *Edge { return &g.edges[id] }

// GraphAt returns the graph with the given id.
func (g *MainGraph) GraphAt(id GraphID) *Graph { return &g.graphs[id] }

// Node looks up a node by identifier.
func (g *MainGraph) Node(id string) (*Node, bool) {
	i, ok := g.nodeByID[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// NodeID looks up the arena id of a node identifier.
func (g *MainGraph) NodeID(id string) (NodeID, bool) {
	i, ok := g.nodeByID[id]
	return i, ok
}

// Edge looks up a live edge by identifier.
func (g *MainGraph) Edge(id string) (*Edge, bool) {
	i, ok := g.edgeByID[id]
	if !ok {
		return nil, false
	}
	return &g.edges[i], true
}

// Graph looks up a graph by identifier.
func (g *MainGraph) Graph(id string) (*Graph, bool) {
	i, ok := g.graphByID[id]
	if !ok {
		return nil, false
	}
	return &g.graphs[i], true
}

// GraphID looks up the arena id of a graph identifier.
func (g *MainGraph) GraphID(id string) (GraphID, bool) {
	i, ok := g.graphByID[id]
	return i, ok
}

// Members returns the direct members of graph gid in insertion order.
func (g *MainGraph) Members(gid GraphID) []Endpoint {
	if !g.validGraph(gid) {
		return nil
	}
	return slices.Clone(g.graphs[gid].members)
}

// Subgraphs returns the direct child graphs of gid.
func (g *MainGraph) Subgraphs(gid GraphID) []GraphID {
	if !g.validGraph(gid) {
		return nil
	}
	var out []GraphID
	for _, ep := range g.graphs[gid].members {
		if ep.IsGraph() {
			out = append(out, ep.Graph())
		}
	}
	return out
}

// Dangling returns the references skipped during construction.
func (g *MainGraph) Dangling() []DanglingReference { return slices.Clone(g.dangling) }

// EndpointID returns the identifier of the node or graph behind ep.
func (g *MainGraph) EndpointID(ep Endpoint) string {
	if ep.IsGraph() {
		return g.graphs[ep.Index].ID
	}
	return g.nodes[ep.Index].ID
}

// Adjacency returns the adjacency lists of the node or graph behind ep.
func (g *MainGraph) Adjacency(ep Endpoint) *Adjacency {
	if ep.IsGraph() {
		return &g.graphs[ep.Index].Adjacency
	}
	return &g.nodes[ep.Index].Adjacency
}

// VisualOf returns the visual payload of ep, or nil.
func (g *MainGraph) VisualOf(ep Endpoint) *Visual {
	if ep.IsGraph() {
		return g.graphs[ep.Index].Visual
	}
	return g.nodes[ep.Index].Visual
}

// SetVisual replaces the visual payload of ep.
func (g *MainGraph) SetVisual(ep Endpoint, v Visual) {
	if ep.IsGraph() {
		g.graphs[ep.Index].Visual = &v
		return
	}
	g.nodes[ep.Index].Visual = &v
}

// Bounds returns the rectangle of ep, and false when it has no position.
func (g *MainGraph) Bounds(ep Endpoint) (Rect, bool) {
	v := g.VisualOf(ep)
	if v == nil {
		return Rect{}, false
	}
	return v.Rect(), true
}

// Center returns the center of ep's rectangle, and false when it has no
// position.
func (g *MainGraph) Center(ep Endpoint) (model.Position, bool) {
	r, ok := g.Bounds(ep)
	if !ok {
		return model.Position{}, false
	}
	return r.Center(), true
}

// EndpointOf resolves a node or graph identifier. Nodes win over graphs.
func (g *MainGraph) EndpointOf(id string) (Endpoint, bool) {
	if n, ok := g.nodeByID[id]; ok {
		return NodeEndpoint(n), true
	}
	if gr, ok := g.graphByID[id]; ok {
		return GraphEndpoint(gr), true
	}
	return Endpoint{}, false
}

// ParentOf returns the graph directly containing ep.
func (g *MainGraph) ParentOf(ep Endpoint) GraphID {
	if ep.IsGraph() {
		return g.graphs[ep.Index].Parent
	}
	return g.nodes[ep.Index].Graph
}

// AddNode registers n as a direct member of graph parent.
func (g *MainGraph) AddNode(n Node, parent GraphID) (NodeID, error) {
	if n.ID == "" {
		return 0, ErrInvalidID
	}
	if !g.validGraph(parent) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownGraph, parent)
	}
	if g.idTaken(n.ID) {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	id := NodeID(len(g.nodes))
	n.Graph = parent
	g.nodes = append(g.nodes, n)
	g.nodeByID[n.ID] = id
	g.graphs[parent].add(n.ID, NodeEndpoint(id))
	return id, nil
}

// EdgeSpec describes an edge to insert with AddEdge.
type EdgeSpec struct {
	ID        string
	Type      EdgeType
	Entity    extract.Ref
	IsProfile bool
	Start     Endpoint
	End       Endpoint
}

// AddEdge inserts an edge owned by graph owner. The edge goes into one
// forward list of the start endpoint, the parallel reverse list of the end
// endpoint, and once into the flat edge list.
func (g *MainGraph) AddEdge(spec EdgeSpec, owner GraphID) (EdgeID, error) {
	return g.addEdge(spec, owner, noEdge)
}

func (g *MainGraph) addEdge(spec EdgeSpec, owner GraphID, origin EdgeID) (EdgeID, error) {
	if spec.ID == "" {
		return 0, ErrInvalidID
	}
	if !g.validGraph(owner) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownGraph, owner)
	}
	if !g.validEndpoint(spec.Start) || !g.validEndpoint(spec.End) {
		return 0, fmt.Errorf("%w: edge %s", ErrUnknownEndpoint, spec.ID)
	}
	if _, dup := g.edgeByID[spec.ID]; dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateID, spec.ID)
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{
		ID:        spec.ID,
		Type:      spec.Type,
		Entity:    spec.Entity,
		IsProfile: spec.IsProfile,
		Start:     spec.Start,
		End:       spec.End,
		Owner:     owner,
		Origin:    origin,
	})
	g.edgeByID[spec.ID] = id
	g.allEdges = append(g.allEdges, id)

	fwd := g.Adjacency(spec.Start).forward(spec.Type)
	*fwd = append(*fwd, id)
	rev := g.Adjacency(spec.End).reverse(spec.Type)
	*rev = append(*rev, id)
	return id, nil
}

// removeEdge detaches an edge from both endpoints and the flat list. The
// arena slot stays so split halves can refer to their origin.
func (g *MainGraph) removeEdge(id EdgeID) {
	e := &g.edges[id]
	if e.removed {
		return
	}
	e.removed = true
	drop := func(s []EdgeID) []EdgeID {
		return slices.DeleteFunc(s, func(x EdgeID) bool { return x == id })
	}
	fwd := g.Adjacency(e.Start).forward(e.Type)
	*fwd = drop(*fwd)
	rev := g.Adjacency(e.End).reverse(e.Type)
	*rev = drop(*rev)
	g.allEdges = drop(g.allEdges)
	delete(g.edgeByID, e.ID)
}

// newSubgraph creates an empty graph and inserts it into parent's members
// under the next free "subgraph-<n>" identifier.
func (g *MainGraph) newSubgraph(parent GraphID, dummy bool) GraphID {
	var name string
	for {
		name = fmt.Sprintf("subgraph-%d", g.subgraphSeq)
		g.subgraphSeq++
		if !g.idTaken(name) {
			break
		}
	}
	id := GraphID(len(g.graphs))
	g.graphs = append(g.graphs, Graph{
		ID:      name,
		IsDummy: dummy,
		Parent:  parent,
		index:   make(map[string]Endpoint),
	})
	g.graphByID[name] = id
	g.graphs[parent].add(name, GraphEndpoint(id))
	return id
}

// moveNode moves n from its current graph into graph to, updating both
// member sets and the node's Graph field together.
func (g *MainGraph) moveNode(n NodeID, to GraphID) {
	node := &g.nodes[n]
	if node.Graph == to {
		return
	}
	g.graphs[node.Graph].remove(node.ID)
	g.graphs[to].add(node.ID, NodeEndpoint(n))
	node.Graph = to
}

func (g *MainGraph) idTaken(id string) bool {
	if _, ok := g.nodeByID[id]; ok {
		return true
	}
	_, ok := g.graphByID[id]
	return ok
}

func (g *MainGraph) validGraph(id GraphID) bool {
	return id >= 0 && int(id) < len(g.graphs)
}

func (g *MainGraph) validEndpoint(ep Endpoint) bool {
	if ep.IsGraph() {
		return g.validGraph(ep.Graph())
	}
	return ep.Index >= 0 && ep.Index < len(g.nodes)
}

func (gr *Graph) add(id string, ep Endpoint) {
	gr.members = append(gr.members, ep)
	gr.index[id] = ep
}

func (gr *Graph) remove(id string) {
	ep, ok := gr.index[id]
	if !ok {
		return
	}
	delete(gr.index, id)
	gr.members = slices.DeleteFunc(gr.members, func(x Endpoint) bool { return x == ep })
}

// Clone returns an independent deep copy. Mutating the copy, including
// visuals, adjacency and membership, never affects g.
func (g *MainGraph) Clone() *MainGraph {
	c := &MainGraph{
		nodes:       make([]Node, len(g.nodes)),
		edges:       make([]Edge, len(g.edges)),
		graphs:      make([]Graph, len(g.graphs)),
		allEdges:    slices.Clone(g.allEdges),
		nodeByID:    maps.Clone(g.nodeByID),
		edgeByID:    maps.Clone(g.edgeByID),
		graphByID:   maps.Clone(g.graphByID),
		dangling:    slices.Clone(g.dangling),
		subgraphSeq: g.subgraphSeq,
		logger:      g.logger,
	}
	for i, n := range g.nodes {
		n.Adjacency = n.Adjacency.clone()
		n.Attributes = slices.Clone(n.Attributes)
		n.Visual = cloneVisual(n.Visual)
		c.nodes[i] = n
	}
	for i, e := range g.edges {
		e.Waypoints = slices.Clone(e.Waypoints)
		c.edges[i] = e
	}
	for i, gr := range g.graphs {
		gr.Adjacency = gr.Adjacency.clone()
		gr.members = slices.Clone(gr.members)
		gr.index = maps.Clone(gr.index)
		gr.Visual = cloneVisual(gr.Visual)
		c.graphs[i] = gr
	}
	return c
}

func cloneVisual(v *Visual) *Visual {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
