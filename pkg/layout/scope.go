package layout

import (
	"context"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/model"
)

// Item is one sized box a backend places: a node or a collapsed subgraph.
type Item struct {
	ID       string
	Endpoint diagram.Endpoint
	Width    float64
	Height   float64

	// Position is the current top-left corner, valid when HasPosition.
	Position    model.Position
	HasPosition bool

	// Anchored items must keep Position.
	Anchored bool
}

// Link joins two items of a scope by index.
type Link struct {
	ID     string
	Type   diagram.EdgeType
	Source int
	Target int
}

// Scope is the flat input of one backend call.
type Scope struct {
	// Name identifies the laid-out graph in logs.
	Name  string
	Block Block
	Seed  uint64
	Items []Item
	Links []Link
}

// Positions maps item ids to new top-left corners.
type Positions map[string]model.Position

// Backend computes positions for a scope. Implementations must not mutate
// the scope and must report, not hide, failures.
type Backend interface {
	Name() string
	Layout(ctx context.Context, s Scope) (Positions, error)
}

// scopeBuilder collects items and de-duplicated links for one scope.
type scopeBuilder struct {
	scope Scope
	index map[diagram.Endpoint]int
	links map[string]bool
}

func newScopeBuilder(name string, b Block, seed uint64) *scopeBuilder {
	return &scopeBuilder{
		scope: Scope{Name: name, Block: b, Seed: seed},
		index: make(map[diagram.Endpoint]int),
		links: make(map[string]bool),
	}
}

func (sb *scopeBuilder) addItem(it Item) {
	if _, ok := sb.index[it.Endpoint]; ok {
		return
	}
	sb.index[it.Endpoint] = len(sb.scope.Items)
	sb.scope.Items = append(sb.scope.Items, it)
}

// addLink adds an edge between two in-scope endpoints when the block's
// subset admits its type. Self loops and out-of-scope edges are dropped.
func (sb *scopeBuilder) addLink(id string, typ diagram.EdgeType, from, to diagram.Endpoint) {
	if !admits(sb.scope.Block.Subset(), typ) || sb.links[id] {
		return
	}
	s, ok := sb.index[from]
	if !ok {
		return
	}
	t, ok := sb.index[to]
	if !ok || s == t {
		return
	}
	sb.links[id] = true
	sb.scope.Links = append(sb.scope.Links, Link{ID: id, Type: typ, Source: s, Target: t})
}

func admits(s Subset, typ diagram.EdgeType) bool {
	switch s {
	case SubsetGeneralization:
		return typ == diagram.EdgeGeneralization
	case SubsetProfile:
		return typ == diagram.EdgeProfile
	}
	return true
}

// bounds returns the bounding box of positioned items.
func bounds(items []Item, pos Positions) diagram.Rect {
	first := true
	var minX, minY, maxX, maxY float64
	for _, it := range items {
		p, ok := pos[it.ID]
		if !ok {
			continue
		}
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.X+it.Width, p.Y+it.Height
			first = false
			continue
		}
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X+it.Width)
		maxY = max(maxY, p.Y+it.Height)
	}
	return diagram.Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
