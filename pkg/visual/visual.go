// Package visual converts positioned diagram graphs back into visual
// entities.
package visual

import (
	"github.com/google/uuid"

	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/model"
)

// IDGenerator mints visual identifiers.
type IDGenerator func() string

type options struct {
	newID IDGenerator
}

// Option configures FromGraph.
type Option func(*options)

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// FromGraph returns one visible entity per non-dummy node, keyed by the
// node's entity identifier. Nodes without a position are placed at the
// origin with zero size.
func FromGraph(g *diagram.MainGraph, opts ...Option) map[string]model.VisualEntity {
	o := options{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}

	out := make(map[string]model.VisualEntity, g.NodeCount())
	for _, id := range g.AllNodes() {
		n := g.NodeAt(id)
		if n.IsDummy() {
			continue
		}
		ve := model.VisualEntity{
			ID:               n.ID,
			VisualID:         o.newID(),
			SourceEntityID:   n.Entity.ID,
			Visible:          true,
			HiddenAttributes: []string{},
		}
		if ve.SourceEntityID == "" {
			ve.SourceEntityID = n.ID
		}
		if v := n.Visual; v != nil {
			ve.Position = v.Position
			ve.Width = v.Width
			ve.Height = v.Height
			ve.Anchored = v.Anchored
		}
		out[n.ID] = ve
	}
	return out
}

// ToVisualModel wraps FromGraph into a visual model document.
func ToVisualModel(g *diagram.MainGraph, opts ...Option) *model.VisualModel {
	return &model.VisualModel{Entities: FromGraph(g, opts...)}
}
