package diagram

import (
	"fmt"

	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/extract"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/observability"
)

// DanglingReference records an edge skipped during Build because one of
// its endpoints could not be resolved in the extracted model.
type DanglingReference struct {
	// EntityID is the relationship, generalization or profile that refers
	// to the missing entity.
	EntityID string       `json:"entity_id"`
	Kind     extract.Kind `json:"kind"`
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
}

func (d DanglingReference) String() string {
	return fmt.Sprintf("%s %s: %s -> %s (unresolved)", d.Kind, d.EntityID, d.SourceID, d.TargetID)
}

// Err reports the reference as an error coded
// [errors.ErrCodeDanglingReference]. Build never returns it; callers that
// treat unresolved references as fatal can.
func (d DanglingReference) Err() error {
	return errors.New(errors.ErrCodeDanglingReference, "%s %s refers to unknown entity %s", d.Kind, d.EntityID, d.TargetID)
}

// Build creates the diagram graph for ext, filtered by the visibility flags
// of vm. A nil vm keeps every class and class profile.
//
// Build never fails: references to entities that were not extracted are
// skipped and recorded, see [MainGraph.Dangling].
func Build(ext extract.Result, vm *model.VisualModel, opts ...Option) *MainGraph {
	b := &builder{
		g:        New(opts...),
		ext:      &ext,
		vm:       vm,
		rels:     make(map[string][]extract.Relationship),
		gens:     make(map[string][]extract.Generalization),
		attrs:    make(map[string][]extract.Relationship),
		known:    make(map[string]bool),
		visited:  make(map[string]bool),
		rejected: make(map[string]bool),
	}
	b.index()

	for _, c := range ext.Classes {
		b.visit(c)
	}
	for _, c := range ext.ClassProfiles {
		b.visit(c)
	}

	g := b.g
	g.logger.Debug("built graph",
		"nodes", g.NodeCount(), "edges", g.EdgeCount(), "dangling", len(g.dangling))
	observability.Build().OnGraphBuilt(g.NodeCount(), g.EdgeCount(), len(g.dangling))
	return g
}

type builder struct {
	g   *MainGraph
	ext *extract.Result
	vm  *model.VisualModel

	rels  map[string][]extract.Relationship
	gens  map[string][]extract.Generalization
	attrs map[string][]extract.Relationship

	// known holds every extracted entity id, concept or not.
	known map[string]bool

	visited  map[string]bool
	rejected map[string]bool
}

func (b *builder) index() {
	for _, r := range b.ext.Relationships {
		b.rels[r.Source] = append(b.rels[r.Source], r)
		b.known[r.ID] = true
	}
	for _, r := range b.ext.RelationshipProfiles {
		b.rels[r.Source] = append(b.rels[r.Source], r)
		b.known[r.ID] = true
	}
	for _, a := range b.ext.Attributes {
		b.attrs[a.Source] = append(b.attrs[a.Source], a)
		b.known[a.ID] = true
	}
	for _, gen := range b.ext.Generalizations {
		b.gens[gen.Child] = append(b.gens[gen.Child], gen)
		b.known[gen.ID] = true
	}
}

// visible applies the visual model filter. Missing visual entities fall
// back to the type default: concepts hidden, connections visible.
func (b *builder) visible(id string, concept bool) bool {
	if b.vm == nil {
		return true
	}
	ve, ok := b.vm.Lookup(id)
	if !ok {
		return !concept
	}
	return ve.Visible
}

// ensureNode returns the node for concept c, creating it on first
// reference. It returns false when c is filtered out.
func (b *builder) ensureNode(c extract.Class) (NodeID, bool) {
	if id, ok := b.g.nodeByID[c.ID]; ok {
		return id, true
	}
	if b.rejected[c.ID] {
		return 0, false
	}
	if !b.visible(c.ID, true) {
		b.rejected[c.ID] = true
		return 0, false
	}

	n := Node{
		ID:         c.ID,
		Kind:       NodeKindEntity,
		Entity:     c.Ref,
		IsProfile:  c.Kind == extract.KindClassProfile,
		Attributes: b.attrs[c.ID],
	}
	if ve, ok := b.vm.Lookup(c.ID); ok {
		n.Visual = &Visual{
			Position: ve.Position,
			Width:    ve.Width,
			Height:   ve.Height,
			Anchored: ve.Anchored,
		}
	}
	id, err := b.g.AddNode(n, MainGraphID)
	if err != nil {
		// A relationship or graph already uses the identifier.
		b.g.logger.Warn("skipping concept", "id", c.ID, "err", err)
		b.rejected[c.ID] = true
		return 0, false
	}
	return id, true
}

func (b *builder) visit(c extract.Class) {
	if b.visited[c.ID] {
		return
	}
	b.visited[c.ID] = true
	src, ok := b.ensureNode(c)
	if !ok {
		return
	}

	for _, r := range b.rels[c.ID] {
		b.connect(src, r.Ref, r.Target, EdgeRelationship, r.IsProfile, r.ID)
	}
	for _, gen := range b.gens[c.ID] {
		b.connect(src, gen.Ref, gen.Parent, EdgeGeneralization, false, gen.ID)
	}
	for _, target := range c.Profiling() {
		ref := extract.Ref{ID: c.ID, Kind: c.Kind, ModelID: c.ModelID}
		b.connect(src, ref, target, EdgeProfile, true, c.ID+"-profile-"+target)
	}
}

func (b *builder) connect(src NodeID, entity extract.Ref, target string, typ EdgeType, profile bool, edgeID string) {
	if typ != EdgeProfile && !b.visible(entity.ID, false) {
		return
	}
	if _, dup := b.g.edgeByID[edgeID]; dup {
		return
	}
	tc, ok := b.ext.Concept(target)
	if !ok {
		if b.known[target] {
			// Generalizations between relationships have no node to attach to.
			b.g.logger.Debug("skipping non-concept target", "entity", entity.ID, "target", target)
			return
		}
		b.dangling(entity, b.g.nodes[src].ID, target)
		return
	}
	dst, ok := b.ensureNode(tc)
	if !ok {
		return
	}
	spec := EdgeSpec{
		ID:        edgeID,
		Type:      typ,
		Entity:    entity,
		IsProfile: profile,
		Start:     NodeEndpoint(src),
		End:       NodeEndpoint(dst),
	}
	if _, err := b.g.AddEdge(spec, MainGraphID); err != nil {
		b.g.logger.Warn("skipping edge", "id", edgeID, "err", err)
	}
}

func (b *builder) dangling(entity extract.Ref, source, target string) {
	d := DanglingReference{
		EntityID: entity.ID,
		Kind:     entity.Kind,
		SourceID: source,
		TargetID: target,
	}
	b.g.dangling = append(b.g.dangling, d)
	b.g.logger.Warn("dangling reference", "source", source, "err", d.Err())
	observability.Build().OnDanglingReference(d.Kind.String(), source, target)
}
