package extract

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/modelgraph/pkg/model"
)

// Kind discriminates extracted entities.
type Kind int

const (
	KindClass Kind = iota
	KindClassProfile
	KindRelationship
	KindRelationshipProfile
	KindGeneralization
	KindAttribute
)

var kindNames = [...]string{
	KindClass:               "class",
	KindClassProfile:        "class-profile",
	KindRelationship:        "relationship",
	KindRelationshipProfile: "relationship-profile",
	KindGeneralization:      "generalization",
	KindAttribute:           "attribute",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown entity kind %q", text)
}

// IsProfile reports whether the kind is one of the profile kinds.
func (k Kind) IsProfile() bool {
	return k == KindClassProfile || k == KindRelationshipProfile
}

// Ref identifies an extracted entity and the model it came from.
type Ref struct {
	ID      string
	Kind    Kind
	ModelID string
}

// Class is an extracted class or class profile.
type Class struct {
	Ref
	Entity model.Entity
}

// Profiling returns the identifiers this class profile profiles.
// It is empty for plain classes.
func (c Class) Profiling() []string { return c.Entity.Profiling }

// Relationship is an extracted relationship, relationship profile or
// attribute. Source is the concept of the first end, Target the concept of
// the second end (empty for attributes).
type Relationship struct {
	Ref
	Entity    model.Entity
	Source    string
	Target    string
	IsProfile bool
}

// Generalization is an extracted child→parent relation.
type Generalization struct {
	Ref
	Child  string
	Parent string
}

// Result holds the classified entities. Every slice is ordered by model
// order, then by entity identifier.
type Result struct {
	Classes              []Class
	ClassProfiles        []Class
	Relationships        []Relationship
	RelationshipProfiles []Relationship
	Generalizations      []Generalization
	Attributes           []Relationship

	// Unclassified lists entities whose type tag was not recognized.
	Unclassified []Ref

	classIndex map[string]int
	profIndex  map[string]int
}

// Extract classifies every entity of models.
func Extract(models []model.SemanticModel) Result {
	r := Result{
		classIndex: make(map[string]int),
		profIndex:  make(map[string]int),
	}
	for _, m := range models {
		for _, id := range slices.Sorted(maps.Keys(m.Entities)) {
			r.add(m.ID, m.Entities[id])
		}
	}
	return r
}

func (r *Result) add(modelID string, e model.Entity) {
	ref := Ref{ID: e.ID, ModelID: modelID}
	if ref.ID == "" {
		return
	}
	switch e.Type {
	case model.TypeClass:
		ref.Kind = KindClass
		if _, dup := r.classIndex[e.ID]; dup {
			return
		}
		r.classIndex[e.ID] = len(r.Classes)
		r.Classes = append(r.Classes, Class{Ref: ref, Entity: e})
	case model.TypeClassProfile:
		ref.Kind = KindClassProfile
		if _, dup := r.profIndex[e.ID]; dup {
			return
		}
		r.profIndex[e.ID] = len(r.ClassProfiles)
		r.ClassProfiles = append(r.ClassProfiles, Class{Ref: ref, Entity: e})
	case model.TypeRelationship, model.TypeRelationshipProfile:
		rel := Relationship{
			Ref:       ref,
			Entity:    e,
			Source:    e.End(0).Concept,
			Target:    e.End(1).Concept,
			IsProfile: e.Type == model.TypeRelationshipProfile,
		}
		switch {
		case IsAttribute(e):
			rel.Kind = KindAttribute
			r.Attributes = append(r.Attributes, rel)
		case rel.IsProfile:
			rel.Kind = KindRelationshipProfile
			r.RelationshipProfiles = append(r.RelationshipProfiles, rel)
		default:
			rel.Kind = KindRelationship
			r.Relationships = append(r.Relationships, rel)
		}
	case model.TypeGeneralization:
		ref.Kind = KindGeneralization
		r.Generalizations = append(r.Generalizations, Generalization{Ref: ref, Child: e.Child, Parent: e.Parent})
	default:
		r.Unclassified = append(r.Unclassified, ref)
	}
}

// IsAttribute reports whether a relationship entity is an attribute: its
// second end's concept reference is absent or empty.
func IsAttribute(e model.Entity) bool {
	return e.End(1).Concept == ""
}

// Class returns the extracted class with the given identifier.
func (r *Result) Class(id string) (Class, bool) {
	i, ok := r.classIndex[id]
	if !ok {
		return Class{}, false
	}
	return r.Classes[i], true
}

// ClassProfile returns the extracted class profile with the given identifier.
func (r *Result) ClassProfile(id string) (Class, bool) {
	i, ok := r.profIndex[id]
	if !ok {
		return Class{}, false
	}
	return r.ClassProfiles[i], true
}

// Concept resolves id against classes first, then class profiles.
func (r *Result) Concept(id string) (Class, bool) {
	if c, ok := r.Class(id); ok {
		return c, true
	}
	return r.ClassProfile(id)
}

// Count returns the total number of classified entities.
func (r *Result) Count() int {
	return len(r.Classes) + len(r.ClassProfiles) + len(r.Relationships) +
		len(r.RelationshipProfiles) + len(r.Generalizations) + len(r.Attributes)
}
