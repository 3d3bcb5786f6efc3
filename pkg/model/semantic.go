package model

// Entity type tags understood by extraction. Any other tag is unclassifiable
// and silently ignored.
const (
	TypeClass               = "class"
	TypeClassProfile        = "class-profile"
	TypeRelationship        = "relationship"
	TypeRelationshipProfile = "relationship-profile"
	TypeGeneralization      = "generalization"
)

// RelationshipEnd is one end of a relationship. The first end is the source,
// the second the target. A target without a concept makes the relationship
// an attribute of its source.
type RelationshipEnd struct {
	Concept     string `json:"concept,omitempty"`
	Name        string `json:"name,omitempty"`
	Cardinality []int  `json:"cardinality,omitempty"`
}

// Entity is one semantic entity as stored in a semantic model.
//
// Only the fields relevant to its Type are populated: Ends for relationships
// and relationship profiles, Child and Parent for generalizations, Profiling
// for profiles.
type Entity struct {
	ID        string            `json:"id"`
	IRI       string            `json:"iri,omitempty"`
	Type      string            `json:"type"`
	Name      string            `json:"name,omitempty"`
	Ends      []RelationshipEnd `json:"ends,omitempty"`
	Child     string            `json:"child,omitempty"`
	Parent    string            `json:"parent,omitempty"`
	Profiling []string          `json:"profiling,omitempty"`
}

// End returns the i-th relationship end, or the zero end if it is missing.
func (e Entity) End(i int) RelationshipEnd {
	if i < 0 || i >= len(e.Ends) {
		return RelationshipEnd{}
	}
	return e.Ends[i]
}

// SemanticModel is a named collection of entities keyed by identifier.
type SemanticModel struct {
	ID       string            `json:"id"`
	Entities map[string]Entity `json:"entities"`
}

// Models is the document format for a list of semantic models.
// The order of Models is significant: extraction visits models in order.
type Models struct {
	Models []SemanticModel `json:"models"`
}
