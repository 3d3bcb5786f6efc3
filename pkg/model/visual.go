package model

// Position is a top-left coordinate in diagram space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VisualEntity is the visual state of one semantic entity.
type VisualEntity struct {
	ID               string   `json:"id"`
	VisualID         string   `json:"visual_id,omitempty"`
	SourceEntityID   string   `json:"source_entity_id,omitempty"`
	Visible          bool     `json:"visible"`
	Position         Position `json:"position"`
	Width            float64  `json:"width,omitempty"`
	Height           float64  `json:"height,omitempty"`
	Anchored         bool     `json:"anchored,omitempty"`
	HiddenAttributes []string `json:"hidden_attributes"`
}

// VisualModel is a snapshot of visual entities keyed by source entity id.
type VisualModel struct {
	Entities map[string]VisualEntity `json:"entities"`
}

// NewVisualModel returns an empty visual model.
func NewVisualModel() *VisualModel {
	return &VisualModel{Entities: make(map[string]VisualEntity)}
}

// Lookup returns the visual entity for id. It is safe to call on a nil model.
func (vm *VisualModel) Lookup(id string) (VisualEntity, bool) {
	if vm == nil || vm.Entities == nil {
		return VisualEntity{}, false
	}
	ve, ok := vm.Entities[id]
	return ve, ok
}

// Set stores ve under id, initialising the map if needed.
func (vm *VisualModel) Set(id string, ve VisualEntity) {
	if vm.Entities == nil {
		vm.Entities = make(map[string]VisualEntity)
	}
	vm.Entities[id] = ve
}
