package model

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/modelgraph/pkg/errors"
)

func TestReadModels(t *testing.T) {
	doc := `{"models":[{"id":"vocab","entities":{
		"person":{"type":"class"},
		"knows":{"id":"knows","type":"relationship","ends":[{"concept":"person"},{"concept":"person"}]}
	}}]}`

	models, err := ReadModels(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadModels: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("len(models) = %d, want 1", len(models))
	}
	if got := models[0].Entities["person"].ID; got != "person" {
		t.Errorf("person id = %q, want filled from key", got)
	}
	if got := models[0].Entities["knows"].End(1).Concept; got != "person" {
		t.Errorf("knows target = %q, want person", got)
	}
	if got := models[0].Entities["knows"].End(5); got.Concept != "" {
		t.Errorf("End(5) = %+v, want zero end", got)
	}
}

func TestReadModelsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Malformed", `{"models":`},
		{"EmptyModelID", `{"models":[{"id":"","entities":{}}]}`},
		{"KeyMismatch", `{"models":[{"id":"m","entities":{"a":{"id":"b","type":"class"}}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadModels(strings.NewReader(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("ReadModels error = %v, want code %s", err, errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestVisualModelRoundTrip(t *testing.T) {
	vm := NewVisualModel()
	vm.Set("person", VisualEntity{
		ID:               "person",
		SourceEntityID:   "person",
		Visible:          true,
		Position:         Position{X: 10, Y: 20},
		Width:            100,
		Height:           50,
		Anchored:         true,
		HiddenAttributes: []string{},
	})

	path := filepath.Join(t.TempDir(), "visual.json")
	if err := WriteVisualModelFile(vm, path); err != nil {
		t.Fatalf("WriteVisualModelFile: %v", err)
	}
	got, err := ReadVisualModelFile(path)
	if err != nil {
		t.Fatalf("ReadVisualModelFile: %v", err)
	}
	ve, ok := got.Lookup("person")
	if !ok {
		t.Fatal("person missing after round trip")
	}
	if ve.Position != (Position{X: 10, Y: 20}) || !ve.Anchored || !ve.Visible {
		t.Errorf("person = %+v, want position (10,20), anchored, visible", ve)
	}
}

func TestReadVisualModelFillsIDs(t *testing.T) {
	vm, err := ReadVisualModel(bytes.NewBufferString(`{"entities":{"a":{"visible":true}}}`))
	if err != nil {
		t.Fatalf("ReadVisualModel: %v", err)
	}
	ve, _ := vm.Lookup("a")
	if ve.ID != "a" || ve.SourceEntityID != "a" {
		t.Errorf("ids = %q/%q, want a/a", ve.ID, ve.SourceEntityID)
	}
}

func TestLookupNilModel(t *testing.T) {
	var vm *VisualModel
	if _, ok := vm.Lookup("x"); ok {
		t.Error("Lookup on nil model reported a hit")
	}
}
