package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/modelgraph/pkg/errors"
)

// ReadModels decodes a models document and validates identifiers.
// Entity map keys must match the entity id when the id is set; an empty id
// is filled from the key.
func ReadModels(r io.Reader) ([]SemanticModel, error) {
	var doc Models
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode models")
	}
	if err := NormalizeModels(doc.Models); err != nil {
		return nil, err
	}
	return doc.Models, nil
}

// NormalizeModels fills missing entity ids from their map keys and rejects
// invalid identifiers. It mutates the entity maps in place.
func NormalizeModels(models []SemanticModel) error {
	for i := range models {
		m := &models[i]
		if err := errors.ValidateIdentifier("model", m.ID); err != nil {
			return err
		}
		for key, e := range m.Entities {
			if e.ID == "" {
				e.ID = key
				m.Entities[key] = e
			}
			if e.ID != key {
				return errors.New(errors.ErrCodeInvalidInput, "model %s: entity key %q does not match id %q", m.ID, key, e.ID)
			}
			if err := errors.ValidateIdentifier("entity", e.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadModelsFile reads a models document from a JSON file.
func ReadModelsFile(path string) ([]SemanticModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()
	return ReadModels(f)
}

// ReadVisualModel decodes a visual document. Entities without an id take
// their map key.
func ReadVisualModel(r io.Reader) (*VisualModel, error) {
	var vm VisualModel
	if err := json.NewDecoder(r).Decode(&vm); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode visual model")
	}
	if vm.Entities == nil {
		vm.Entities = make(map[string]VisualEntity)
	}
	for key, ve := range vm.Entities {
		if ve.ID == "" {
			ve.ID = key
		}
		if ve.SourceEntityID == "" {
			ve.SourceEntityID = key
		}
		vm.Entities[key] = ve
	}
	return &vm, nil
}

// ReadVisualModelFile reads a visual document from a JSON file.
func ReadVisualModelFile(path string) (*VisualModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()
	return ReadVisualModel(f)
}

// MarshalVisualModel serializes a visual model to pretty-printed JSON bytes.
func MarshalVisualModel(vm *VisualModel) ([]byte, error) {
	return json.MarshalIndent(vm, "", "  ")
}

// WriteVisualModel writes a visual model as JSON to w.
func WriteVisualModel(vm *VisualModel, w io.Writer) error {
	data, err := MarshalVisualModel(vm)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteVisualModelFile writes a visual model to a JSON file.
func WriteVisualModelFile(vm *VisualModel, path string) error {
	data, err := MarshalVisualModel(vm)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
