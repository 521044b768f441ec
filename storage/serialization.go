package storage

import (
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/dragnet-io/dragnet/core"
)

// MarshalDocument encodes a document for storage.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	data, err := gojson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalDocument decodes a stored document.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var doc core.Document
	if err := gojson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalEntity encodes an entity for storage.
func MarshalEntity(entity *Entity) ([]byte, error) {
	data, err := gojson.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalEntity decodes a stored entity.
func UnmarshalEntity(data []byte) (*Entity, error) {
	var entity Entity
	if err := gojson.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entity, nil
}
