package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the given
// collection and id.
var ErrNotFound = errors.New("document not found")

// Filter is a field-equality predicate applied to top-level document fields.
type Filter struct {
	Field string
	Value interface{}
}

// Store is the document-store contract the services are written against.
// Operations are atomic per document but never across documents; bulk
// writes exist for delete only. Implementations must tolerate at-least-once
// delivery from callers (all writes are full-document overwrites or merges,
// so retries are safe).
type Store interface {
	// Get unmarshals the document into out, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, out interface{}) error

	// Set writes the document wholesale. With merge set, top-level fields
	// of doc are overlaid onto any existing document instead.
	Set(ctx context.Context, collection, id string, doc interface{}, merge bool) error

	// Delete removes the document. Deleting an absent document is not an
	// error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns the raw JSON of every document in the collection
	// matching all filters, ordered by the named top-level string/number
	// field when orderBy is non-empty, truncated to limit when limit > 0.
	Query(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([][]byte, error)

	// DeleteMany removes the listed documents from a collection in one
	// batch. Absent ids are skipped.
	DeleteMany(ctx context.Context, collection string, ids []string) error
}

// DecodeAll unmarshals every raw query result into a fresh T.
func DecodeAll[T any](raws [][]byte) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
