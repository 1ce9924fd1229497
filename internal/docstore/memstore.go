package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors SQLStore's semantics exactly, including merge behavior and
// application-side filtering.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // collection -> id -> raw document
}

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]map[string][]byte)}
}

// Get unmarshals the stored document into out, or returns ErrNotFound.
func (s *MemStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set writes the document wholesale, or overlays top-level fields when
// merge is set.
func (s *MemStore) Set(ctx context.Context, collection, id string, doc interface{}, merge bool) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}

	if merge {
		if existing, ok := s.data[collection][id]; ok {
			var base map[string]json.RawMessage
			if err := json.Unmarshal(existing, &base); err != nil {
				return fmt.Errorf("failed to decode document for merge %s/%s: %w", collection, id, err)
			}
			var overlay map[string]json.RawMessage
			if err := json.Unmarshal(payload, &overlay); err != nil {
				return fmt.Errorf("failed to decode merge payload %s/%s: %w", collection, id, err)
			}
			for key, value := range overlay {
				base[key] = value
			}
			payload, err = json.Marshal(base)
			if err != nil {
				return fmt.Errorf("failed to encode merged document %s/%s: %w", collection, id, err)
			}
		}
	}

	s.data[collection][id] = payload
	return nil
}

// Delete removes a document; absent documents are a no-op.
func (s *MemStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[collection], id)
	return nil
}

// Query returns documents matching all filters.
func (s *MemStore) Query(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([][]byte, error) {
	s.mu.RLock()
	var results [][]byte
	for _, raw := range s.data[collection] {
		ok, err := matchesFilters(raw, filters)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if ok {
			results = append(results, append([]byte(nil), raw...))
		}
	}
	s.mu.RUnlock()

	sortResults(results, orderBy)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteMany removes the listed documents in one pass.
func (s *MemStore) DeleteMany(ctx context.Context, collection string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.data[collection], id)
	}
	return nil
}

// Len reports how many documents a collection holds.
func (s *MemStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[collection])
}
