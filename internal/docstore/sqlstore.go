package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rootline/internal/database"
)

// SQLStore keeps documents in a single (collection, id, data) table through
// the dialect-aware database layer, so the same code runs on sqlite,
// postgres and mysql. Filtering and ordering happen application-side:
// JSON functions differ too much across the three dialects to push them
// into SQL, and collections here are small (per-user documents).
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a document store backed by the given database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get unmarshals the stored document into out, or returns ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	query := "SELECT data FROM documents WHERE collection = ? AND id = ?"
	var data string
	err := s.db.QueryRow(query, collection, id).Scan(&data)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Set writes the document wholesale, or overlays top-level fields when
// merge is set. The write is a single-row upsert, atomic per document.
func (s *SQLStore) Set(ctx context.Context, collection, id string, doc interface{}, merge bool) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	if merge {
		merged, err := s.mergeExisting(collection, id, payload)
		if err != nil {
			return err
		}
		payload = merged
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin document write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM documents WHERE collection = ? AND id = ?", collection, id); err != nil {
		return fmt.Errorf("failed to replace document %s/%s: %w", collection, id, err)
	}
	if _, err := tx.Exec("INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)", collection, id, string(payload)); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", collection, id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document write: %w", err)
	}
	return nil
}

// mergeExisting overlays the new payload's top-level fields onto the stored
// document, if any.
func (s *SQLStore) mergeExisting(collection, id string, payload []byte) ([]byte, error) {
	var existing string
	err := s.db.QueryRow("SELECT data FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&existing)
	if err == sql.ErrNoRows {
		return payload, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document for merge %s/%s: %w", collection, id, err)
	}

	var base map[string]json.RawMessage
	if err := json.Unmarshal([]byte(existing), &base); err != nil {
		return nil, fmt.Errorf("failed to decode document for merge %s/%s: %w", collection, id, err)
	}
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(payload, &overlay); err != nil {
		return nil, fmt.Errorf("failed to decode merge payload %s/%s: %w", collection, id, err)
	}
	for key, value := range overlay {
		base[key] = value
	}
	return json.Marshal(base)
}

// Delete removes a document; absent documents are a no-op.
func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.Exec("DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Query scans the collection and returns documents matching all filters.
func (s *SQLStore) Query(ctx context.Context, collection string, filters []Filter, orderBy string, limit int) ([][]byte, error) {
	rows, err := s.db.Query("SELECT data FROM documents WHERE collection = ?", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	defer rows.Close()

	var results [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		raw := []byte(data)
		ok, err := matchesFilters(raw, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, raw)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection %s: %w", collection, err)
	}

	sortResults(results, orderBy)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteMany removes documents in one batch write.
func (s *SQLStore) DeleteMany(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin batch delete: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM documents WHERE collection = ? AND id = ?", collection, id); err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch delete: %w", err)
	}
	return nil
}

// matchesFilters applies every filter against the document's top-level
// fields. JSON numbers compare as float64; everything else compares by its
// decoded value.
func matchesFilters(raw []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false, fmt.Errorf("failed to decode document for filtering: %w", err)
	}

	for _, f := range filters {
		value, ok := fields[f.Field]
		if !ok {
			return false, nil
		}
		if !filterEqual(value, f.Value) {
			return false, nil
		}
	}
	return true, nil
}

func filterEqual(a, b interface{}) bool {
	// JSON decodes all numbers to float64; normalize the filter side.
	if af, ok := a.(float64); ok {
		switch bv := b.(type) {
		case float64:
			return af == bv
		case int:
			return af == float64(bv)
		case int64:
			return af == float64(bv)
		}
		return false
	}
	return a == b
}

// sortResults orders documents by a top-level field. Strings sort
// lexically, numbers numerically; documents missing the field keep their
// scan order at the end.
func sortResults(results [][]byte, orderBy string) {
	if orderBy == "" {
		return
	}

	type keyed struct {
		raw  []byte
		str  string
		num  float64
		kind int // 0 missing, 1 string, 2 number
	}

	items := make([]keyed, len(results))
	for i, raw := range results {
		items[i] = keyed{raw: raw}
		var fields map[string]interface{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		switch v := fields[orderBy].(type) {
		case string:
			items[i].str = v
			items[i].kind = 1
		case float64:
			items[i].num = v
			items[i].kind = 2
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.kind != b.kind {
			return a.kind > b.kind
		}
		switch a.kind {
		case 1:
			return strings.Compare(a.str, b.str) < 0
		case 2:
			return a.num < b.num
		}
		return false
	})

	for i := range items {
		results[i] = items[i].raw
	}
}
