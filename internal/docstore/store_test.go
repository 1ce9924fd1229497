package docstore

import (
	"context"
	"testing"
)

type testDoc struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Rank  int    `json:"rank"`
}

func TestMemStoreGetSet(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if err := store.Get(ctx, "docs", "missing", &testDoc{}); err != ErrNotFound {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	in := testDoc{ID: "a", Owner: "1", Rank: 3}
	if err := store.Set(ctx, "docs", "a", in, false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "docs", "a", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out != in {
		t.Errorf("Get() = %+v, want %+v", out, in)
	}
}

func TestMemStoreSetOverwrites(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if err := store.Set(ctx, "docs", "a", testDoc{ID: "a", Owner: "1", Rank: 1}, false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "docs", "a", testDoc{ID: "a", Owner: "2", Rank: 2}, false); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "docs", "a", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Owner != "2" || out.Rank != 2 {
		t.Errorf("expected the later write to win in full, got %+v", out)
	}
}

func TestMemStoreMerge(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	if err := store.Set(ctx, "docs", "a", map[string]interface{}{"id": "a", "owner": "1", "rank": 5}, false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "docs", "a", map[string]interface{}{"rank": 9}, true); err != nil {
		t.Fatalf("merge Set() error = %v", err)
	}

	var out testDoc
	if err := store.Get(ctx, "docs", "a", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.Owner != "1" {
		t.Errorf("merge dropped untouched field, got %+v", out)
	}
	if out.Rank != 9 {
		t.Errorf("merge did not overlay rank, got %+v", out)
	}
}

func TestMemStoreQueryFiltersAndOrder(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	docs := []testDoc{
		{ID: "a", Owner: "1", Rank: 3},
		{ID: "b", Owner: "1", Rank: 1},
		{ID: "c", Owner: "2", Rank: 2},
	}
	for _, d := range docs {
		if err := store.Set(ctx, "docs", d.ID, d, false); err != nil {
			t.Fatalf("Set(%s) error = %v", d.ID, err)
		}
	}

	raws, err := store.Query(ctx, "docs", []Filter{{Field: "owner", Value: "1"}}, "rank", 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	results, err := DecodeAll[testDoc](raws)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "b" || results[1].ID != "a" {
		t.Errorf("expected rank order b,a; got %s,%s", results[0].ID, results[1].ID)
	}

	limited, err := store.Query(ctx, "docs", nil, "rank", 2)
	if err != nil {
		t.Fatalf("Query(limit) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected limit to cap results at 2, got %d", len(limited))
	}
}

func TestMemStoreDelete(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, "docs", id, testDoc{ID: id}, false); err != nil {
			t.Fatalf("Set(%s) error = %v", id, err)
		}
	}

	// Deleting an absent document is not an error
	if err := store.Delete(ctx, "docs", "nope"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}

	if err := store.DeleteMany(ctx, "docs", []string{"a", "c", "nope"}); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}
	if store.Len("docs") != 1 {
		t.Errorf("expected 1 remaining document, got %d", store.Len("docs"))
	}
	if err := store.Get(ctx, "docs", "b", &testDoc{}); err != nil {
		t.Errorf("surviving document unreadable: %v", err)
	}
}

func TestFilterEqualNumbers(t *testing.T) {
	tests := []struct {
		name string
		a, b interface{}
		want bool
	}{
		{"float vs int", float64(5), 5, true},
		{"float vs int64", float64(5), int64(5), true},
		{"float mismatch", float64(5), 6, false},
		{"string match", "x", "x", true},
		{"string mismatch", "x", "y", false},
		{"float vs string", float64(5), "5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("filterEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
