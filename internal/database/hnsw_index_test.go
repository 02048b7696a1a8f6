package database

import (
	"path/filepath"
	"testing"
	"time"
)

func makeIdentities() []StoredIdentity {
	return []StoredIdentity{
		{ID: 1, UID: "a", Name: "Alice", Embedding: []float32{0, 0, 0}},
		{ID: 2, UID: "b", Name: "Bob", Embedding: []float32{1, 0, 0}},
		{ID: 3, UID: "c", Name: "Carol", Embedding: []float32{0, 5, 0}},
	}
}

func TestHNSWIndex_BuildAndSearch(t *testing.T) {
	index := NewHNSWIndex()
	if err := index.BuildFromIdentities(makeIdentities()); err != nil {
		t.Fatalf("BuildFromIdentities() error: %v", err)
	}

	if index.Count() != 3 {
		t.Errorf("Count() = %d, want 3", index.Count())
	}

	ids, distances, err := index.Search([]float32{0.9, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("Search() should return Bob (id 2), got %v", ids)
	}
	if distances[0] > 0.2 {
		t.Errorf("distance to Bob = %v, want ~0.1", distances[0])
	}

	if ident := index.GetIdentity(2); ident == nil || ident.Name != "Bob" {
		t.Errorf("GetIdentity(2) = %+v, want Bob", ident)
	}
}

func TestHNSWIndex_DeleteFiltersResults(t *testing.T) {
	index := NewHNSWIndex()
	if err := index.BuildFromIdentities(makeIdentities()); err != nil {
		t.Fatalf("BuildFromIdentities() error: %v", err)
	}

	index.Delete(2)

	ids, _, err := index.Search([]float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	for _, id := range ids {
		if id == 2 {
			t.Error("deleted identity should not appear in search results")
		}
	}
	if index.Count() != 2 {
		t.Errorf("Count() = %d after delete, want 2", index.Count())
	}
}

func TestHNSWIndex_EmptyBuild(t *testing.T) {
	index := NewHNSWIndex()
	if err := index.BuildFromIdentities(nil); err != nil {
		t.Fatalf("BuildFromIdentities(nil) error: %v", err)
	}
	if !index.IsEmpty() {
		t.Error("index should be empty")
	}
	if _, _, err := index.Search([]float32{1}, 1); err == nil {
		t.Error("Search() on empty index should fail")
	}
}

func TestHNSWIndex_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identities.hnsw")

	index := NewHNSWIndex()
	if err := index.BuildFromIdentities(makeIdentities()); err != nil {
		t.Fatalf("BuildFromIdentities() error: %v", err)
	}
	index.SetPath(path)

	meta := HNSWIndexMetadata{IdentityCount: 3, MaxIdentityID: 3, BuildTime: time.Now()}
	if err := index.Save(meta); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded := NewHNSWIndex()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Count() != 3 {
		t.Errorf("loaded Count() = %d, want 3", loaded.Count())
	}

	ids, _, err := loaded.Search([]float32{0, 4.5, 0}, 1)
	if err != nil {
		t.Fatalf("Search() on loaded index error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 3 {
		t.Errorf("loaded index search should return Carol (id 3), got %v", ids)
	}

	gotMeta, err := LoadHNSWMetadata(path)
	if err != nil {
		t.Fatalf("LoadHNSWMetadata() error: %v", err)
	}
	if gotMeta.IdentityCount != 3 || gotMeta.MaxIdentityID != 3 {
		t.Errorf("metadata = %+v", gotMeta)
	}
}
