package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/database/mock"
)

func TestStoreSnapshotSource_Refresh(t *testing.T) {
	store := mock.NewMockIdentityStore()
	base := time.Now()
	store.AddIdentity(database.StoredIdentity{
		UID: "a", Name: "Alice", Embedding: []float32{1, 0}, CreatedAt: base,
	})
	store.AddIdentity(database.StoredIdentity{
		UID: "b", Name: "Bob", Embedding: []float32{0, 1}, CreatedAt: base.Add(time.Minute),
	})

	source := NewStoreSnapshotSource(store)
	if len(source.Snapshot()) != 0 {
		t.Error("snapshot should start empty")
	}

	if err := source.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	snap := source.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot size = %d, want 2", len(snap))
	}
	if snap[0].Name != "Bob" || snap[1].Name != "Alice" {
		t.Errorf("snapshot = %+v, want newest first", snap)
	}
}

func TestStoreSnapshotSource_RefreshKeepsOldOnError(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity(database.StoredIdentity{UID: "a", Name: "Alice", Embedding: []float32{1}})

	source := NewStoreSnapshotSource(store)
	if err := source.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	store.ListError = errors.New("db down")
	if err := source.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() should surface store errors")
	}

	if len(source.Snapshot()) != 1 {
		t.Error("failed refresh must not clear the cached snapshot")
	}
}

func TestStoreSnapshotSource_SnapshotIsStable(t *testing.T) {
	store := mock.NewMockIdentityStore()
	store.AddIdentity(database.StoredIdentity{UID: "a", Name: "Alice", Embedding: []float32{1}})

	source := NewStoreSnapshotSource(store)
	if err := source.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	held := source.Snapshot()
	store.AddIdentity(database.StoredIdentity{UID: "b", Name: "Bob", Embedding: []float32{2}})
	if err := source.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	// A snapshot taken before the refresh stays what it was.
	if len(held) != 1 || held[0].Name != "Alice" {
		t.Errorf("held snapshot changed under refresh: %+v", held)
	}
	if len(source.Snapshot()) != 2 {
		t.Errorf("new snapshot size = %d, want 2", len(source.Snapshot()))
	}
}
