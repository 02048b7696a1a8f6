package recognition

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/facewall/internal/database"
)

// KnownIdentity is one enrolled person as seen by the matching loop.
type KnownIdentity struct {
	Name      string
	Embedding []float32
}

// Snapshot is an immutable view of the known identities, ordered newest
// first. Ties in match distance resolve to the earliest entry.
type Snapshot []KnownIdentity

// SnapshotSource provides the current known-identity snapshot.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// StoreSnapshotSource builds snapshots from the identity store and caches
// the latest one so the sampling loop never waits on the database.
type StoreSnapshotSource struct {
	reader  database.IdentityReader
	current atomic.Value // Snapshot
}

// NewStoreSnapshotSource creates a snapshot source backed by the identity
// store. The snapshot starts empty until the first Refresh.
func NewStoreSnapshotSource(reader database.IdentityReader) *StoreSnapshotSource {
	s := &StoreSnapshotSource{reader: reader}
	s.current.Store(Snapshot{})
	return s
}

// Snapshot returns the most recently cached snapshot.
func (s *StoreSnapshotSource) Snapshot() Snapshot {
	return s.current.Load().(Snapshot)
}

// Refresh rebuilds the snapshot from the store. The store lists identities
// newest first, which fixes the tie-break order for matching.
func (s *StoreSnapshotSource) Refresh(ctx context.Context) error {
	identities, err := s.reader.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	snapshot := make(Snapshot, 0, len(identities))
	for _, ident := range identities {
		snapshot = append(snapshot, KnownIdentity{
			Name:      ident.Name,
			Embedding: ident.Embedding,
		})
	}
	s.current.Store(snapshot)
	return nil
}

// Run refreshes the snapshot periodically until the context is cancelled.
func (s *StoreSnapshotSource) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				log.Printf("snapshot refresh failed: %v", err)
			}
		}
	}
}
