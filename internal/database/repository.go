package database

import (
	"context"
)

// IdentityReader provides read-only access to registered identities
type IdentityReader interface {
	// List retrieves all identities ordered by recency of registration (most-recent-first)
	List(ctx context.Context) ([]StoredIdentity, error)
	// Get retrieves an identity by UID, returns nil if not found
	Get(ctx context.Context, uid string) (*StoredIdentity, error)
	// Count returns the total number of identities stored
	Count(ctx context.Context) (int, error)
	// FindSimilar finds the identities closest to the embedding by Euclidean
	// distance and returns them with their distances, nearest first
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]StoredIdentity, []float64, error)
}

// IdentityWriter provides write access to registered identities
type IdentityWriter interface {
	IdentityReader

	// Save stores a new identity and fills in its database ID
	Save(ctx context.Context, identity *StoredIdentity) error

	// Delete removes an identity by UID. Returns false if no row matched.
	Delete(ctx context.Context, uid string) (bool, error)
}
