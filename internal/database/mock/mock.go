// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/vector"
)

// MockIdentityStore is an in-memory implementation of database.IdentityWriter.
type MockIdentityStore struct {
	mu         sync.RWMutex
	identities []database.StoredIdentity
	nextID     int64

	// Error injection
	ListError        error
	GetError         error
	CountError       error
	SaveError        error
	DeleteError      error
	FindSimilarError error
}

// NewMockIdentityStore creates a new mock identity store.
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{nextID: 1}
}

// AddIdentity seeds the store with an identity (test setup helper).
func (m *MockIdentityStore) AddIdentity(ident database.StoredIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ident.ID == 0 {
		ident.ID = m.nextID
		m.nextID++
	}
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = time.Now()
	}
	m.identities = append(m.identities, ident)
}

// List returns all identities, most recently registered first.
func (m *MockIdentityStore) List(ctx context.Context) ([]database.StoredIdentity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]database.StoredIdentity, len(m.identities))
	copy(out, m.identities)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get retrieves an identity by UID, returns nil if not found.
func (m *MockIdentityStore) Get(ctx context.Context, uid string) (*database.StoredIdentity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.identities {
		if m.identities[i].UID == uid {
			ident := m.identities[i]
			return &ident, nil
		}
	}
	return nil, nil
}

// Count returns the number of stored identities.
func (m *MockIdentityStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// Save stores a new identity and fills in its ID.
func (m *MockIdentityStore) Save(ctx context.Context, identity *database.StoredIdentity) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	identity.ID = m.nextID
	m.nextID++
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	m.identities = append(m.identities, *identity)
	return nil
}

// Delete removes an identity by UID.
func (m *MockIdentityStore) Delete(ctx context.Context, uid string) (bool, error) {
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.identities {
		if m.identities[i].UID == uid {
			m.identities = append(m.identities[:i], m.identities[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// FindSimilar performs a linear scan by Euclidean distance.
func (m *MockIdentityStore) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.StoredIdentity, []float64, error) {
	if m.FindSimilarError != nil {
		return nil, nil, m.FindSimilarError
	}
	if limit <= 0 {
		limit = database.DefaultSearchLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		ident    database.StoredIdentity
		distance float64
	}
	candidates := make([]scored, 0, len(m.identities))
	for i := range m.identities {
		candidates = append(candidates, scored{
			ident:    m.identities[i],
			distance: vector.EuclideanDistance(embedding, m.identities[i].Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	identities := make([]database.StoredIdentity, len(candidates))
	distances := make([]float64, len(candidates))
	for i, c := range candidates {
		identities[i] = c.ident
		distances[i] = c.distance
	}
	return identities, distances, nil
}
