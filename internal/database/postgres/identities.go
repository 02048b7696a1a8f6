package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository provides PostgreSQL-backed identity storage with an
// optional in-memory HNSW index for similarity search.
type IdentityRepository struct {
	pool        *Pool
	hnswIndex   *database.HNSWIndex
	hnswEnabled bool
	hnswMu      sync.RWMutex
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func scanIdentities(rows *sql.Rows) ([]database.StoredIdentity, error) {
	var identities []database.StoredIdentity
	for rows.Next() {
		var ident database.StoredIdentity
		var vec pgvector.Vector
		if err := rows.Scan(&ident.ID, &ident.UID, &ident.Name, &vec, &ident.Dim, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ident.Embedding = vec.Slice()
		identities = append(identities, ident)
	}
	return identities, rows.Err()
}

// List retrieves all identities, most recently registered first.
func (r *IdentityRepository) List(ctx context.Context) ([]database.StoredIdentity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, uid, name, embedding, dim, created_at
		FROM identities
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	return scanIdentities(rows)
}

// Get retrieves an identity by UID, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, uid string) (*database.StoredIdentity, error) {
	var ident database.StoredIdentity
	var vec pgvector.Vector
	err := r.pool.QueryRow(ctx, `
		SELECT id, uid, name, embedding, dim, created_at
		FROM identities
		WHERE uid = $1
	`, uid).Scan(&ident.ID, &ident.UID, &ident.Name, &vec, &ident.Dim, &ident.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query identity: %w", err)
	}
	ident.Embedding = vec.Slice()
	return &ident, nil
}

// Count returns the total number of identities stored.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Save stores a new identity and fills in its database ID.
func (r *IdentityRepository) Save(ctx context.Context, identity *database.StoredIdentity) error {
	if len(identity.Embedding) == 0 {
		return errors.New("identity embedding is empty")
	}
	if identity.Dim == 0 {
		identity.Dim = len(identity.Embedding)
	}
	if identity.Dim != len(identity.Embedding) {
		return fmt.Errorf("embedding dimension mismatch: declared %d, got %d", identity.Dim, len(identity.Embedding))
	}

	vec := pgvector.NewVector(identity.Embedding)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO identities (uid, name, embedding, dim, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`, identity.UID, identity.Name, vec, identity.Dim).Scan(&identity.ID, &identity.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}

	r.hnswMu.RLock()
	if r.hnswEnabled {
		if err := r.hnswIndex.Add(identity); err != nil {
			log.Printf("Warning: failed to add identity %s to HNSW index: %v", identity.UID, err)
		}
	}
	r.hnswMu.RUnlock()

	return nil
}

// Delete removes an identity by UID. Returns false if no row matched.
func (r *IdentityRepository) Delete(ctx context.Context, uid string) (bool, error) {
	var id int64
	err := r.pool.QueryRow(ctx, "DELETE FROM identities WHERE uid = $1 RETURNING id", uid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete identity: %w", err)
	}

	r.hnswMu.RLock()
	if r.hnswEnabled {
		r.hnswIndex.Delete(id)
	}
	r.hnswMu.RUnlock()

	return true, nil
}

// FindSimilar finds the identities closest to the embedding by Euclidean
// distance. Uses the HNSW index when enabled, PostgreSQL otherwise.
func (r *IdentityRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.StoredIdentity, []float64, error) {
	if limit <= 0 {
		limit = database.DefaultSearchLimit
	}

	r.hnswMu.RLock()
	useHNSW := r.hnswEnabled
	r.hnswMu.RUnlock()

	if useHNSW {
		identities, distances, err := r.findSimilarHNSW(embedding, limit)
		if err == nil {
			return identities, distances, nil
		}
		log.Printf("Warning: HNSW search failed, falling back to PostgreSQL: %v", err)
	}

	return r.findSimilarSQL(ctx, embedding, limit)
}

func (r *IdentityRepository) findSimilarHNSW(embedding []float32, limit int) ([]database.StoredIdentity, []float64, error) {
	ids, distances, err := r.hnswIndex.Search(embedding, limit)
	if err != nil {
		return nil, nil, err
	}

	identities := make([]database.StoredIdentity, 0, len(ids))
	kept := make([]float64, 0, len(ids))
	for i, id := range ids {
		ident := r.hnswIndex.GetIdentity(id)
		if ident == nil {
			continue
		}
		identities = append(identities, *ident)
		kept = append(kept, distances[i])
	}
	return identities, kept, nil
}

func (r *IdentityRepository) findSimilarSQL(ctx context.Context, embedding []float32, limit int) ([]database.StoredIdentity, []float64, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx, `
		SELECT id, uid, name, embedding, dim, created_at, embedding <-> $1 AS distance
		FROM identities
		ORDER BY embedding <-> $1
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var identities []database.StoredIdentity
	var distances []float64
	for rows.Next() {
		var ident database.StoredIdentity
		var v pgvector.Vector
		var distance float64
		if err := rows.Scan(&ident.ID, &ident.UID, &ident.Name, &v, &ident.Dim, &ident.CreatedAt, &distance); err != nil {
			return nil, nil, fmt.Errorf("scan identity: %w", err)
		}
		ident.Embedding = v.Slice()
		identities = append(identities, ident)
		distances = append(distances, distance)
	}

	return identities, distances, rows.Err()
}

// EnableHNSW builds (or loads from indexPath) the in-memory HNSW index.
func (r *IdentityRepository) EnableHNSW(ctx context.Context, indexPath string) error {
	index := database.NewHNSWIndex()

	if indexPath != "" {
		if err := index.Load(indexPath); err == nil {
			if fresh, err := r.isIndexFresh(ctx, indexPath); err == nil && fresh {
				r.hnswMu.Lock()
				r.hnswIndex = index
				r.hnswEnabled = true
				r.hnswMu.Unlock()
				return nil
			}
			log.Printf("Cached HNSW index is stale, rebuilding from database")
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: failed to load HNSW index from %s: %v", indexPath, err)
		}
		index = database.NewHNSWIndex()
		index.SetPath(indexPath)
	}

	identities, err := r.List(ctx)
	if err != nil {
		return fmt.Errorf("loading identities for HNSW build: %w", err)
	}
	if err := index.BuildFromIdentities(identities); err != nil {
		return fmt.Errorf("building HNSW index: %w", err)
	}

	r.hnswMu.Lock()
	r.hnswIndex = index
	r.hnswEnabled = true
	r.hnswMu.Unlock()

	return nil
}

// isIndexFresh compares cached index metadata with the current table state.
func (r *IdentityRepository) isIndexFresh(ctx context.Context, indexPath string) (bool, error) {
	metadata, err := database.LoadHNSWMetadata(indexPath)
	if err != nil {
		return false, err
	}

	var count, maxID int64
	err = r.pool.QueryRow(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM identities").Scan(&count, &maxID)
	if err != nil {
		return false, fmt.Errorf("checking table state: %w", err)
	}

	return metadata.IdentityCount == count && metadata.MaxIdentityID == maxID, nil
}

// RebuildHNSW rebuilds the in-memory HNSW index from the database.
func (r *IdentityRepository) RebuildHNSW(ctx context.Context) error {
	r.hnswMu.RLock()
	enabled := r.hnswEnabled
	r.hnswMu.RUnlock()
	if !enabled {
		return errors.New("HNSW index not enabled")
	}

	identities, err := r.List(ctx)
	if err != nil {
		return fmt.Errorf("loading identities: %w", err)
	}
	return r.hnswIndex.BuildFromIdentities(identities)
}

// HNSWCount returns the number of identities in the HNSW index.
func (r *IdentityRepository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if !r.hnswEnabled {
		return 0
	}
	return r.hnswIndex.Count()
}

// IsHNSWEnabled returns whether the HNSW index is active.
func (r *IdentityRepository) IsHNSWEnabled() bool {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	return r.hnswEnabled
}

// SaveHNSWIndex persists the index to disk (if a path was configured).
func (r *IdentityRepository) SaveHNSWIndex() error {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if !r.hnswEnabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var count, maxID int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*), COALESCE(MAX(id), 0) FROM identities").Scan(&count, &maxID); err != nil {
		return fmt.Errorf("reading table state: %w", err)
	}

	return r.hnswIndex.Save(database.HNSWIndexMetadata{
		IdentityCount: count,
		MaxIdentityID: maxID,
		BuildTime:     time.Now(),
	})
}
