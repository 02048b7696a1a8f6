//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/facewall/internal/config"
	"github.com/kozaktomas/facewall/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDim = 128

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx, testDim); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func testEmbedding(seed float32) []float32 {
	emb := make([]float32, testDim)
	for i := range emb {
		emb[i] = seed
	}
	return emb
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	alice := &database.StoredIdentity{
		UID:       uuid.NewString(),
		Name:      "Alice",
		Embedding: testEmbedding(0.1),
	}
	if err := repo.Save(ctx, alice); err != nil {
		t.Fatalf("Save(alice) error: %v", err)
	}
	if alice.ID == 0 {
		t.Error("Save() should fill in the database ID")
	}

	bob := &database.StoredIdentity{
		UID:       uuid.NewString(),
		Name:      "Bob",
		Embedding: testEmbedding(0.9),
	}
	if err := repo.Save(ctx, bob); err != nil {
		t.Fatalf("Save(bob) error: %v", err)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	// Most-recent-first ordering.
	identities, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(identities) != 2 || identities[0].Name != "Bob" {
		t.Errorf("List() should return Bob first, got %+v", identities)
	}

	got, err := repo.Get(ctx, alice.UID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.Name != "Alice" {
		t.Errorf("Get() = %+v, want Alice", got)
	}
	if len(got.Embedding) != testDim {
		t.Errorf("embedding dim = %d, want %d", len(got.Embedding), testDim)
	}

	// Similarity search should rank Alice first for a near-Alice query.
	query := testEmbedding(0.11)
	similar, distances, err := repo.FindSimilar(ctx, query, 2)
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if len(similar) != 2 || similar[0].Name != "Alice" {
		t.Errorf("FindSimilar() should rank Alice first, got %+v", similar)
	}
	if len(distances) == 2 && distances[0] > distances[1] {
		t.Error("distances should be ascending")
	}

	// Dimension mismatch is rejected before hitting the database.
	bad := &database.StoredIdentity{UID: uuid.NewString(), Name: "Eve", Embedding: []float32{1, 2}, Dim: 3}
	if err := repo.Save(ctx, bad); err == nil {
		t.Error("Save() should reject declared dim mismatch")
	}

	deleted, err := repo.Delete(ctx, alice.UID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !deleted {
		t.Error("Delete() should report true for an existing UID")
	}
	if deleted, _ := repo.Delete(ctx, alice.UID); deleted {
		t.Error("second Delete() should report false")
	}
}

func TestIdentityRepository_HNSW(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	for i := 0; i < 5; i++ {
		ident := &database.StoredIdentity{
			UID:       uuid.NewString(),
			Name:      fmt.Sprintf("person-%d", i),
			Embedding: testEmbedding(float32(i) / 10),
		}
		if err := repo.Save(ctx, ident); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	if err := repo.EnableHNSW(ctx, ""); err != nil {
		t.Fatalf("EnableHNSW() error: %v", err)
	}
	if !repo.IsHNSWEnabled() {
		t.Fatal("HNSW should be enabled")
	}
	if repo.HNSWCount() != 5 {
		t.Errorf("HNSWCount() = %d, want 5", repo.HNSWCount())
	}

	similar, _, err := repo.FindSimilar(ctx, testEmbedding(0.21), 1)
	if err != nil {
		t.Fatalf("FindSimilar() error: %v", err)
	}
	if len(similar) != 1 || similar[0].Name != "person-2" {
		t.Errorf("HNSW search should return person-2, got %+v", similar)
	}
}
