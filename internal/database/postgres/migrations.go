package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the pgvector extension and the identities table.
// The embedding column dimension is fixed at migration time; changing the
// detector model's dimensionality requires a fresh table.
func (p *Pool) Migrate(ctx context.Context, embeddingDim int) error {
	if embeddingDim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", embeddingDim)
	}

	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS identities (
			id           BIGSERIAL PRIMARY KEY,
			uid          VARCHAR(36) NOT NULL UNIQUE,
			name         VARCHAR(255) NOT NULL,
			embedding    vector(%d) NOT NULL,
			dim          INTEGER NOT NULL DEFAULT %d,
			created_at   TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, embeddingDim, embeddingDim)

	if _, err := p.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}

	// Recency ordering backs List() and the "registered last" chat answer.
	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS identities_created_at_idx ON identities(created_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create created_at index: %w", err)
	}

	return nil
}

// CreateVectorIndex creates the IVFFlat index for similarity search.
// This should be called after the table has some data for optimal performance.
func (p *Pool) CreateVectorIndex(ctx context.Context) error {
	_, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS identities_vector_idx
		ON identities USING ivfflat (embedding vector_l2_ops) WITH (lists = 100)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}
