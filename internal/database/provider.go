package database

import (
	"context"
	"fmt"
)

// HNSWRebuilder is an interface for repositories that support HNSW index rebuilding
type HNSWRebuilder interface {
	// RebuildHNSW rebuilds the in-memory HNSW index
	RebuildHNSW(ctx context.Context) error
	// HNSWCount returns the number of items in the HNSW index
	HNSWCount() int
	// IsHNSWEnabled returns whether HNSW is enabled
	IsHNSWEnabled() bool
	// SaveHNSWIndex saves the current index to disk (if path configured)
	SaveHNSWIndex() error
}

var (
	postgresIdentityReader func() IdentityReader
	postgresIdentityWriter func() IdentityWriter
	postgresIdentityHNSW   HNSWRebuilder
	postgresInitialized    bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(
	reader func() IdentityReader,
	writer func() IdentityWriter,
) {
	postgresIdentityReader = reader
	postgresIdentityWriter = writer
	postgresInitialized = true
}

// RegisterIdentityHNSWRebuilder registers the HNSW rebuilder for the identity repository.
// This allows rebuilding the in-memory HNSW index without knowing the concrete type.
func RegisterIdentityHNSWRebuilder(rebuilder HNSWRebuilder) {
	postgresIdentityHNSW = rebuilder
}

// GetIdentityHNSWRebuilder returns the registered HNSW rebuilder, or nil if not registered.
func GetIdentityHNSWRebuilder() HNSWRebuilder {
	return postgresIdentityHNSW
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	return postgresInitialized
}

// GetIdentityReader returns an IdentityReader from the PostgreSQL backend
func GetIdentityReader() (IdentityReader, error) {
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresIdentityReader == nil {
		return nil, fmt.Errorf("PostgreSQL identity reader not registered")
	}
	return postgresIdentityReader(), nil
}

// GetIdentityWriter returns an IdentityWriter from the PostgreSQL backend
func GetIdentityWriter() (IdentityWriter, error) {
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresIdentityWriter == nil {
		return nil, fmt.Errorf("PostgreSQL identity writer not registered")
	}
	return postgresIdentityWriter(), nil
}
