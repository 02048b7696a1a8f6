// Package mariadb reads identity rows from the old hosted backend so they can
// be imported into PostgreSQL. The legacy schema stored face descriptors as
// an unbounded comma-delimited text column; parsing and validation happen in
// the import command, not here.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MariaDB connection pool.
type Pool struct {
	db *sql.DB
}

// LegacyIdentity is one row of the old backend's faces table.
type LegacyIdentity struct {
	Name       string
	Descriptor string // comma-delimited float text, validated by the importer
	CreatedAt  time.Time
}

// NewPool creates a new MariaDB connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// CountIdentities returns the number of rows in the legacy faces table.
func (p *Pool) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count legacy identities: %w", err)
	}
	return count, nil
}

// ReadIdentities reads all legacy identity rows, oldest first, so that the
// import preserves the original registration order.
func (p *Pool) ReadIdentities(ctx context.Context) ([]LegacyIdentity, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT name, descriptor, created_at
		FROM faces
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query legacy identities: %w", err)
	}
	defer rows.Close()

	var identities []LegacyIdentity
	for rows.Next() {
		var ident LegacyIdentity
		if err := rows.Scan(&ident.Name, &ident.Descriptor, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan legacy identity: %w", err)
		}
		identities = append(identities, ident)
	}

	return identities, rows.Err()
}
