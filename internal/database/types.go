package database

import (
	"time"
)

// StoredIdentity represents a registered identity stored in the database.
// Names are opaque labels and are not guaranteed unique; the UID is.
type StoredIdentity struct {
	ID        int64
	UID       string
	Name      string
	Embedding []float32
	Dim       int
	CreatedAt time.Time
}
