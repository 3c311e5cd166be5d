// Package store persists finished morphology documents keyed by run ID so
// the HTTP service can hand them out later. MongoDB is the production
// backend; an in-memory store backs tests and single-process serving.
package store

import (
	"context"
	"time"

	"github.com/skeltree/skeltree/pkg/morphio"
)

// Entry is one stored conversion result.
type Entry struct {
	RunID     string            `bson:"run_id" json:"run_id"`
	Name      string            `bson:"name" json:"name"`
	CreatedAt time.Time         `bson:"created_at" json:"created_at"`
	Document  *morphio.Document `bson:"document" json:"document"`
}

// Store is the morphology persistence interface.
type Store interface {
	// Put saves an entry. Writing an existing run ID replaces it.
	Put(ctx context.Context, e Entry) error

	// Get returns the entry for a run ID, or an error carrying
	// ErrCodeNotFound when no such run was stored.
	Get(ctx context.Context, runID string) (Entry, error)

	// List returns stored entries without their documents, newest first,
	// at most limit of them (0 means no limit).
	List(ctx context.Context, limit int) ([]Entry, error)

	Close(ctx context.Context) error
}
