// Package store provides persistence for score documents.
//
// This package defines the Store interface for score storage, with
// implementations for different backends:
//   - memory: In-memory storage for development/testing
//   - mongo: MongoDB-backed storage for production deployments
//   - file: File-based storage for CLI applications
//
// # Architecture
//
// A Record wraps the raw score document with identity and timestamps. The
// Store interface supports:
//   - Put/Get/List/Delete operations
//   - Server-assigned IDs for new records
//
// # Usage
//
// Create a store:
//
//	// Development
//	st := store.NewMemoryStore()
//
//	// Production
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI: "mongodb://localhost:27017",
//	})
//
//	// CLI
//	st, err := store.NewFileStore("")  // Uses ~/.config/musicore/scores/
//
// Manage records:
//
//	rec := store.NewRecord(title, scoreJSON)
//	if err := st.Put(ctx, rec); err != nil {
//	    return err
//	}
//
//	rec, err := st.Get(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    // No such score
//	}
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a score record does not exist.
var ErrNotFound = errors.New("score not found")

// Record is a stored score document with identity and timestamps.
type Record struct {
	ID    string `json:"id" bson:"_id"`
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	// ScoreJSON is the raw score document as submitted. It is stored
	// verbatim so the layout cache key (a content hash) stays stable.
	ScoreJSON json.RawMessage `json:"score" bson:"score_json"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Summary is the listing view of a record, without the score payload.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Summary returns the listing view of the record.
func (r *Record) Summary() Summary {
	return Summary{
		ID:        r.ID,
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Store is the interface for score storage backends.
type Store interface {
	// Put stores a record, inserting or replacing by ID.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns summaries of all records, ordered by creation time.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a record. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// NewID generates a unique score record ID.
func NewID() string {
	return uuid.NewString()
}

// NewRecord creates a record with a fresh ID and timestamps.
func NewRecord(title string, scoreJSON []byte) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:        NewID(),
		Title:     title,
		ScoreJSON: scoreJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
