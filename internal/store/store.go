// Package store persists session snapshots.
package store

import (
	"context"
	"time"

	"github.com/uddhav/creative-thinking/internal/engine"
)

// Store is the minimal interface all stores must implement.
type Store interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Close releases any resources held by the store.
	Close() error
}

// Filter defines query parameters for listing sessions.
type Filter struct {
	Limit     int    // Maximum results (0 = no limit)
	Offset    int    // Skip first N results
	OrderBy   string // created_at, updated_at or flexibility
	OrderDesc bool   // Sort descending if true
}

// DefaultFilter returns a filter with sensible defaults.
func DefaultFilter() Filter {
	return Filter{
		Limit:     100,
		OrderBy:   "updated_at",
		OrderDesc: true,
	}
}

// WithLimit returns a copy of the filter with a new limit.
func (f Filter) WithLimit(n int) Filter {
	f.Limit = n
	return f
}

// WithOffset returns a copy of the filter with a new offset.
func (f Filter) WithOffset(n int) Filter {
	f.Offset = n
	return f
}

// WithOrder returns a copy of the filter with ordering.
func (f Filter) WithOrder(field string, desc bool) Filter {
	f.OrderBy = field
	f.OrderDesc = desc
	return f
}

// Summary is the listing row of a stored session.
type Summary struct {
	ID          string    `json:"id"`
	Problem     string    `json:"problem,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Flexibility float64   `json:"flexibility"`
	Events      int       `json:"events"`
}

// SnapshotStore reads and writes session snapshots.
type SnapshotStore interface {
	Store
	// Create stores a new session and fails with ErrAlreadyExists on a duplicate ID.
	Create(ctx context.Context, snap engine.Snapshot) error
	// Save inserts or replaces a session.
	Save(ctx context.Context, snap engine.Snapshot) error
	// Get loads a session by ID.
	Get(ctx context.Context, id string) (engine.Snapshot, error)
	// List returns session summaries.
	List(ctx context.Context, filter Filter) ([]Summary, error)
	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
	// Delete removes a session by ID.
	Delete(ctx context.Context, id string) error
}
