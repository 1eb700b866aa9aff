// Package store persists journal entries and reports changes to them.
package store

import (
	"context"
	"errors"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
)

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("entry not found")
	// ErrForbidden is returned when the entry exists but belongs to another owner.
	ErrForbidden = errors.New("entry belongs to another owner")
	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// Change is one authoritative snapshot of an owner's entries, or a terminal
// subscription failure. Entries are ordered by CreatedAt descending.
type Change struct {
	Entries []models.Entry
	Err     error
}

// Backend is the persistent document store that holds every user's entries.
//
// Listen delivers the current snapshot followed by a new snapshot on every
// change for ownerID. The channel is closed when ctx is done or after a
// Change carrying Err. Implementations may coalesce intermediate snapshots
// but the most recent one is always delivered.
type Backend interface {
	Listen(ctx context.Context, ownerID string) (<-chan Change, error)
	List(ctx context.Context, ownerID string) ([]models.Entry, error)
	Get(ctx context.Context, id string) (models.Entry, error)
	Create(ctx context.Context, entry models.Entry) (models.Entry, error)
	Update(ctx context.Context, ownerID, id string, patch models.EntryPatch) (models.Entry, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// offer replaces any undelivered change in ch with c. ch must have a buffer
// of one and a single sender.
func offer(ch chan Change, c Change) {
	select {
	case <-ch:
	default:
	}
	ch <- c
}
