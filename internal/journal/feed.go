package journal

import (
	"context"
	"sync"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
)

// Snapshot is the complete, ordered set of one owner's entries at a point
// in time. An empty OwnerID means no one is signed in.
type Snapshot struct {
	OwnerID string         `json:"owner_id"`
	Entries []models.Entry `json:"entries"`
}

// Feed is a live view of one owner's entries.
//
// Snapshots delivers complete snapshots, newest entries first. Only the most
// recent undelivered snapshot is kept, so slow readers skip intermediate
// states but always see the latest. The channel is closed by Close, by
// cancelling the context the feed was opened with, or after a subscription
// failure. A failure is sent on Err before Snapshots is closed, so Err
// carries at most one error; it is never closed.
type Feed struct {
	id     string
	client *Client
	out    chan Snapshot
	errs   chan error

	mu       sync.Mutex
	closed   bool
	owner    string
	gen      uint64
	base     []models.Entry
	hasBase  bool
	ctx      context.Context
	cancel   context.CancelFunc
	stopPump context.CancelFunc
	release  func() bool
}

// ID identifies the feed in logs.
func (f *Feed) ID() string {
	if f == nil {
		return ""
	}
	return f.id
}

// Snapshots returns the snapshot channel. It is nil for a nil Feed.
func (f *Feed) Snapshots() <-chan Snapshot {
	if f == nil {
		return nil
	}
	return f.out
}

// Err returns the channel on which a subscription failure is reported.
func (f *Feed) Err() <-chan error {
	if f == nil {
		return nil
	}
	return f.errs
}

// Owner returns the owner currently streamed.
func (f *Feed) Owner() string {
	if f == nil {
		return ""
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

func (f *Feed) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close stops the feed. It is idempotent and safe on a nil or zero Feed.
// No snapshot is delivered after Close returns, including one that was
// already buffered.
func (f *Feed) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	if f.closed || f.out == nil {
		f.mu.Unlock()
		return
	}
	f.closeLocked()
	f.mu.Unlock()
	f.finish()
}

func (f *Feed) closeLocked() {
	f.closed = true
	f.drainLocked()
	close(f.out)
	if f.stopPump != nil {
		f.stopPump()
	}
	if f.cancel != nil {
		f.cancel()
	}
}

// finish runs the parts of Close that must not hold f.mu.
func (f *Feed) finish() {
	if f.release != nil {
		f.release()
	}
	if f.client != nil {
		f.client.forget(f)
	}
}

// sendLocked replaces any undelivered snapshot with snap.
func (f *Feed) sendLocked(snap Snapshot) {
	if f.closed {
		return
	}
	if snap.Entries == nil {
		snap.Entries = []models.Entry{}
	}
	f.drainLocked()
	f.out <- snap
}

func (f *Feed) drainLocked() {
	select {
	case <-f.out:
	default:
	}
}

// fail reports err for generation gen and ends the feed. The feed is
// marked closed before the lock is released, so errs receives one error.
func (f *Feed) fail(gen uint64, err error) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.errs <- err
	f.closeLocked()
	f.mu.Unlock()
	f.finish()
}
