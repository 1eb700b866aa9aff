package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/google/uuid"
)

// MemoryBackend keeps entries in process memory. It is used when
// STORE_BACKEND=memory and by tests, which drive its failure hooks.
type MemoryBackend struct {
	mu        sync.Mutex
	entries   map[string]models.Entry
	listeners map[string]map[*memoryListener]struct{}
	clock     func() time.Time
	last      time.Time

	unavailable bool
	holding     bool
	held        map[string]struct{}
	listenCalls int
}

type memoryListener struct {
	ch chan Change
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithClock replaces the wall clock. Returned times are still forced to be
// strictly increasing.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *MemoryBackend) { m.clock = clock }
}

func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		entries:   make(map[string]models.Entry),
		listeners: make(map[string]map[*memoryListener]struct{}),
		clock:     time.Now,
		held:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUnavailable makes every subsequent call fail with ErrUnavailable.
func (m *MemoryBackend) SetUnavailable(down bool) {
	m.mu.Lock()
	m.unavailable = down
	m.mu.Unlock()
}

// HoldNotifications queues change notifications until Flush is called,
// simulating a slow change stream.
func (m *MemoryBackend) HoldNotifications() {
	m.mu.Lock()
	m.holding = true
	m.mu.Unlock()
}

// Flush delivers queued notifications and stops holding new ones.
func (m *MemoryBackend) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holding = false
	for owner := range m.held {
		m.notifyLocked(owner)
	}
	clear(m.held)
}

// FailListeners terminates every live listener of ownerID with err.
func (m *MemoryBackend) FailListeners(ownerID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for l := range m.listeners[ownerID] {
		offer(l.ch, Change{Err: err})
		close(l.ch)
	}
	delete(m.listeners, ownerID)
}

// ListenCalls reports how many subscriptions were opened.
func (m *MemoryBackend) ListenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listenCalls
}

// Listeners reports the number of open subscriptions for ownerID.
func (m *MemoryBackend) Listeners(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners[ownerID])
}

func (m *MemoryBackend) Listen(ctx context.Context, ownerID string) (<-chan Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, ErrUnavailable
	}
	m.listenCalls++

	l := &memoryListener{ch: make(chan Change, 1)}
	if m.listeners[ownerID] == nil {
		m.listeners[ownerID] = make(map[*memoryListener]struct{})
	}
	m.listeners[ownerID][l] = struct{}{}
	offer(l.ch, Change{Entries: m.listLocked(ownerID)})

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.listeners[ownerID][l]; ok {
			delete(m.listeners[ownerID], l)
			close(l.ch)
		}
	}()
	return l.ch, nil
}

func (m *MemoryBackend) List(_ context.Context, ownerID string) ([]models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return nil, ErrUnavailable
	}
	return m.listLocked(ownerID), nil
}

func (m *MemoryBackend) Get(_ context.Context, id string) (models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return models.Entry{}, ErrUnavailable
	}
	e, ok := m.entries[id]
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.Clone(), nil
}

func (m *MemoryBackend) Create(_ context.Context, entry models.Entry) (models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return models.Entry{}, ErrUnavailable
	}

	now := m.nowLocked()
	e := entry.Clone()
	e.ID = uuid.NewString()
	e.Tags = models.NormalizeTags(e.Tags)
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Revision = 1
	m.entries[e.ID] = e

	m.notifyLocked(e.OwnerID)
	return e.Clone(), nil
}

func (m *MemoryBackend) Update(_ context.Context, ownerID, id string, patch models.EntryPatch) (models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.ownedLocked(ownerID, id)
	if err != nil {
		return models.Entry{}, err
	}

	e = patch.Apply(e)
	e.UpdatedAt = m.nowLocked()
	e.Revision++
	m.entries[id] = e

	m.notifyLocked(ownerID)
	return e.Clone(), nil
}

func (m *MemoryBackend) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ownedLocked(ownerID, id); err != nil {
		return err
	}
	delete(m.entries, id)
	m.notifyLocked(ownerID)
	return nil
}

func (m *MemoryBackend) ownedLocked(ownerID, id string) (models.Entry, error) {
	if m.unavailable {
		return models.Entry{}, ErrUnavailable
	}
	e, ok := m.entries[id]
	if !ok {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if e.OwnerID != ownerID {
		return models.Entry{}, fmt.Errorf("%w: %s", ErrForbidden, id)
	}
	return e, nil
}

func (m *MemoryBackend) listLocked(ownerID string) []models.Entry {
	out := make([]models.Entry, 0)
	for _, e := range m.entries {
		if e.OwnerID == ownerID {
			out = append(out, e.Clone())
		}
	}
	models.SortEntries(out)
	return out
}

func (m *MemoryBackend) notifyLocked(ownerID string) {
	if m.holding {
		m.held[ownerID] = struct{}{}
		return
	}
	if len(m.listeners[ownerID]) == 0 {
		return
	}
	snapshot := m.listLocked(ownerID)
	for l := range m.listeners[ownerID] {
		entries := make([]models.Entry, len(snapshot))
		for i, e := range snapshot {
			entries[i] = e.Clone()
		}
		offer(l.ch, Change{Entries: entries})
	}
}

// nowLocked returns the store clock truncated to milliseconds, bumped so that
// no two mutations share a timestamp.
func (m *MemoryBackend) nowLocked() time.Time {
	now := m.clock().UTC().Truncate(time.Millisecond)
	if !now.After(m.last) {
		now = m.last.Add(time.Millisecond)
	}
	m.last = now
	return now
}
