// Package journal keeps a consistent, live, per-user view of journal
// entries on top of a store.Backend and performs owner-checked mutations.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/id"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
	"github.com/AnshRaj112/mindjournal-backend/internal/store"
)

var errStreamEnded = errors.New("change stream ended")

// Client acts on behalf of whoever the session provider reports.
//
// Writes made through a Client are visible in its feeds as soon as the
// write returns, even before the backend's change stream reports them.
// Writes of one Client are applied in the order they were issued.
type Client struct {
	backend store.Backend
	session session.Provider
	log     *slog.Logger
	now     func() time.Time

	writeMu sync.Mutex

	// mu guards overlay, feeds and closed. Lock order: Client.mu, then Feed.mu.
	mu      sync.Mutex
	overlay *overlay
	feeds   map[*Feed]struct{}
	closed  bool
}

// Option configures a Client.
type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock sets the clock used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(backend store.Backend, sess session.Provider, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		session: sess,
		log:     logger.Discard(),
		now:     time.Now,
		overlay: newOverlay(),
		feeds:   make(map[*Feed]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component, logger.ComponentJournal)
	return c
}

// Subscribe opens a live feed of ownerID's entries. An empty ownerID yields
// a feed holding a single empty snapshot that never touches the backend.
// The feed ends when ctx is cancelled or Close is called.
func (c *Client) Subscribe(ctx context.Context, ownerID string) *Feed {
	f := c.newFeed(ctx)
	c.retarget(f, ownerID)
	return f
}

// Follow opens a feed that tracks the session: it streams the current
// user's entries and, whenever the identity changes, tears down the old
// subscription before starting a new one.
//
// With a session.Switcher the switch happens before SetIdentity returns, so
// once it has returned no snapshot of the previous owner can be received.
// Other providers are followed through Watch, and the switch lags behind it.
// Like any feed, a Follow feed ends on a subscription failure; open a new
// one to resume.
func (c *Client) Follow(ctx context.Context) *Feed {
	f := c.newFeed(ctx)
	if f.isClosed() {
		return f
	}

	first := true
	var current string
	follow := func(ident session.Identity) {
		if !first && ident.UserID == current {
			return
		}
		first = false
		current = ident.UserID
		c.log.Debug("feed following identity", logger.FeedID, f.id, logger.OwnerID, current)
		c.retarget(f, current)
	}

	if sw, ok := c.session.(session.Switcher); ok {
		remove := sw.OnSwitch(follow)
		context.AfterFunc(f.ctx, remove)
		return f
	}

	identities := c.session.Watch(f.ctx)
	go func() {
		for ident := range identities {
			follow(ident)
		}
	}()
	return f
}

func (c *Client) newFeed(ctx context.Context) *Feed {
	f := &Feed{
		id:     id.MustGenerate("feed"),
		client: c,
		out:    make(chan Snapshot, 1),
		errs:   make(chan error, 1),
	}
	f.ctx, f.cancel = context.WithCancel(ctx)

	c.mu.Lock()
	closed := c.closed
	if !closed {
		c.feeds[f] = struct{}{}
	}
	c.mu.Unlock()

	if closed {
		f.Close()
		return f
	}
	f.release = context.AfterFunc(ctx, f.Close)
	return f
}

func (c *Client) forget(f *Feed) {
	c.mu.Lock()
	delete(c.feeds, f)
	c.mu.Unlock()
}

// retarget points f at ownerID, stopping whatever it streamed before.
func (c *Client) retarget(f *Feed, ownerID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if f.stopPump != nil {
		f.stopPump()
		f.stopPump = nil
	}
	f.gen++
	f.owner = ownerID
	f.base = nil
	f.hasBase = false
	f.drainLocked()

	if ownerID == "" {
		f.sendLocked(Snapshot{})
		return
	}

	pumpCtx, stop := context.WithCancel(f.ctx)
	f.stopPump = stop
	go c.pump(pumpCtx, f, f.gen, ownerID)
}

// pump copies backend changes for one owner into f until ctx ends.
func (c *Client) pump(ctx context.Context, f *Feed, gen uint64, ownerID string) {
	changes, err := c.backend.Listen(ctx, ownerID)
	if err != nil {
		if ctx.Err() == nil {
			c.subscriptionFailed(f, gen, ownerID, err)
		}
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				if ctx.Err() == nil {
					c.subscriptionFailed(f, gen, ownerID, errStreamEnded)
				}
				return
			}
			if change.Err != nil {
				c.subscriptionFailed(f, gen, ownerID, change.Err)
				return
			}
			c.publish(f, gen, ownerID, change.Entries)
		}
	}
}

func (c *Client) subscriptionFailed(f *Feed, gen uint64, ownerID string, err error) {
	c.log.Warn("subscription failed", logger.FeedID, f.id, logger.OwnerID, ownerID, logger.Error, err)
	f.fail(gen, newError(KindSubscription, fmt.Sprintf("live entries for %s", ownerID), err))
}

// publish records base as f's authoritative snapshot and delivers it merged
// with pending local writes.
func (c *Client) publish(f *Feed, gen uint64, ownerID string, base []models.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay.reconcile(ownerID, base)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.gen != gen {
		return
	}
	f.base = base
	f.hasBase = true
	f.sendLocked(Snapshot{OwnerID: ownerID, Entries: c.overlay.apply(ownerID, base)})
}

// refreshLocked re-emits every feed of ownerID that has a base snapshot.
// Caller holds c.mu.
func (c *Client) refreshLocked(ownerID string) {
	for f := range c.feeds {
		f.mu.Lock()
		if !f.closed && f.hasBase && f.owner == ownerID {
			f.sendLocked(Snapshot{OwnerID: ownerID, Entries: c.overlay.apply(ownerID, f.base)})
		}
		f.mu.Unlock()
	}
}

func (c *Client) identity() (session.Identity, error) {
	ident, ok := c.session.Current()
	if !ok {
		return session.Identity{}, errNoSession
	}
	return ident, nil
}

// Create stores a new entry owned by the session user and returns its id.
// A missing mood is derived from the content.
func (c *Client) Create(ctx context.Context, draft models.EntryDraft) (string, error) {
	ident, err := c.identity()
	if err != nil {
		return "", err
	}

	m := draft.Mood
	switch {
	case m == "":
		m = mood.Classify(draft.Content)
	case !m.Valid():
		return "", newError(KindWrite, fmt.Sprintf("mood %q is not a known category", m), nil)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	created, err := c.backend.Create(ctx, models.Entry{
		OwnerID: ident.UserID,
		Title:   draft.Title,
		Content: draft.Content,
		Mood:    m,
		Tags:    models.NormalizeTags(draft.Tags),
	})
	if err != nil {
		return "", newError(KindWrite, "store rejected the mutation", err)
	}

	c.mu.Lock()
	c.overlay.created(created)
	c.refreshLocked(ident.UserID)
	c.mu.Unlock()

	c.log.Debug("entry created", logger.EntryID, created.ID, logger.OwnerID, ident.UserID)
	return created.ID, nil
}

// Update changes only the fields present in patch. updatedAt is always
// refreshed.
func (c *Client) Update(ctx context.Context, entryID string, patch models.EntryPatch) error {
	ident, err := c.identity()
	if err != nil {
		return err
	}
	if patch.Mood != nil && !patch.Mood.Valid() {
		return newError(KindWrite, fmt.Sprintf("mood %q is not a known category", *patch.Mood), nil)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	updated, err := c.backend.Update(ctx, ident.UserID, entryID, patch)
	if err != nil {
		return mutationError(entryID, err)
	}

	c.mu.Lock()
	c.overlay.upsert(updated)
	c.refreshLocked(ident.UserID)
	c.mu.Unlock()
	return nil
}

// Remove deletes an entry of the session user.
func (c *Client) Remove(ctx context.Context, entryID string) error {
	ident, err := c.identity()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.backend.Delete(ctx, ident.UserID, entryID); err != nil {
		return mutationError(entryID, err)
	}

	c.mu.Lock()
	c.overlay.removed(ident.UserID, entryID)
	c.refreshLocked(ident.UserID)
	c.mu.Unlock()

	c.log.Debug("entry removed", logger.EntryID, entryID, logger.OwnerID, ident.UserID)
	return nil
}

// RemoveAll deletes every entry of the session user and reports how many
// were removed. Entries already gone are skipped.
func (c *Client) RemoveAll(ctx context.Context) (int, error) {
	ident, err := c.identity()
	if err != nil {
		return 0, err
	}
	entries, err := c.backend.List(ctx, ident.UserID)
	if err != nil {
		return 0, readError(err)
	}

	removed := 0
	for _, e := range entries {
		err := c.Remove(ctx, e.ID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return removed, err
		default:
			removed++
		}
	}
	return removed, nil
}

// GetByID reads one entry. Entries of other users are reported as not
// found so their existence is not revealed.
func (c *Client) GetByID(ctx context.Context, entryID string) (models.Entry, error) {
	ident, err := c.identity()
	if err != nil {
		return models.Entry{}, err
	}
	notFound := newError(KindNotFound, fmt.Sprintf("entry %s", entryID), nil)

	c.mu.Lock()
	deleted := c.overlay.deleted(ident.UserID, entryID)
	local, pendingWrite := c.overlay.lookup(ident.UserID, entryID)
	c.mu.Unlock()
	if deleted {
		return models.Entry{}, notFound
	}

	e, err := c.backend.Get(ctx, entryID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.Entry{}, notFound
	case err != nil:
		return models.Entry{}, readError(err)
	case e.OwnerID != ident.UserID:
		return models.Entry{}, notFound
	}
	if pendingWrite && local.Revision > e.Revision {
		return local, nil
	}
	return e, nil
}

// Snapshot reads the session user's entries once, merged with pending
// local writes.
func (c *Client) Snapshot(ctx context.Context) (Snapshot, error) {
	ident, err := c.identity()
	if err != nil {
		return Snapshot{}, err
	}
	base, err := c.backend.List(ctx, ident.UserID)
	if err != nil {
		return Snapshot{}, readError(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.overlay.reconcile(ident.UserID, base)
	return Snapshot{OwnerID: ident.UserID, Entries: c.overlay.apply(ident.UserID, base)}, nil
}

// Close ends every feed opened through c. Later Subscribe and Follow calls
// return closed feeds; point operations keep working.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	feeds := make([]*Feed, 0, len(c.feeds))
	for f := range c.feeds {
		feeds = append(feeds, f)
	}
	c.mu.Unlock()

	for _, f := range feeds {
		f.Close()
	}
}
