package journal

import "github.com/AnshRaj112/mindjournal-backend/internal/models"

// pending is a locally confirmed write the change stream has not caught up with.
type pending struct {
	entry models.Entry
	// observed is set once the entry has appeared in an authoritative
	// snapshot. An observed entry missing from a later snapshot was deleted
	// elsewhere.
	observed bool
}

// overlay holds one client's writes that are acknowledged by the backend
// but possibly not yet reflected in its snapshots. Guarded by Client.mu.
type overlay struct {
	upserts    map[string]map[string]*pending
	tombstones map[string]map[string]struct{}
}

func newOverlay() *overlay {
	return &overlay{
		upserts:    make(map[string]map[string]*pending),
		tombstones: make(map[string]map[string]struct{}),
	}
}

func (o *overlay) upsert(e models.Entry) {
	byID := o.upserts[e.OwnerID]
	if byID == nil {
		byID = make(map[string]*pending)
		o.upserts[e.OwnerID] = byID
	}
	p := &pending{entry: e.Clone(), observed: true}
	if prev, ok := byID[e.ID]; ok {
		p.observed = prev.observed
	}
	byID[e.ID] = p
}

// created records a new entry, which no snapshot can have seen yet.
func (o *overlay) created(e models.Entry) {
	o.upsert(e)
	o.upserts[e.OwnerID][e.ID].observed = false
}

// removed tombstones id for the client's lifetime. Ids are never reused so
// the tombstone can never hide a later entry.
func (o *overlay) removed(ownerID, id string) {
	delete(o.upserts[ownerID], id)
	if o.tombstones[ownerID] == nil {
		o.tombstones[ownerID] = make(map[string]struct{})
	}
	o.tombstones[ownerID][id] = struct{}{}
}

func (o *overlay) deleted(ownerID, id string) bool {
	_, ok := o.tombstones[ownerID][id]
	return ok
}

func (o *overlay) lookup(ownerID, id string) (models.Entry, bool) {
	p, ok := o.upserts[ownerID][id]
	if !ok {
		return models.Entry{}, false
	}
	return p.entry.Clone(), true
}

// reconcile drops pending writes that base already reflects.
func (o *overlay) reconcile(ownerID string, base []models.Entry) {
	byID := o.upserts[ownerID]
	if len(byID) == 0 {
		return
	}

	byBase := make(map[string]models.Entry, len(base))
	for _, e := range base {
		byBase[e.ID] = e
	}

	for id, p := range byID {
		remote, ok := byBase[id]
		switch {
		case ok && remote.Revision >= p.entry.Revision:
			delete(byID, id)
		case ok:
			p.observed = true
		case p.observed:
			delete(byID, id)
		case newerThan(base, p.entry):
			// The snapshot was taken after the create and still lacks it.
			delete(byID, id)
		}
	}
	if len(byID) == 0 {
		delete(o.upserts, ownerID)
	}
}

func newerThan(base []models.Entry, e models.Entry) bool {
	return len(base) > 0 && base[0].CreatedAt.After(e.CreatedAt)
}

// apply merges pending writes over base and returns a fresh, ordered slice.
func (o *overlay) apply(ownerID string, base []models.Entry) []models.Entry {
	byID := o.upserts[ownerID]
	tomb := o.tombstones[ownerID]

	out := make([]models.Entry, 0, len(base)+len(byID))
	seen := make(map[string]struct{}, len(base))
	for _, e := range base {
		if _, gone := tomb[e.ID]; gone {
			continue
		}
		seen[e.ID] = struct{}{}
		if p, ok := byID[e.ID]; ok && p.entry.Revision > e.Revision {
			out = append(out, p.entry.Clone())
			continue
		}
		out = append(out, e.Clone())
	}
	for id, p := range byID {
		if _, ok := seen[id]; ok {
			continue
		}
		if _, gone := tomb[id]; gone {
			continue
		}
		out = append(out, p.entry.Clone())
	}
	models.SortEntries(out)
	return out
}
