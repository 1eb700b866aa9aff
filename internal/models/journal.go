package models

import (
	"sort"
	"strings"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

// UntitledPlaceholder is shown for entries without a title. It is never stored.
const UntitledPlaceholder = "Untitled Entry"

// Entry is a private journal entry. ID, OwnerID, CreatedAt and Revision are
// assigned by the store.
type Entry struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Mood      mood.Category `json:"mood"`
	Tags      []string      `json:"tags"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Revision  int64         `json:"revision"`
}

// DisplayTitle returns the title or the untitled placeholder.
func (e Entry) DisplayTitle() string {
	if strings.TrimSpace(e.Title) == "" {
		return UntitledPlaceholder
	}
	return e.Title
}

// EffectiveMood returns the stored mood, or one derived from the content
// when the stored value is missing or outside the closed set.
func (e Entry) EffectiveMood() mood.Category {
	if e.Mood.Valid() {
		return e.Mood
	}
	return mood.Classify(e.Content)
}

// Clone returns a deep copy so callers can mutate tags freely.
func (e Entry) Clone() Entry {
	if e.Tags != nil {
		tags := make([]string, len(e.Tags))
		copy(tags, e.Tags)
		e.Tags = tags
	}
	return e
}

// EntryDraft is the author-supplied part of a new entry. It deliberately has
// no owner field: ownership always comes from the active session.
type EntryDraft struct {
	Title   string
	Content string
	Mood    mood.Category // empty means "derive from content"
	Tags    []string
}

// EntryPatch lists the fields an update may change. Nil fields are left as is.
type EntryPatch struct {
	Title   *string
	Content *string
	Mood    *mood.Category
	Tags    *[]string
}

// Empty reports whether the patch carries no field at all.
func (p EntryPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Mood == nil && p.Tags == nil
}

// Apply returns a copy of e with the patch's fields set. Identity fields and
// timestamps are never touched.
func (p EntryPatch) Apply(e Entry) Entry {
	out := e.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Content != nil {
		out.Content = *p.Content
	}
	if p.Mood != nil {
		out.Mood = *p.Mood
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}
	return out
}

// NormalizeTags trims labels, drops empties and duplicates, and sorts the
// result so equal sets compare equal.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SortEntries orders entries by CreatedAt descending, falling back to ID
// descending for identical timestamps.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
