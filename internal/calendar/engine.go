// Package calendar groups entries into local calendar days, month grids and
// trailing trend windows. Results are computed from the snapshot passed in
// and never cached.
package calendar

import (
	"fmt"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

// DayBucket holds the entries created on one local calendar day, newest
// first.
type DayBucket struct {
	Date    time.Time      `json:"date"`
	Entries []models.Entry `json:"entries"`
}

// Primary is the most recent entry of the day.
func (b DayBucket) Primary() (models.Entry, bool) {
	if len(b.Entries) == 0 {
		return models.Entry{}, false
	}
	return b.Entries[0], true
}

// Engine aggregates in a fixed location. The zero value uses time.Local.
type Engine struct {
	Location *time.Location
}

func (e Engine) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// Day returns local midnight of t's calendar day.
func (e Engine) Day(t time.Time) time.Time {
	loc := e.loc()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

type dayKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// index groups copies of entries by local day. Copies get an effective mood
// so callers never see an entry without one; the input is not modified.
func (e Engine) index(entries []models.Entry) map[dayKey][]models.Entry {
	loc := e.loc()
	out := make(map[dayKey][]models.Entry)
	for _, entry := range entries {
		c := entry.Clone()
		c.Mood = entry.EffectiveMood()
		k := keyOf(entry.CreatedAt.In(loc))
		out[k] = append(out[k], c)
	}
	for k := range out {
		models.SortEntries(out[k])
	}
	return out
}

func (e Engine) bucket(idx map[dayKey][]models.Entry, day time.Time) DayBucket {
	entries := idx[keyOf(day)]
	if entries == nil {
		entries = []models.Entry{}
	}
	return DayBucket{Date: day, Entries: entries}
}

// BucketByDay selects the entries whose createdAt falls on date's local day.
func (e Engine) BucketByDay(entries []models.Entry, date time.Time) DayBucket {
	return e.bucket(e.index(entries), e.Day(date))
}

// MonthGrid returns one bucket per day of anchor's month, first to last,
// with no padding from adjacent months.
func (e Engine) MonthGrid(entries []models.Entry, anchor time.Time) []DayBucket {
	day := e.Day(anchor)
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, e.loc())
	last := first.AddDate(0, 1, -1)

	idx := e.index(entries)
	grid := make([]DayBucket, 0, last.Day())
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		grid = append(grid, e.bucket(idx, d))
	}
	return grid
}

// TrailingWindow returns size buckets ending at anchor's day inclusive,
// oldest first. It panics if size is not positive.
func (e Engine) TrailingWindow(entries []models.Entry, size int, anchor time.Time) []DayBucket {
	if size <= 0 {
		panic(fmt.Sprintf("calendar: trailing window size must be positive, got %d", size))
	}
	end := e.Day(anchor)
	idx := e.index(entries)
	window := make([]DayBucket, 0, size)
	for i := size - 1; i >= 0; i-- {
		window = append(window, e.bucket(idx, end.AddDate(0, 0, -i)))
	}
	return window
}

// MoodForDay returns the primary entry's mood. ok is false for an empty
// day, which is distinct from a neutral one.
func MoodForDay(b DayBucket) (mood.Category, bool) {
	primary, ok := b.Primary()
	if !ok {
		return "", false
	}
	return primary.EffectiveMood(), true
}

// MoodCounts counts the primary mood of every non-empty bucket.
func MoodCounts(buckets []DayBucket) map[mood.Category]int {
	counts := make(map[mood.Category]int)
	for _, b := range buckets {
		if m, ok := MoodForDay(b); ok {
			counts[m]++
		}
	}
	return counts
}
