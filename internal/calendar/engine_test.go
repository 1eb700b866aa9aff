package calendar_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/AnshRaj112/mindjournal-backend/internal/calendar"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rome = mustLoad("Europe/Rome")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func at(loc *time.Location, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func mk(id string, created time.Time, m mood.Category, content string) models.Entry {
	return models.Entry{ID: id, OwnerID: "u1", CreatedAt: created.UTC(), Mood: m, Content: content}
}

func TestBucketByDay_PrimaryIsMostRecent(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	entries := []models.Entry{
		mk("morning", at(rome, 2026, 4, 9, 9, 0), mood.Sad, ""),
		mk("evening", at(rome, 2026, 4, 9, 18, 0), mood.Happy, ""),
		mk("next-day", at(rome, 2026, 4, 10, 8, 0), mood.Angry, ""),
	}

	b := eng.BucketByDay(entries, at(rome, 2026, 4, 9, 12, 0))

	require.Len(t, b.Entries, 2)
	primary, ok := b.Primary()
	require.True(t, ok)
	assert.Equal(t, "evening", primary.ID)
	assert.Equal(t, "morning", b.Entries[1].ID)

	m, ok := calendar.MoodForDay(b)
	assert.True(t, ok)
	assert.Equal(t, mood.Happy, m)
}

func TestBucketByDay_UsesLocalCalendarDate(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	// 23:30 UTC on the 9th is already the 10th in Rome.
	late := mk("late", time.Date(2026, 4, 9, 23, 30, 0, 0, time.UTC), mood.Happy, "")

	assert.Empty(t, eng.BucketByDay([]models.Entry{late}, at(rome, 2026, 4, 9, 12, 0)).Entries)
	assert.Len(t, eng.BucketByDay([]models.Entry{late}, at(rome, 2026, 4, 10, 0, 0)).Entries, 1)
}

func TestMonthGrid_ExactlyTheDaysOfTheMonth(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	entries := []models.Entry{
		mk("mar", at(rome, 2026, 3, 31, 10, 0), mood.Happy, ""),
		mk("apr", at(rome, 2026, 4, 15, 10, 0), mood.Sad, ""),
		mk("may", at(rome, 2026, 5, 1, 10, 0), mood.Angry, ""),
	}

	grid := eng.MonthGrid(entries, at(rome, 2026, 4, 20, 0, 0))

	require.Len(t, grid, 30)
	for i, b := range grid {
		assert.Equal(t, i+1, b.Date.Day())
		assert.Equal(t, time.April, b.Date.Month())
	}
	assert.Len(t, grid[14].Entries, 1)
	total := 0
	for _, b := range grid {
		total += len(b.Entries)
	}
	assert.Equal(t, 1, total, "adjacent months must not leak in")

	assert.Len(t, eng.MonthGrid(nil, at(rome, 2028, 2, 10, 0, 0)), 29)
}

func TestTrailingWindow(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	anchor := at(rome, 2026, 4, 10, 15, 0)
	entries := []models.Entry{
		mk("today", at(rome, 2026, 4, 10, 9, 0), mood.Happy, ""),
		mk("six-ago", at(rome, 2026, 4, 4, 9, 0), mood.Sad, ""),
		mk("seven-ago", at(rome, 2026, 4, 3, 9, 0), mood.Angry, ""),
	}

	window := eng.TrailingWindow(entries, 7, anchor)

	require.Len(t, window, 7)
	assert.Equal(t, 4, window[0].Date.Day())
	assert.Equal(t, 10, window[6].Date.Day())
	assert.Equal(t, "six-ago", window[0].Entries[0].ID)
	assert.Equal(t, "today", window[6].Entries[0].ID)
	for _, b := range window[1:6] {
		_, ok := calendar.MoodForDay(b)
		assert.False(t, ok)
	}
}

func TestTrailingWindow_PanicsOnNonPositiveSize(t *testing.T) {
	eng := calendar.Engine{}
	assert.Panics(t, func() { eng.TrailingWindow(nil, 0, time.Now()) })
	assert.Panics(t, func() { eng.TrailingWindow(nil, -3, time.Now()) })
}

func TestMoodForDay_AbsentIsNotNeutral(t *testing.T) {
	m, ok := calendar.MoodForDay(calendar.DayBucket{})
	assert.False(t, ok)
	assert.Empty(t, m)

	neutral := calendar.DayBucket{Entries: []models.Entry{{Mood: mood.Neutral}}}
	m, ok = calendar.MoodForDay(neutral)
	assert.True(t, ok)
	assert.Equal(t, mood.Neutral, m)
}

func TestMissingMoodIsDerivedWithoutMutatingInput(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	entries := []models.Entry{mk("e", at(rome, 2026, 4, 9, 9, 0), "", "feeling anxious and worried")}

	b := eng.BucketByDay(entries, at(rome, 2026, 4, 9, 0, 0))

	require.Len(t, b.Entries, 1)
	assert.Equal(t, mood.Anxious, b.Entries[0].Mood)
	assert.Empty(t, entries[0].Mood)
}

func TestAggregationIsDeterministic(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	entries := []models.Entry{
		mk("a", at(rome, 2026, 4, 9, 9, 0), mood.Happy, ""),
		mk("b", at(rome, 2026, 4, 9, 9, 0), mood.Sad, ""),
	}
	first := eng.MonthGrid(entries, at(rome, 2026, 4, 1, 0, 0))
	second := eng.MonthGrid(entries, at(rome, 2026, 4, 1, 0, 0))
	assert.Equal(t, first, second)
	assert.Equal(t, "b", first[8].Entries[0].ID, "equal timestamps fall back to id descending")
}

func TestMoodCounts(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	entries := []models.Entry{
		mk("1", at(rome, 2026, 4, 1, 9, 0), mood.Happy, ""),
		mk("2", at(rome, 2026, 4, 1, 20, 0), mood.Sad, ""),
		mk("3", at(rome, 2026, 4, 2, 9, 0), mood.Sad, ""),
		mk("4", at(rome, 2026, 4, 3, 9, 0), mood.Happy, ""),
	}

	counts := calendar.MoodCounts(eng.MonthGrid(entries, at(rome, 2026, 4, 1, 0, 0)))

	assert.Equal(t, 2, counts[mood.Sad])
	assert.Equal(t, 1, counts[mood.Happy])
}
