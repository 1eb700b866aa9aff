package calendar_test

import (
	"fmt"
	"testing"

	"github.com/AnshRaj112/mindjournal-backend/internal/calendar"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	eng := calendar.Engine{Location: rome}
	now := at(rome, 2026, 4, 10, 21, 0)

	var entries []models.Entry
	for i := 0; i < 6; i++ {
		entries = append(entries, mk(fmt.Sprintf("e%d", i), at(rome, 2026, 4, 1+i, 10, 0), mood.Sad, ""))
	}
	entries = append(entries, mk("today", at(rome, 2026, 4, 10, 8, 0), "", "so happy"))

	d := eng.Dashboard(entries, now)

	assert.Equal(t, 7, d.TotalEntries)
	require.Len(t, d.Recent, 5)
	assert.Equal(t, "today", d.Recent[0].ID)
	assert.Equal(t, mood.Happy, d.MoodCharacter)
	assert.NotEmpty(t, d.DailyTip)

	require.Len(t, d.Trend, 7)
	assert.Equal(t, "Apr 04", d.Trend[0].Label)
	assert.Equal(t, "Apr 10", d.Trend[6].Label)
	require.NotNil(t, d.Trend[6].Mood)
	assert.Equal(t, mood.Happy, *d.Trend[6].Mood)
	assert.Nil(t, d.Trend[3].Mood, "Apr 07 has no entries")
	assert.Equal(t, 0, d.Trend[3].Count)
	// Apr 4, 5, 6 and 10.
	assert.Equal(t, 4, d.DaysThisWeek)
}

func TestDashboard_Empty(t *testing.T) {
	d := calendar.Engine{Location: rome}.Dashboard(nil, at(rome, 2026, 4, 10, 12, 0))

	assert.Equal(t, mood.Neutral, d.MoodCharacter)
	assert.Empty(t, d.Recent)
	assert.Zero(t, d.DaysThisWeek)
	assert.Len(t, d.Trend, 7)
}
