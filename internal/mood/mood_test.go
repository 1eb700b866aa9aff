package mood_test

import (
	"testing"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	for _, c := range mood.All() {
		got, ok := mood.Parse(string(c))
		assert.True(t, ok, c)
		assert.Equal(t, c, got)
	}

	_, ok := mood.Parse("ecstatic")
	assert.False(t, ok)
	_, ok = mood.Parse("")
	assert.False(t, ok)
}

func TestAll_ClosedSet(t *testing.T) {
	want := []mood.Category{"very-happy", "happy", "neutral", "sad", "very-sad", "angry", "anxious", "excited"}
	assert.Equal(t, want, mood.All())
}

func TestSuggestCoping(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range mood.All() {
		s := mood.SuggestCoping(c)
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "coping strings must be distinct")
		seen[s] = true
	}

	assert.Equal(t, "Take a deep breath and be kind to yourself.", mood.SuggestCoping("unknown"))
	assert.Contains(t, mood.SuggestCoping(mood.Anxious), "4-7-8")
}

func TestPresentation(t *testing.T) {
	assert.Equal(t, "Very Happy", mood.VeryHappy.Label())
	assert.Equal(t, "#EF4444", mood.Angry.Color())
	assert.Equal(t, mood.PlaceholderColor(), mood.Category("nope").Color())
	assert.Len(t, mood.Legends(), 8)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Entry about very happy feelings", mood.Summary(mood.VeryHappy))
	assert.Equal(t, "Entry about neutral feelings", mood.Summary("bogus"))
}

func TestDailyTip_StablePerDay(t *testing.T) {
	day := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)
	later := time.Date(2026, time.March, 3, 22, 0, 0, 0, time.UTC)

	assert.Equal(t, mood.DailyTip(day), mood.DailyTip(later))
	assert.NotEmpty(t, mood.DailyTip(day))
}
