package mood_test

import (
	"testing"

	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want mood.Category
	}{
		{"empty", "", mood.Neutral},
		{"no keywords", "went to the store and came back", mood.Neutral},
		{"single happy", "I am happy", mood.Happy},
		{"two happy", "I am so happy and excited today!", mood.Happy},
		{"three happy", "happy happy joy great", mood.VeryHappy},
		{"happy beats single sad", "I feel happy, great and full of joy, but a little sad", mood.VeryHappy},
		{"sad ties anxious", "I am sad and upset, worried and nervous", mood.Sad},
		{"very sad", "sad, depressed and crying all night", mood.VerySad},
		{"anxious ties angry", "stressed and annoyed", mood.Anxious},
		{"angry only", "I am furious", mood.Angry},
		{"case insensitive", "HAPPY", mood.Happy},
		{"happy ties sad", "happy but sad", mood.Happy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mood.Classify(tt.text))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "worried about the presentation but I love my team"
	first := mood.Classify(text)
	for range 10 {
		assert.Equal(t, first, mood.Classify(text))
	}
}

func TestClassify_RepeatedKeywordCountsOnce(t *testing.T) {
	scores := mood.Score("sad sad sad")
	assert.Equal(t, 1, scores.Sad)
	assert.Equal(t, mood.Sad, scores.Category())
}

func TestClassifyAny_NonText(t *testing.T) {
	var nilString *string
	text := "furious"

	assert.Equal(t, mood.Neutral, mood.ClassifyAny(nil))
	assert.Equal(t, mood.Neutral, mood.ClassifyAny(42))
	assert.Equal(t, mood.Neutral, mood.ClassifyAny(map[string]any{"happy": true}))
	assert.Equal(t, mood.Neutral, mood.ClassifyAny(nilString))
	assert.Equal(t, mood.Angry, mood.ClassifyAny(&text))
	assert.Equal(t, mood.Happy, mood.ClassifyAny([]byte("joy")))
}

func TestScores_PriorityOrder(t *testing.T) {
	tests := []struct {
		scores mood.Scores
		want   mood.Category
	}{
		{mood.Scores{Happy: 1, Sad: 1, Anxious: 1, Angry: 1}, mood.Happy},
		{mood.Scores{Sad: 2, Anxious: 2, Angry: 2}, mood.Sad},
		{mood.Scores{Anxious: 1, Angry: 1}, mood.Anxious},
		{mood.Scores{Happy: 1, Sad: 2}, mood.Sad},
		{mood.Scores{Happy: 1, Angry: 2}, mood.Angry},
		{mood.Scores{Sad: 3, Angry: 3}, mood.VerySad},
		{mood.Scores{}, mood.Neutral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.scores.Category(), "%+v", tt.scores)
	}
}
