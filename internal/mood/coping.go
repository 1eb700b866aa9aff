package mood

import (
	"strings"
	"time"
)

const defaultCoping = "Take a deep breath and be kind to yourself."

var coping = map[Category]string{
	VeryHappy: "Share your positive energy! Consider reaching out to a friend or doing something kind for others.",
	Happy:     "Great mood! This might be a perfect time to tackle a challenging task or try something new.",
	Neutral:   "A balanced state of mind. Consider practicing mindfulness or reflection to connect with your inner thoughts.",
	Sad:       "It's okay to feel sad. Try gentle activities like a warm bath, listening to soothing music, or journaling.",
	VerySad:   "Remember that difficult emotions pass. Consider reaching out to someone you trust or practicing deep breathing exercises.",
	Angry:     "When angry, physical movement can help. Try going for a walk, doing some stretches, or practicing progressive muscle relaxation.",
	Anxious:   "For anxiety, try the 4-7-8 breathing technique: breathe in for 4, hold for 7, exhale for 8. Grounding exercises can also help.",
	Excited:   "Channel this positive energy into something productive! Consider starting a project you've been putting off.",
}

// SuggestCoping returns the guidance string for a mood.
func SuggestCoping(c Category) string {
	if s, ok := coping[c]; ok {
		return s
	}
	return defaultCoping
}

// Summary is the short one-line description shown with an entry.
func Summary(c Category) string {
	if !c.Valid() {
		c = Neutral
	}
	return "Entry about " + strings.ReplaceAll(string(c), "-", " ") + " feelings"
}

var dailyTips = []string{
	"Take three deep breaths and focus on the present moment.",
	"Try a 5-minute mindfulness meditation.",
	"Write down three things you're grateful for today.",
	"Go for a short walk in nature or fresh air.",
	"Listen to your favorite calming music.",
}

// DailyTip picks the dashboard tip for a calendar day. The same day always
// yields the same tip.
func DailyTip(day time.Time) string {
	return dailyTips[day.YearDay()%len(dailyTips)]
}
