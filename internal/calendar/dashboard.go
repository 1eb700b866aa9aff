package calendar

import (
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

const (
	recentLimit = 5
	trendDays   = 7
	trendLabel  = "Jan 02"
)

// TrendDay is one column of the weekly mood trend. Mood is nil for a day
// without entries.
type TrendDay struct {
	Date  time.Time      `json:"date"`
	Label string         `json:"label"`
	Mood  *mood.Category `json:"mood"`
	Count int            `json:"count"`
}

// DashboardSummary is everything the home screen shows.
type DashboardSummary struct {
	Recent        []models.Entry `json:"recent"`
	Trend         []TrendDay     `json:"trend"`
	TotalEntries  int            `json:"total_entries"`
	DaysThisWeek  int            `json:"days_this_week"`
	MoodCharacter mood.Category  `json:"mood_character"`
	DailyTip      string         `json:"daily_tip"`
}

// Dashboard summarises entries as of now.
func (e Engine) Dashboard(entries []models.Entry, now time.Time) DashboardSummary {
	sorted := make([]models.Entry, len(entries))
	for i, entry := range entries {
		sorted[i] = entry.Clone()
		sorted[i].Mood = entry.EffectiveMood()
	}
	models.SortEntries(sorted)

	summary := DashboardSummary{
		Recent:        sorted[:min(recentLimit, len(sorted))],
		TotalEntries:  len(sorted),
		MoodCharacter: mood.Neutral,
		DailyTip:      mood.DailyTip(e.Day(now)),
	}
	if len(sorted) > 0 {
		summary.MoodCharacter = sorted[0].Mood
	}

	for _, b := range e.TrailingWindow(sorted, trendDays, now) {
		day := TrendDay{Date: b.Date, Label: b.Date.Format(trendLabel), Count: len(b.Entries)}
		if m, ok := MoodForDay(b); ok {
			day.Mood = &m
			summary.DaysThisWeek++
		}
		summary.Trend = append(summary.Trend, day)
	}
	return summary
}
