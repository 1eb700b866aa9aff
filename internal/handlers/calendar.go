package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/calendar"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 366
	monthLayout      = "2006-01"
	dayLayout        = "2006-01-02"
)

// DayView is one calendar cell. Mood is empty for a day without entries.
type DayView struct {
	Date    string        `json:"date"`
	Count   int           `json:"count"`
	Mood    mood.Category `json:"mood,omitempty"`
	Emoji   string        `json:"emoji,omitempty"`
	Color   string        `json:"color"`
	Primary *EntryView    `json:"primary,omitempty"`
}

func dayView(b calendar.DayBucket) DayView {
	v := DayView{Date: b.Date.Format(dayLayout), Count: len(b.Entries), Color: mood.PlaceholderColor()}
	if m, ok := calendar.MoodForDay(b); ok {
		v.Mood, v.Emoji, v.Color = m, m.Emoji(), m.Color()
	}
	if e, ok := b.Primary(); ok {
		pv := entryView(e)
		v.Primary = &pv
	}
	return v
}

func dayViews(buckets []calendar.DayBucket) []DayView {
	out := make([]DayView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dayView(b))
	}
	return out
}

type CalendarResponse struct {
	Success bool                  `json:"success"`
	Month   string                `json:"month"`
	Days    []DayView             `json:"days"`
	Counts  map[mood.Category]int `json:"counts"`
	Legend  []mood.Legend         `json:"legend"`
}

type TrendResponse struct {
	Success bool                  `json:"success"`
	Anchor  string                `json:"anchor"`
	Days    []DayView             `json:"days"`
	Counts  map[mood.Category]int `json:"counts"`
}

type DashboardResponse struct {
	Success bool `json:"success"`
	calendar.DashboardSummary
	Recent []EntryView `json:"recent"`
}

// engineFor builds the aggregation engine in the caller's timezone.
func (h *Handler) engineFor(r *http.Request) calendar.Engine {
	prefs, err := h.accounts.Preferences(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		h.log.WarnContext(r.Context(), "preferences unavailable, using default timezone", logger.Error, err)
		return calendar.Engine{Location: h.location}
	}
	return calendar.Engine{Location: prefs.Location(h.location)}
}

// Calendar returns the month grid for ?month=YYYY-MM, defaulting to the
// current month.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(r)
	anchor := h.now().In(engine.Location)
	if q := r.URL.Query().Get("month"); q != "" {
		t, err := time.ParseInLocation(monthLayout, q, engine.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, kindValidation, "month must be YYYY-MM")
			return
		}
		anchor = t
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	grid := engine.MonthGrid(snap.Entries, anchor)
	writeJSON(w, http.StatusOK, CalendarResponse{
		Success: true,
		Month:   anchor.Format(monthLayout),
		Days:    dayViews(grid),
		Counts:  calendar.MoodCounts(grid),
		Legend:  mood.Legends(),
	})
}

// Trend returns ?days= buckets ending at ?anchor=YYYY-MM-DD, oldest first.
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(r)
	q := r.URL.Query()

	days := defaultTrendDays
	if s := q.Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxTrendDays {
			writeError(w, http.StatusBadRequest, kindValidation, "days must be between 1 and 366")
			return
		}
		days = n
	}
	anchor := h.now().In(engine.Location)
	if s := q.Get("anchor"); s != "" {
		t, err := time.ParseInLocation(dayLayout, s, engine.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, kindValidation, "anchor must be YYYY-MM-DD")
			return
		}
		anchor = t
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	window := engine.TrailingWindow(snap.Entries, days, anchor)
	writeJSON(w, http.StatusOK, TrendResponse{
		Success: true,
		Anchor:  engine.Day(anchor).Format(dayLayout),
		Days:    dayViews(window),
		Counts:  calendar.MoodCounts(window),
	})
}

// Dashboard returns the home screen summary.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(r)
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	summary := engine.Dashboard(snap.Entries, h.now())
	writeJSON(w, http.StatusOK, DashboardResponse{
		Success:          true,
		DashboardSummary: summary,
		Recent:           entryViews(summary.Recent),
	})
}

type ClassifyResponse struct {
	Success bool          `json:"success"`
	Mood    mood.Category `json:"mood"`
	Label   string        `json:"label"`
	Emoji   string        `json:"emoji"`
	Color   string        `json:"color"`
	Scores  mood.Scores   `json:"scores"`
	Summary string        `json:"summary"`
	Coping  string        `json:"coping"`
}

// ClassifyMood previews the mood derived from ?text= without storing
// anything.
func (h *Handler) ClassifyMood(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	m := mood.Classify(text)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Success: true,
		Mood:    m,
		Label:   m.Label(),
		Emoji:   m.Emoji(),
		Color:   m.Color(),
		Scores:  mood.Score(text),
		Summary: mood.Summary(m),
		Coping:  mood.SuggestCoping(m),
	})
}

type PreferencesResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Preferences models.Preferences `json:"preferences"`
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.Preferences(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferencesResponse{Success: true, Preferences: p})
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req models.PreferencesUpdate
	if !h.decodeJSON(w, r, &req) {
		return
	}
	p, err := h.accounts.UpdatePreferences(r.Context(), identityFrom(r.Context()).UserID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PreferencesResponse{Success: true, Message: "Preferences saved", Preferences: p})
}
