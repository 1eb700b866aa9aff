package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindjournal-backend/internal/journal"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/mood"
)

// EntryView is an entry plus the presentation fields the client renders.
type EntryView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	DisplayTitle string        `json:"display_title"`
	Content      string        `json:"content"`
	Mood         mood.Category `json:"mood"`
	MoodLabel    string        `json:"mood_label"`
	MoodEmoji    string        `json:"mood_emoji"`
	MoodColor    string        `json:"mood_color"`
	Tags         []string      `json:"tags"`
	AISummary    string        `json:"ai_summary"`
	Coping       string        `json:"coping"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Revision     int64         `json:"revision"`
}

func entryView(e models.Entry) EntryView {
	m := e.EffectiveMood()
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryView{
		ID:           e.ID,
		Title:        e.Title,
		DisplayTitle: e.DisplayTitle(),
		Content:      e.Content,
		Mood:         m,
		MoodLabel:    m.Label(),
		MoodEmoji:    m.Emoji(),
		MoodColor:    m.Color(),
		Tags:         tags,
		AISummary:    mood.Summary(m),
		Coping:       mood.SuggestCoping(m),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Revision:     e.Revision,
	}
}

func entryViews(entries []models.Entry) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryView(e))
	}
	return out
}

type CreateEntryRequest struct {
	Title   string   `json:"title" validate:"max=200"`
	Content string   `json:"content" validate:"max=20000"`
	Mood    string   `json:"mood,omitempty" validate:"omitempty,mood"`
	Tags    []string `json:"tags,omitempty" validate:"max=20,dive,max=40"`
}

// UpdateEntryRequest only changes the fields present in the body.
type UpdateEntryRequest struct {
	Title   *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Content *string   `json:"content,omitempty" validate:"omitempty,max=20000"`
	Mood    *string   `json:"mood,omitempty" validate:"omitempty,mood"`
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=40"`
}

func (req UpdateEntryRequest) patch() models.EntryPatch {
	p := models.EntryPatch{Title: req.Title, Content: req.Content, Tags: req.Tags}
	if req.Mood != nil {
		m := mood.Category(*req.Mood)
		p.Mood = &m
	}
	return p
}

type EntryResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Entry   EntryView `json:"entry"`
}

type EntriesResponse struct {
	Success bool        `json:"success"`
	Entries []EntryView `json:"entries"`
	Total   int         `json:"total"`
}

// ListEntries returns the caller's entries, newest first.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{
		Success: true,
		Entries: entryViews(snap.Entries),
		Total:   len(snap.Entries),
	})
}

// CreateEntry stores a new entry owned by the caller.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	client := h.journalFor(identityFrom(r.Context()))
	id, err := client.Create(r.Context(), models.EntryDraft{
		Title:   req.Title,
		Content: req.Content,
		Mood:    mood.Category(req.Mood),
		Tags:    req.Tags,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	e, err := client.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, EntryResponse{Success: true, Message: "Entry created", Entry: entryView(e)})
}

// GetEntry returns one of the caller's entries.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.journalFor(identityFrom(r.Context())).GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: entryView(e)})
}

// UpdateEntry applies a partial update.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	client := h.journalFor(identityFrom(r.Context()))
	if err := client.Update(r.Context(), id, req.patch()); err != nil {
		h.respondError(w, r, err)
		return
	}
	e, err := client.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Message: "Entry updated", Entry: entryView(e)})
}

// DeleteEntry removes one of the caller's entries.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.journalFor(identityFrom(r.Context())).Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Entry deleted"})
}

// snapshot reads the caller's entries, writing the error response itself.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (journal.Snapshot, bool) {
	snap, err := h.journalFor(identityFrom(r.Context())).Snapshot(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return journal.Snapshot{}, false
	}
	return snap, true
}
