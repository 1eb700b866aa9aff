package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindjournal-backend/internal/handlers"
)

func SetupRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/health", h.Health)

	// Public auth routes
	r.Post("/api/auth/signup", h.Signup)
	r.Post("/api/auth/signin", h.Signin)
	r.Post("/api/auth/check-username", h.CheckUsername)

	// Mood preview does not touch any account data
	r.Get("/api/mood/classify", h.ClassifyMood)

	// The stream authenticates itself so a token can be supplied later
	r.Get("/ws/entries", h.EntriesWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireIdentity)

		r.Post("/api/auth/signout", h.Signout)
		r.Get("/api/auth/me", h.Me)
		r.Delete("/api/account", h.DeleteAccount)

		r.Route("/api/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Patch("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		r.Get("/api/calendar", h.Calendar)
		r.Get("/api/trend", h.Trend)
		r.Get("/api/dashboard", h.Dashboard)

		r.Get("/api/preferences", h.GetPreferences)
		r.Put("/api/preferences", h.UpdatePreferences)

		r.Get("/api/export", h.Export)
		r.Post("/api/export/archive", h.ArchiveExport)
	})
}
