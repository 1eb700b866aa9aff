// Package handlers exposes the journal over HTTP and WebSocket.
package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/accounts"
	"github.com/AnshRaj112/mindjournal-backend/internal/journal"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/services"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
	"github.com/AnshRaj112/mindjournal-backend/internal/store"
	"github.com/AnshRaj112/mindjournal-backend/internal/validation"
)

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	backend  store.Backend
	tokens   session.Tokens
	accounts *accounts.Service
	archive  services.Archive
	validate *validation.Validator
	location *time.Location
	log      *slog.Logger
	now      func() time.Time

	allowedOrigins []string

	streams      context.Context
	closeStreams context.CancelFunc
}

// Deps configures New. Archive, Location, Logger and Now are optional.
type Deps struct {
	Backend        store.Backend
	Tokens         session.Tokens
	Accounts       *accounts.Service
	Archive        services.Archive
	Location       *time.Location
	Logger         *slog.Logger
	Now            func() time.Time
	AllowedOrigins []string
}

func New(d Deps) *Handler {
	h := &Handler{
		backend:        d.Backend,
		tokens:         d.Tokens,
		accounts:       d.Accounts,
		archive:        d.Archive,
		validate:       validation.New(),
		location:       d.Location,
		log:            d.Logger,
		now:            d.Now,
		allowedOrigins: d.AllowedOrigins,
	}
	if h.archive == nil {
		h.archive = services.Disabled{}
	}
	if h.location == nil {
		h.location = time.UTC
	}
	if h.log == nil {
		h.log = logger.Discard()
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.streams, h.closeStreams = context.WithCancel(context.Background())
	return h
}

// CloseStreams ends every open WebSocket stream. http.Server.Shutdown does
// not track hijacked connections, so register this with RegisterOnShutdown.
func (h *Handler) CloseStreams() {
	h.closeStreams()
}

// journalFor returns a request-scoped client acting as ident.
func (h *Handler) journalFor(ident session.Identity) *journal.Client {
	return journal.New(h.backend, session.Static(ident),
		journal.WithLogger(h.log),
		journal.WithClock(h.now),
	)
}
