package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/services"
)

type ArchiveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
	Name    string `json:"name"`
}

// Export downloads every entry of the caller as a JSON attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.journalFor(identityFrom(r.Context())).Export(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	filename := fmt.Sprintf("journal-export-%s.json", doc.ExportDate.Format(dayLayout))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, doc)
}

// ArchiveExport uploads the export document and returns where it is kept.
func (h *Handler) ArchiveExport(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	doc, err := h.journalFor(ident).Export(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	name := services.ArchiveName(ident.UserID, doc.ExportDate)
	url, err := h.archive.Store(r.Context(), name, data)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "export archived",
		logger.Component, logger.ComponentArchive,
		logger.Operation, logger.OpExport,
		logger.UserID, ident.UserID,
	)
	writeJSON(w, http.StatusCreated, ArchiveResponse{Success: true, Message: "Export archived", URL: url, Name: name})
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
