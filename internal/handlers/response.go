package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/AnshRaj112/mindjournal-backend/internal/accounts"
	"github.com/AnshRaj112/mindjournal-backend/internal/journal"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/services"
	"github.com/AnshRaj112/mindjournal-backend/internal/store"
	"github.com/AnshRaj112/mindjournal-backend/internal/validation"
	"github.com/AnshRaj112/mindjournal-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Error kinds reported to clients besides the journal kinds.
const (
	kindValidation      = "validation"
	kindUnauthorized    = "unauthorized"
	kindConflict        = "conflict"
	kindUnavailable     = "unavailable"
	kindInternal        = "internal"
	kindArchiveDisabled = "archive_disabled"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Kind: kind, Message: message})
}

// decodeJSON reads a JSON body into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, kindValidation, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	if err := h.validate.Validate(dst); err != nil {
		h.respondError(w, r, err)
		return false
	}
	return true
}

// respondError maps err to a status and a JSON body.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Kind: kindValidation, Message: "Invalid request", Fields: verr.Fields,
		})
		return
	}
	var uerr *utils.ValidationError
	if errors.As(err, &uerr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Kind: kindValidation, Message: uerr.Message, Fields: map[string]string{uerr.Field: uerr.Message},
		})
		return
	}

	switch {
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid username or password")
		return
	case errors.Is(err, accounts.ErrUsernameTaken):
		writeError(w, http.StatusConflict, kindConflict, "Username is already taken")
		return
	case errors.Is(err, accounts.ErrUserNotFound):
		writeError(w, http.StatusNotFound, string(journal.KindNotFound), "User not found")
		return
	case errors.Is(err, services.ErrArchiveDisabled):
		writeError(w, http.StatusServiceUnavailable, kindArchiveDisabled, "Export archive is not configured")
		return
	}

	var jerr *journal.Error
	if errors.As(err, &jerr) {
		writeError(w, journalStatus(jerr), string(jerr.Kind), jerr.Error())
		return
	}

	h.log.ErrorContext(r.Context(), "request failed",
		logger.Path, r.URL.Path,
		logger.Error, err,
	)
	writeError(w, http.StatusInternalServerError, kindInternal, "Internal server error")
}

func journalStatus(err *journal.Error) int {
	switch err.Kind {
	case journal.KindNotFound:
		return http.StatusNotFound
	case journal.KindPermission:
		return http.StatusForbidden
	case journal.KindSubscription:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, store.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}
