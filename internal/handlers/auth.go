package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
	"github.com/AnshRaj112/mindjournal-backend/pkg/utils"
)

type contextKey string

const (
	contextKeyIdentity contextKey = "identity"
	contextKeyToken    contextKey = "token"
)

// CredentialsRequest is the body of signup and signin.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type CheckUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// UserView is the public part of an account.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type AuthResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    UserView `json:"user"`
	Token   string   `json:"token,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func userView(u models.User) UserView {
	return UserView{ID: u.ID.String(), Username: u.Username, CreatedAt: u.CreatedAt}
}

func extractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireIdentity rejects requests without a valid bearer token and stores
// the session identity in the request context. Valid tokens are refreshed.
func (h *Handler) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, kindUnauthorized, "Authentication required")
			return
		}
		ident, ok, err := h.tokens.Validate(r.Context(), token)
		if err != nil {
			h.log.ErrorContext(r.Context(), "session lookup failed", logger.Component, logger.ComponentSession, logger.Error, err)
			writeError(w, http.StatusServiceUnavailable, kindUnavailable, "Session store unavailable")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid or expired session")
			return
		}
		if err := h.tokens.Refresh(r.Context(), token); err != nil && !errors.Is(err, session.ErrNoSession) {
			h.log.WarnContext(r.Context(), "session refresh failed", logger.Component, logger.ComponentSession, logger.Error, err)
		}

		ctx := context.WithValue(r.Context(), contextKeyIdentity, ident)
		ctx = context.WithValue(ctx, contextKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom returns the identity stored by RequireIdentity.
func identityFrom(ctx context.Context) session.Identity {
	ident, _ := ctx.Value(contextKeyIdentity).(session.Identity)
	return ident
}

func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, u models.User, status int, message string) {
	token, err := h.tokens.Create(r.Context(), session.Identity{UserID: u.ID.String(), Username: u.Username})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, status, AuthResponse{
		Success: true,
		Message: message,
		User:    userView(u),
		Token:   token,
	})
}

// Signup creates an account and signs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	u, err := h.accounts.SignUp(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.issueSession(w, r, u, http.StatusCreated, "Account created successfully")
}

// Signin exchanges credentials for a session token. Any earlier session of
// the user is replaced.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	u, err := h.accounts.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.issueSession(w, r, u, http.StatusOK, "Signed in successfully")
}

// Signout invalidates the presented token.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	token, _ := r.Context().Value(contextKeyToken).(string)
	if err := h.tokens.Invalidate(r.Context(), token); err != nil && !errors.Is(err, session.ErrNoSession) {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Signed out"})
}

type DeleteAccountResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EntriesRemoved int    `json:"entries_removed"`
}

// DeleteAccount removes the caller's entries, preferences and account, then
// ends every session of the user.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ident := identityFrom(ctx)

	removed, err := h.journalFor(ident).RemoveAll(ctx)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.accounts.DeleteAccount(ctx, ident.UserID); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.tokens.InvalidateUser(ctx, ident.UserID); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log.InfoContext(ctx, "account deleted", logger.UserID, ident.UserID, "entries_removed", removed)
	writeJSON(w, http.StatusOK, DeleteAccountResponse{Success: true, Message: "Account deleted", EntriesRemoved: removed})
}

// Me returns the signed-in account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	u, err := h.accounts.User(r.Context(), ident.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "OK", User: userView(u)})
}

type CheckUsernameResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// CheckUsername reports whether a username is well formed and unused.
func (h *Handler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	var req CheckUsernameRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeJSON(w, http.StatusOK, CheckUsernameResponse{Success: true, Available: false, Message: err.Error()})
		return
	}
	available, err := h.accounts.UsernameAvailable(r.Context(), req.Username)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	msg := "Username is available"
	if !available {
		msg = "Username is already taken"
	}
	writeJSON(w, http.StatusOK, CheckUsernameResponse{Success: true, Available: available, Message: msg})
}
