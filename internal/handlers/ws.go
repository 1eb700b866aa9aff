package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/AnshRaj112/mindjournal-backend/internal/journal"
	"github.com/AnshRaj112/mindjournal-backend/internal/logger"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsReadLimit    = 16 * 1024

	// Inbound messages: two per second sustained, bursts of ten.
	wsMessageRate  = rate.Limit(2)
	wsMessageBurst = 10
)

// Message types on /ws/entries.
const (
	wsTypeAuth      = "auth"
	wsTypeLogout    = "logout"
	wsTypeSubscribe = "subscribe"
	wsTypePing      = "ping"
	wsTypePong      = "pong"
	wsTypeSnapshot  = "snapshot"
	wsTypeAuthOK    = "auth_ok"
	wsTypeLoggedOut = "logged_out"
	wsTypeError     = "error"
)

// EntriesClientMessage is sent by the browser.
type EntriesClientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// EntriesServerMessage is sent to the browser.
type EntriesServerMessage struct {
	Type    string      `json:"type"`
	OwnerID string      `json:"owner_id,omitempty"`
	Entries []EntryView `json:"entries,omitzero"`
	User    *UserView   `json:"user,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
}

func (c *wsConn) send(msg EntriesServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(msg)
}

func (c *wsConn) writeLocked(msg EntriesServerMessage) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

// sendSnapshot writes msg unless the session has moved to another owner
// since the snapshot was taken.
func (c *wsConn) sendSnapshot(state session.Provider, msg EntriesServerMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ident, _ := state.Current(); ident.UserID != msg.OwnerID {
		return nil
	}
	return c.writeLocked(msg)
}

// switchIdentity writes ack and then runs apply while holding the write
// lock. Snapshots of the old owner are rejected by sendSnapshot from then on
// and those of the new owner can only be written after ack.
func (c *wsConn) switchIdentity(ack EntriesServerMessage, apply func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.writeLocked(ack)
	apply()
	return err
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (c *wsConn) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(wsWriteWait))
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests from an allowed frontend.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if strings.EqualFold(strings.TrimSpace(allowed), origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// EntriesWebSocket streams live snapshots of the signed-in user's entries.
// The token may come from the Authorization header or ?token=, and may be
// changed later with an auth message. A logout message switches the stream
// to the empty signed-out snapshot.
func (h *Handler) EntriesWebSocket(w http.ResponseWriter, r *http.Request) {
	state := session.NewState()

	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token != "" {
		ident, ok, err := h.tokens.Validate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, kindUnavailable, "Session store unavailable")
			return
		}
		if !ok {
			writeError(w, http.StatusUnauthorized, kindUnauthorized, "Invalid or expired session")
			return
		}
		state.SetIdentity(ident)
	}

	up := h.upgrader()
	raw, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &wsConn{conn: raw}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stopOnShutdown := context.AfterFunc(h.streams, cancel)
	defer stopOnShutdown()

	log := h.log.With(logger.Component, logger.ComponentRealtime)
	client := journal.New(h.backend, state, journal.WithLogger(h.log), journal.WithClock(h.now))
	defer client.Close()
	resubscribe := make(chan struct{}, 1)

	go func() {
		defer cancel()
		h.pumpFeed(ctx, conn, client, state, resubscribe)
		conn.closeWith(websocket.CloseNormalClosure, "")
	}()

	h.readEntriesMessages(ctx, conn, state, resubscribe)
	conn.closeWith(websocket.CloseNormalClosure, "")
	log.Debug("entries stream closed")
}

// pumpFeed forwards snapshots and subscription failures until the
// connection ends. A failed feed is reported once and reopened only when the
// browser asks for it with auth, logout or subscribe.
func (h *Handler) pumpFeed(ctx context.Context, conn *wsConn, client *journal.Client, state *session.State, resubscribe <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	feed := client.Follow(ctx)
	h.log.Debug("entries stream opened", logger.Component, logger.ComponentRealtime, logger.FeedID, feed.ID())
	reportFailure := func(err error) error {
		kind := string(journal.KindOf(err))
		return conn.send(EntriesServerMessage{Type: wsTypeError, Kind: kind, Message: err.Error()})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-feed.Snapshots():
			if !ok {
				select {
				case err := <-feed.Err():
					if reportFailure(err) != nil {
						return
					}
					feed = nil
					continue
				default:
					return
				}
			}
			msg := EntriesServerMessage{Type: wsTypeSnapshot, OwnerID: snap.OwnerID, Entries: entryViews(snap.Entries)}
			if err := conn.sendSnapshot(state, msg); err != nil {
				return
			}
		case err := <-feed.Err():
			if reportFailure(err) != nil {
				return
			}
			feed = nil
		case <-resubscribe:
			if feed == nil {
				feed = client.Follow(ctx)
				h.log.Debug("entries stream resubscribed", logger.Component, logger.ComponentRealtime, logger.FeedID, feed.ID())
			}
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

func requestResubscribe(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *Handler) readEntriesMessages(ctx context.Context, conn *wsConn, state *session.State, resubscribe chan<- struct{}) {
	limiter := rate.NewLimiter(wsMessageRate, wsMessageBurst)
	raw := conn.conn
	raw.SetReadLimit(wsReadLimit)
	_ = raw.SetReadDeadline(time.Now().Add(wsPongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(wsPongWait))
		if !limiter.Allow() {
			conn.closeWith(websocket.ClosePolicyViolation, "too many messages")
			return
		}

		var msg EntriesClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.send(EntriesServerMessage{Type: wsTypeError, Kind: kindValidation, Message: "invalid message"})
			continue
		}

		switch msg.Type {
		case wsTypeAuth:
			h.wsAuthenticate(ctx, conn, state, msg.Token)
			requestResubscribe(resubscribe)
		case wsTypeLogout:
			_ = conn.switchIdentity(EntriesServerMessage{Type: wsTypeLoggedOut}, state.Clear)
			requestResubscribe(resubscribe)
		case wsTypeSubscribe:
			requestResubscribe(resubscribe)
		case wsTypePing:
			_ = conn.send(EntriesServerMessage{Type: wsTypePong})
		default:
			_ = conn.send(EntriesServerMessage{Type: wsTypeError, Kind: kindValidation, Message: "unknown message type"})
		}
	}
}

func (h *Handler) wsAuthenticate(ctx context.Context, conn *wsConn, state *session.State, token string) {
	ident, ok, err := h.tokens.Validate(ctx, token)
	switch {
	case err != nil:
		h.log.WarnContext(ctx, "session lookup failed", logger.Component, logger.ComponentRealtime, logger.Error, err)
		_ = conn.send(EntriesServerMessage{Type: wsTypeError, Kind: kindUnavailable, Message: "session store unavailable"})
		return
	case !ok:
		_ = conn.send(EntriesServerMessage{Type: wsTypeError, Kind: kindUnauthorized, Message: "invalid or expired session"})
		return
	}
	if err := h.tokens.Refresh(ctx, token); err != nil && !errors.Is(err, session.ErrNoSession) {
		h.log.WarnContext(ctx, "session refresh failed", logger.Component, logger.ComponentRealtime, logger.Error, err)
	}
	ack := EntriesServerMessage{
		Type: wsTypeAuthOK,
		User: &UserView{ID: ident.UserID, Username: ident.Username},
	}
	_ = conn.switchIdentity(ack, func() { state.SetIdentity(ident) })
}
