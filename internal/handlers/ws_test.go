package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindjournal-backend/internal/handlers"
)

func dialEntries(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/entries"
	if token != "" {
		u += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// nextMessage reads until match accepts a message or the deadline passes.
func nextMessage(t *testing.T, conn *websocket.Conn, match func(handlers.EntriesServerMessage) bool) handlers.EntriesServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg handlers.EntriesServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func snapshotOf(owner string, n int) func(handlers.EntriesServerMessage) bool {
	return func(m handlers.EntriesServerMessage) bool {
		return m.Type == "snapshot" && m.OwnerID == owner && len(m.Entries) == n
	}
}

func TestEntriesWebSocketStreamsChanges(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token, userID := s.signup("owl")
	conn := dialEntries(t, srv, token)

	nextMessage(t, conn, snapshotOf(userID, 0))

	created := s.createEntry(token, map[string]any{"content": "happy happy joy great"})
	msg := nextMessage(t, conn, snapshotOf(userID, 1))
	assert.Equal(t, created.ID, msg.Entries[0].ID)
	assert.Equal(t, "Untitled Entry", msg.Entries[0].DisplayTitle)

	rec := s.do(http.MethodDelete, "/api/entries/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nextMessage(t, conn, snapshotOf(userID, 0))
}

// switchTo sends msg, reads up to the acknowledgement of type ack and
// returns the first snapshot after it.
func switchTo(t *testing.T, conn *websocket.Conn, msg handlers.EntriesClientMessage, ack string) (handlers.EntriesServerMessage, handlers.EntriesServerMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	got := nextMessage(t, conn, func(m handlers.EntriesServerMessage) bool { return m.Type == ack })
	snap := nextMessage(t, conn, func(m handlers.EntriesServerMessage) bool { return m.Type == "snapshot" })
	return got, snap
}

func TestEntriesWebSocketSwitchesIdentity(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	alice, aliceID := s.signup("alice")
	bob, bobID := s.signup("bob")
	aliceEntry := s.createEntry(alice, map[string]any{"content": "alice writes"})

	conn := dialEntries(t, srv, "")
	nextMessage(t, conn, snapshotOf("", 0))

	ok, snap := switchTo(t, conn, handlers.EntriesClientMessage{Type: "auth", Token: alice}, "auth_ok")
	require.NotNil(t, ok.User)
	assert.Equal(t, aliceID, ok.User.ID)
	assert.Equal(t, aliceID, snap.OwnerID)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, aliceEntry.ID, snap.Entries[0].ID)

	ok, snap = switchTo(t, conn, handlers.EntriesClientMessage{Type: "auth", Token: bob}, "auth_ok")
	assert.Equal(t, bobID, ok.User.ID)
	assert.Equal(t, bobID, snap.OwnerID, "first snapshot after auth_ok belongs to bob")
	assert.Empty(t, snap.Entries)

	_, snap = switchTo(t, conn, handlers.EntriesClientMessage{Type: "logout"}, "logged_out")
	assert.Equal(t, "", snap.OwnerID, "first snapshot after logged_out is signed out")
	assert.Empty(t, snap.Entries)

	require.NoError(t, conn.WriteJSON(handlers.EntriesClientMessage{Type: "auth", Token: "bogus"}))
	bad := nextMessage(t, conn, func(m handlers.EntriesServerMessage) bool { return m.Type == "error" })
	assert.Equal(t, "unauthorized", bad.Kind)

	require.NoError(t, conn.WriteJSON(handlers.EntriesClientMessage{Type: "ping"}))
	nextMessage(t, conn, func(m handlers.EntriesServerMessage) bool { return m.Type == "pong" })
}

func TestEntriesWebSocketNeverShowsPreviousUserAfterSwitch(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	alice, aliceID := s.signup("alice")
	bob, bobID := s.signup("bob")
	s.createEntry(alice, map[string]any{"content": "alice writes"})

	conn := dialEntries(t, srv, alice)
	nextMessage(t, conn, snapshotOf(aliceID, 1))

	for i := 0; i < 20; i++ {
		_, snap := switchTo(t, conn, handlers.EntriesClientMessage{Type: "auth", Token: bob}, "auth_ok")
		require.Equal(t, bobID, snap.OwnerID)
		require.Empty(t, snap.Entries)

		_, snap = switchTo(t, conn, handlers.EntriesClientMessage{Type: "auth", Token: alice}, "auth_ok")
		require.Equal(t, aliceID, snap.OwnerID)
		require.Len(t, snap.Entries, 1)
	}
}

func TestEntriesWebSocketReportsFailureAndResubscribes(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token, userID := s.signup("owl")
	conn := dialEntries(t, srv, token)
	nextMessage(t, conn, snapshotOf(userID, 0))

	s.backend.FailListeners(userID, errors.New("listener revoked"))
	failure := nextMessage(t, conn, func(m handlers.EntriesServerMessage) bool { return m.Type == "error" })
	assert.Equal(t, "subscription", failure.Kind)

	require.NoError(t, conn.WriteJSON(handlers.EntriesClientMessage{Type: "subscribe"}))
	nextMessage(t, conn, snapshotOf(userID, 0))

	s.createEntry(token, map[string]any{"content": "back again"})
	nextMessage(t, conn, snapshotOf(userID, 1))
}

func TestEntriesWebSocketRejectsInvalidToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/entries?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCloseStreamsEndsConnections(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	token, userID := s.signup("owl")
	conn := dialEntries(t, srv, token)
	nextMessage(t, conn, snapshotOf(userID, 0))

	s.handler.CloseStreams()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
			return
		}
	}
}
