package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/session"
	"github.com/novachat/novachat/store"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "novachat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	server := &Server{store: st, pageSize: 50}
	handler, err := server.handler()
	require.NoError(t, err)
	return handler, st
}

func TestInbox(t *testing.T) {
	t.Parallel()
	handler, st := newTestServer(t)

	require.NoError(t, st.UpsertChats([]*gateway.Chat{
		{ID: "c1", UserID: "u1", AgentID: "a1", Title: "Trip planning", UpdateTimestamp: 200},
		{ID: "c2", UserID: "u1", AgentID: "a1", Title: "Nova conversa", UpdateTimestamp: 100},
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	require.Contains(t, body, "Trip planning")
	require.Contains(t, body, "Nova conversa")
	require.Contains(t, body, `/chat/c1`)
}

func TestInboxEmpty(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "No chats yet")
}

func TestChatPage(t *testing.T) {
	t.Parallel()
	handler, st := newTestServer(t)

	require.NoError(t, st.UpsertChats([]*gateway.Chat{
		{ID: "c1", UserID: "u1", AgentID: "a1", Title: "Trip planning", UpdateTimestamp: 200},
	}))
	require.NoError(t, st.SaveMessages("c1", []*session.Message{
		{ID: "m1", ChatID: "c1", Role: session.RoleUser, Content: "where should I go?"},
		{ID: "m2", ChatID: "c1", Role: session.RoleAssistant, Content: "Lisbon is lovely\nin spring."},
		{ID: "m3", ChatID: "c1", Role: session.RoleAssistant, Content: "Upgrade for more!", UpgradeCTA: true},
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/chat/c1", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	require.Contains(t, body, "where should I go?")
	// Newlines become line breaks.
	require.Contains(t, body, "Lisbon is lovely<br>in spring.")
	require.Contains(t, body, "You")
	require.Contains(t, body, "Agent")
	require.Contains(t, body, "Notice")
}

func TestChatPageUnknownChat(t *testing.T) {
	t.Parallel()
	handler, _ := newTestServer(t)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/chat/nope", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
