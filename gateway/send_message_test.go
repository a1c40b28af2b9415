package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novachat/novachat/internal/configuration"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(&configuration.Config{
		APIHost:        server.URL,
		APIToken:       "test-token",
		UserID:         "user-1",
		RequestTimeout: 5,
	})
	return client, server
}

func TestNormalizeReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"agent_response.content", `{"agent_response":{"content":"Hi"}}`, "Hi"},
		{"message.content", `{"message":{"content":"Hi2"}}`, "Hi2"},
		{"text", `{"text":"Hi3"}`, "Hi3"},
		{"data.agent_response.content", `{"data":{"agent_response":{"content":"Hi4"}}}`, "Hi4"},
		{"data.message.content", `{"data":{"message":{"content":"Hi5"}}}`, "Hi5"},
		{"data.text", `{"data":{"text":"Hi6"}}`, "Hi6"},
		{"agent_response wins over message", `{"agent_response":{"content":"a"},"message":{"content":"b"}}`, "a"},
		{"top level wins over data", `{"text":"top","data":{"text":"nested"}}`, "top"},
		{"empty shapes fall through", `{"agent_response":{"content":""},"message":{"content":""},"text":"fallback"}`, "fallback"},
		{"empty object", `{}`, ""},
		{"not json", `<html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalizeReply([]byte(tt.body)))
		})
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	t.Run("returns normalized reply", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/chats/chat-1/messages", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"agent_response":{"content":"Hello!"}}`))
		})

		reply, err := client.SendMessage(context.Background(), "chat-1", "oi")
		require.NoError(t, err)
		assert.Equal(t, "Hello!", reply)
	})

	t.Run("503 is a gateway unavailable error", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.SendMessage(context.Background(), "chat-1", "oi")
		var unavailableErr *GatewayUnavailableError
		require.ErrorAs(t, err, &unavailableErr)
		assert.Equal(t, http.StatusServiceUnavailable, unavailableErr.StatusCode)
		assert.Contains(t, err.Error(), "provider configuration")
	})

	t.Run("502 and 504 are gateway unavailable errors", func(t *testing.T) {
		t.Parallel()
		for _, status := range []int{http.StatusBadGateway, http.StatusGatewayTimeout} {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			_, err := client.SendMessage(context.Background(), "chat-1", "oi")
			var unavailableErr *GatewayUnavailableError
			assert.ErrorAs(t, err, &unavailableErr)
		}
	})

	t.Run("429 marks quota exhausted", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.SendMessage(context.Background(), "chat-1", "oi")
		assert.True(t, IsQuotaExhausted(err))
	})

	t.Run("insufficient_credits body marks quota exhausted", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"code":"INSUFFICIENT_CREDITS"}`))
		})

		_, err := client.SendMessage(context.Background(), "chat-1", "oi")
		assert.True(t, IsQuotaExhausted(err))
	})

	t.Run("500 is a plain transport error", func(t *testing.T) {
		t.Parallel()
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.SendMessage(context.Background(), "chat-1", "oi")
		var transportErr *ChatTransportError
		require.ErrorAs(t, err, &transportErr)
		assert.False(t, transportErr.QuotaExhausted)
		var unavailableErr *GatewayUnavailableError
		assert.False(t, errors.As(err, &unavailableErr))
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		t.Parallel()
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := client.SendMessage(context.Background(), "chat-1", "oi")
		var transportErr *ChatTransportError
		assert.ErrorAs(t, err, &transportErr)
	})
}
