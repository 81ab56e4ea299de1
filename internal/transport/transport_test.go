package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/transport"
	"github.com/seedvault/seedvault/test/testutil"
)

func apiConfig(baseURL string) *config.APIConfig {
	return &config.APIConfig{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		UserAgent:  "test",
	}
}

func TestHTTPClientPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := transport.NewHTTPClient(apiConfig(server.URL), testutil.NewTestLogger())
	client.SetToken("test-token")

	resp, err := client.PostJSON(context.Background(), "/vault/get", map[string]string{"vault_id": "v1"})
	require.NoError(t, err)
	assert.Equal(t, true, resp["ok"])
}

func TestHTTPClientRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := transport.NewHTTPClient(apiConfig(server.URL), testutil.NewTestLogger())

	resp, err := client.PostJSON(context.Background(), "/vault/get", nil)
	require.NoError(t, err)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, 2, attempts)
}

func TestHTTPClientAPIError(t *testing.T) {
	t.Run("structured error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code": "NOT_FOUND", "message": "no such vault"}`))
		}))
		defer server.Close()

		client := transport.NewHTTPClient(apiConfig(server.URL), testutil.NewTestLogger())

		_, err := client.PostJSON(context.Background(), "/vault/get", nil)
		require.Error(t, err)

		var apiErr *models.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "NOT_FOUND", apiErr.Code)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("opaque error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`bad request`))
		}))
		defer server.Close()

		client := transport.NewHTTPClient(apiConfig(server.URL), testutil.NewTestLogger())

		_, err := client.PostJSON(context.Background(), "/vault/get", nil)
		require.Error(t, err)

		var apiErr *models.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "HTTP_ERROR", apiErr.Code)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestWebSocketChangeFeed(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vault/events", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var subscribe map[string]string
		require.NoError(t, conn.ReadJSON(&subscribe))
		assert.Equal(t, "subscribe", subscribe["action"])
		assert.Equal(t, "vault-123", subscribe["vault_id"])

		// Pings are heartbeat noise and must not surface as events.
		require.NoError(t, conn.WriteJSON(models.VaultEvent{Type: models.EventPing}))
		require.NoError(t, conn.WriteJSON(models.VaultEvent{
			Type:      models.EventVaultUpdated,
			VaultID:   "vault-123",
			Timestamp: time.Now().Unix(),
		}))
	}))
	defer server.Close()

	client := transport.NewWSClient(server.URL, "test-token", testutil.NewTestLogger())

	ctx := context.Background()
	require.NoError(t, client.Connect(ctx, "vault-123"))
	defer client.Close()

	select {
	case event := <-client.Events():
		assert.Equal(t, models.EventVaultUpdated, event.Type)
		assert.Equal(t, "vault-123", event.VaultID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestStreamEventsClosesPriorStream(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	tr := transport.NewTransport(apiConfig(server.URL), testutil.NewTestLogger())
	defer tr.Close()

	ctx := context.Background()
	first, err := tr.StreamEvents(ctx, "vault-123")
	require.NoError(t, err)

	// Re-subscribing replaces the stream; the old one must be torn down,
	// not leaked alongside the new connection.
	_, err = tr.StreamEvents(ctx, "vault-123")
	require.NoError(t, err)

	select {
	case _, ok := <-first:
		assert.False(t, ok, "replaced stream must be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("replaced stream still open")
	}
}

func TestDefaultTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/user/signin" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"token": "test-token", "user_id": "u1"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code": "NOT_FOUND", "message": "unknown path"}`))
	}))
	defer server.Close()

	tr := transport.NewTransport(apiConfig(server.URL), testutil.NewTestLogger())
	defer tr.Close()

	ctx := context.Background()
	resp, err := tr.PostJSON(ctx, "/user/signin", map[string]string{
		"email":    "user@example.com",
		"password": "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-token", resp["token"])

	tr.SetToken("test-token")
	assert.Equal(t, "test-token", tr.GetToken())
}

func TestMockTransport(t *testing.T) {
	mock := transport.NewMockTransport()
	mock.AddResponse("/user/signin", map[string]interface{}{"token": "tok"})
	mock.FailPath("/vault/upsert", errors.New("refused"))
	mock.Events = []models.VaultEvent{
		{Type: models.EventVaultUpdated, VaultID: "v1"},
	}

	ctx := context.Background()

	resp, err := mock.PostJSON(ctx, "/user/signin", nil)
	require.NoError(t, err)
	assert.Equal(t, "tok", resp["token"])

	_, err = mock.PostJSON(ctx, "/vault/upsert", nil)
	assert.Error(t, err)

	eventCh, err := mock.StreamEvents(ctx, "v1")
	require.NoError(t, err)

	var got []models.VaultEvent
	for event := range eventCh {
		got = append(got, event)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "v1", got[0].VaultID)

	assert.Len(t, mock.RequestsTo("/user/signin"), 1)
	assert.Equal(t, []string{"v1"}, mock.StreamRequests)
}
