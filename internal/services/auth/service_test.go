package auth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/transport"
	"github.com/seedvault/seedvault/test/testutil"
)

func loginResponse() map[string]interface{} {
	return map[string]interface{}{
		"token":      "tok-123",
		"user_id":    "u1",
		"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success sets the transport token", func(t *testing.T) {
		mock := transport.NewMockTransport()
		mock.AddResponse("/user/signin", loginResponse())

		svc := NewService(mock, "", testutil.NewTestLogger())
		require.NoError(t, svc.Login(ctx, "user@example.com", "pw"))

		assert.Equal(t, "tok-123", mock.GetToken())

		user, err := svc.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "user@example.com", user.Email)
	})

	t.Run("persists the token file with owner-only permissions", func(t *testing.T) {
		mock := transport.NewMockTransport()
		mock.AddResponse("/user/signin", loginResponse())

		tokenFile := filepath.Join(t.TempDir(), "session", "token.json")
		svc := NewService(mock, tokenFile, testutil.NewTestLogger())
		require.NoError(t, svc.Login(ctx, "user@example.com", "pw"))

		info, err := os.Stat(tokenFile)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		data, err := os.ReadFile(tokenFile)
		require.NoError(t, err)
		var saved models.TokenInfo
		require.NoError(t, json.Unmarshal(data, &saved))
		assert.Equal(t, "tok-123", saved.Token)
		assert.Equal(t, "u1", saved.UserID)
	})

	t.Run("empty credentials", func(t *testing.T) {
		svc := NewService(transport.NewMockTransport(), "", testutil.NewTestLogger())

		assert.ErrorIs(t, svc.Login(ctx, "", "pw"), models.ErrInvalidCredentials)
		assert.ErrorIs(t, svc.Login(ctx, "user@example.com", ""), models.ErrInvalidCredentials)
	})

	t.Run("missing token in response", func(t *testing.T) {
		mock := transport.NewMockTransport()
		mock.AddResponse("/user/signin", map[string]interface{}{"user_id": "u1"})

		svc := NewService(mock, "", testutil.NewTestLogger())
		assert.Error(t, svc.Login(ctx, "user@example.com", "pw"))
	})

	t.Run("missing user_id in response", func(t *testing.T) {
		mock := transport.NewMockTransport()
		mock.AddResponse("/user/signin", map[string]interface{}{"token": "tok"})

		svc := NewService(mock, "", testutil.NewTestLogger())
		assert.Error(t, svc.Login(ctx, "user@example.com", "pw"))
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session and token file", func(t *testing.T) {
		mock := transport.NewMockTransport()
		mock.AddResponse("/user/signin", loginResponse())
		mock.AddResponse("/user/signout", map[string]interface{}{"ok": true})

		tokenFile := filepath.Join(t.TempDir(), "token.json")
		svc := NewService(mock, tokenFile, testutil.NewTestLogger())
		require.NoError(t, svc.Login(ctx, "user@example.com", "pw"))

		require.NoError(t, svc.Logout(ctx))

		assert.Empty(t, mock.GetToken())
		assert.NoFileExists(t, tokenFile)
		assert.Len(t, mock.RequestsTo("/user/signout"), 1)

		_, err := svc.CurrentUser(ctx)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})

	t.Run("logout without a session is fine", func(t *testing.T) {
		svc := NewService(transport.NewMockTransport(), "", testutil.NewTestLogger())
		assert.NoError(t, svc.Logout(ctx))
	})
}

func TestCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		svc := NewService(transport.NewMockTransport(), "", testutil.NewTestLogger())

		_, err := svc.CurrentUser(ctx)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})

	t.Run("restores a persisted session", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token.json")
		saved := models.TokenInfo{
			Token:     "tok-persisted",
			ExpiresAt: time.Now().Add(time.Hour),
			UserID:    "u1",
			Email:     "user@example.com",
		}
		data, err := json.Marshal(saved)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(tokenFile, data, 0600))

		mock := transport.NewMockTransport()
		svc := NewService(mock, tokenFile, testutil.NewTestLogger())

		user, err := svc.CurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "tok-persisted", mock.GetToken())
	})

	t.Run("expired persisted session", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token.json")
		saved := models.TokenInfo{
			Token:     "tok-stale",
			ExpiresAt: time.Now().Add(-time.Hour),
			UserID:    "u1",
		}
		data, err := json.Marshal(saved)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(tokenFile, data, 0600))

		svc := NewService(transport.NewMockTransport(), tokenFile, testutil.NewTestLogger())

		_, err = svc.CurrentUser(ctx)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})
}
