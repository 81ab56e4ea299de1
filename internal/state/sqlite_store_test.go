package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/test/testutil"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "accounts.db"), testutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordUnlock(t *testing.T) {
	store := newTestStore(t)

	t.Run("inserts a new account", func(t *testing.T) {
		require.NoError(t, store.RecordUnlock("user@example.com", "v1", 3))

		accounts, err := store.ListAccounts()
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "user@example.com", accounts[0].AccountID)
		assert.Equal(t, "v1", accounts[0].VaultID)
		assert.Equal(t, 3, accounts[0].ItemCount)
		assert.False(t, accounts[0].LastUnlock.IsZero())
	})

	t.Run("second unlock updates in place", func(t *testing.T) {
		require.NoError(t, store.RecordUnlock("user@example.com", "v1", 7))

		accounts, err := store.ListAccounts()
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, 7, accounts[0].ItemCount)
	})
}

func TestListAccountsOrder(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordUnlock("old@example.com", "v1", 1))
	require.NoError(t, store.RecordUnlock("new@example.com", "v2", 2))

	accounts, err := store.ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "new@example.com", accounts[0].AccountID, "most recent unlock first")
}

func TestForget(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordUnlock("user@example.com", "v1", 1))
	require.NoError(t, store.Forget("user@example.com"))

	accounts, err := store.ListAccounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	// Forgetting an unknown account is not an error.
	assert.NoError(t, store.Forget("ghost@example.com"))
}

func TestEmptyStore(t *testing.T) {
	store := newTestStore(t)

	accounts, err := store.ListAccounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
