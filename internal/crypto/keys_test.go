package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/crypto"
)

var testMnemonic = []string{
	"abandon", "ability", "able", "about", "above", "absent",
	"absorb", "abstract", "absurd", "abuse", "access", "zoo",
}

func TestDeriveVaultKeys(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("deterministic", func(t *testing.T) {
		first, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		second, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		assert.Equal(t, first.EncryptionKey, second.EncryptionKey)
		assert.Equal(t, first.MACKey, second.MACKey)
		assert.Equal(t, first.VaultID, second.VaultID)
	})

	t.Run("key sizes", func(t *testing.T) {
		keys, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		assert.Len(t, keys.EncryptionKey, crypto.KeySize)
		assert.Len(t, keys.MACKey, crypto.MACKeySize)
		assert.Len(t, keys.VaultID, crypto.VaultIDSize*2) // hex
		assert.NotEqual(t, keys.EncryptionKey, keys.MACKey)
	})

	t.Run("account id is case and whitespace insensitive", func(t *testing.T) {
		a, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		b, err := provider.DeriveVaultKeys(testMnemonic, "  User@Example.COM ")
		require.NoError(t, err)

		assert.Equal(t, a.VaultID, b.VaultID)
		assert.Equal(t, a.EncryptionKey, b.EncryptionKey)
	})

	t.Run("mnemonic word case is normalized", func(t *testing.T) {
		upper := make([]string, len(testMnemonic))
		for i, w := range testMnemonic {
			upper[i] = " " + w + " "
		}

		a, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		b, err := provider.DeriveVaultKeys(upper, "user@example.com")
		require.NoError(t, err)

		assert.Equal(t, a.EncryptionKey, b.EncryptionKey)
	})

	t.Run("different accounts get different vaults", func(t *testing.T) {
		a, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
		require.NoError(t, err)

		b, err := provider.DeriveVaultKeys(testMnemonic, "other@example.com")
		require.NoError(t, err)

		assert.NotEqual(t, a.VaultID, b.VaultID)
		assert.NotEqual(t, a.EncryptionKey, b.EncryptionKey)
	})

	t.Run("empty mnemonic rejected", func(t *testing.T) {
		_, err := provider.DeriveVaultKeys(nil, "user@example.com")
		assert.ErrorIs(t, err, crypto.ErrInvalidMnemonic)

		_, err = provider.DeriveVaultKeys([]string{}, "user@example.com")
		assert.ErrorIs(t, err, crypto.ErrInvalidMnemonic)
	})

	t.Run("blank word rejected", func(t *testing.T) {
		_, err := provider.DeriveVaultKeys([]string{"abandon", "  ", "zoo"}, "user@example.com")
		assert.ErrorIs(t, err, crypto.ErrInvalidMnemonic)
	})

	t.Run("bad account id rejected", func(t *testing.T) {
		for _, account := range []string{"", "not-an-email", "user@", "@example.com", "user@host"} {
			_, err := provider.DeriveVaultKeys(testMnemonic, account)
			assert.ErrorIs(t, err, crypto.ErrInvalidAccountID, "account %q", account)
		}
	})
}

func TestVaultKeysWipe(t *testing.T) {
	provider := crypto.NewProvider()

	keys, err := provider.DeriveVaultKeys(testMnemonic, "user@example.com")
	require.NoError(t, err)

	encKey := keys.EncryptionKey
	macKey := keys.MACKey
	keys.Wipe()

	assert.Nil(t, keys.EncryptionKey)
	assert.Nil(t, keys.MACKey)
	assert.Empty(t, keys.VaultID)

	// The original buffers must be zeroed, not just dereferenced.
	for _, b := range encKey {
		assert.Zero(t, b)
	}
	for _, b := range macKey {
		assert.Zero(t, b)
	}
}
