package crypto_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedvault/seedvault/internal/crypto"
)

func testKeys(t *testing.T) *crypto.VaultKeys {
	t.Helper()

	keys, err := crypto.NewProvider().DeriveVaultKeys(testMnemonic, "user@example.com")
	require.NoError(t, err)
	return keys
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	cases := []string{
		"",
		"[]",
		`[{"id":"a","item_type":"login","item_name":"GitHub"}]`,
		strings.Repeat("x", 64*1024),
		"unicode: résumé 暗号 🔐",
	}

	for _, plaintext := range cases {
		blob, err := provider.Encrypt([]byte(plaintext), keys)
		require.NoError(t, err)

		decrypted, err := provider.Decrypt(blob, keys)
		require.NoError(t, err)
		assert.Equal(t, plaintext, string(decrypted))
	}
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	a, err := provider.Encrypt([]byte("same input"), keys)
	require.NoError(t, err)
	b, err := provider.Encrypt([]byte("same input"), keys)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptTamperDetection(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	blob, err := provider.Encrypt([]byte(`[{"secret":"value"}]`), keys)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)

	// Flip one byte at every position: nonce, ciphertext, tag, and mac must
	// all be covered.
	for i := range raw {
		tampered := make([]byte, len(raw))
		copy(tampered, raw)
		tampered[i] ^= 0x01

		_, err := provider.Decrypt(base64.StdEncoding.EncodeToString(tampered), keys)
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed, "byte %d", i)
	}
}

func TestDecryptRejectsWrongKeys(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	other, err := provider.DeriveVaultKeys(testMnemonic, "other@example.com")
	require.NoError(t, err)

	blob, err := provider.Encrypt([]byte("secret"), keys)
	require.NoError(t, err)

	_, err = provider.Decrypt(blob, other)
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDecryptRejectsMalformedInput(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	t.Run("not base64", func(t *testing.T) {
		_, err := provider.Decrypt("!!! not base64 !!!", keys)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("too short", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("tiny"))
		_, err := provider.Decrypt(short, keys)
		assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
	})

	t.Run("truncated mac", func(t *testing.T) {
		blob, err := provider.Encrypt([]byte("secret"), keys)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(blob)
		require.NoError(t, err)

		truncated := base64.StdEncoding.EncodeToString(raw[:len(raw)-crypto.MACSize])
		_, err = provider.Decrypt(truncated, keys)
		assert.Error(t, err)
	})
}

func TestEncryptSizeCap(t *testing.T) {
	provider := crypto.NewProvider()
	keys := testKeys(t)

	oversized := make([]byte, crypto.MaxPlaintextSize+1)
	_, err := provider.Encrypt(oversized, keys)
	assert.ErrorIs(t, err, crypto.ErrPayloadTooLarge)

	// Exactly at the cap is allowed.
	atCap := make([]byte, crypto.MaxPlaintextSize)
	_, err = provider.Encrypt(atCap, keys)
	assert.NoError(t, err)
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	provider := crypto.NewProvider()

	_, err := provider.Encrypt([]byte("x"), nil)
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)

	_, err = provider.Encrypt([]byte("x"), &crypto.VaultKeys{
		EncryptionKey: []byte("short"),
		MACKey:        make([]byte, crypto.MACKeySize),
	})
	assert.ErrorIs(t, err, crypto.ErrInvalidKey)
}
