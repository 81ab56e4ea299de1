package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// NonceSize is the GCM nonce length.
	NonceSize = 12

	// TagSize is the GCM authentication tag length.
	TagSize = 16

	// MACSize is the trailing HMAC-SHA256 length.
	MACSize = 32

	// MaxPlaintextSize caps the serialized vault at 10 MiB. Anything larger
	// is rejected before encryption is attempted.
	MaxPlaintextSize = 10 << 20
)

// Errors
var (
	ErrInvalidKey        = errors.New("invalid key size")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrPayloadTooLarge   = errors.New("payload too large")
)

// DefaultProvider implements Provider with AES-256-GCM encrypt-then-MAC.
type DefaultProvider struct {
	iterations int
}

// NewProvider creates a crypto provider.
func NewProvider() Provider {
	return &DefaultProvider{iterations: KDFIterations}
}

// Encrypt seals plaintext with AES-256-GCM under the encryption key, then
// appends an HMAC-SHA256 over nonce||ciphertext under the MAC key.
//
// Blob layout, base64 std encoded: nonce || ciphertext+tag || hmac.
func (p *DefaultProvider) Encrypt(plaintext []byte, keys *VaultKeys) (string, error) {
	if keys == nil || len(keys.EncryptionKey) != KeySize || len(keys.MACKey) != MACKeySize {
		return "", ErrInvalidKey
	}

	if len(plaintext) > MaxPlaintextSize {
		return "", fmt.Errorf("%w: %d bytes exceeds %d byte cap", ErrPayloadTooLarge, len(plaintext), MaxPlaintextSize)
	}

	block, err := aes.NewCipher(keys.EncryptionKey)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	mac := hmac.New(sha256.New, keys.MACKey)
	mac.Write(nonce)
	mac.Write(ciphertext)

	blob := make([]byte, 0, NonceSize+len(ciphertext)+MACSize)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	blob = mac.Sum(blob)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt verifies the HMAC, then the GCM tag, and only then returns
// plaintext. Wrong keys, truncation, or any flipped byte yields
// ErrDecryptionFailed; garbage is never returned silently.
func (p *DefaultProvider) Decrypt(blob string, keys *VaultKeys) ([]byte, error) {
	if keys == nil || len(keys.EncryptionKey) != KeySize || len(keys.MACKey) != MACKeySize {
		return nil, ErrInvalidKey
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	// Minimum: nonce + tag + trailing mac
	if len(raw) < NonceSize+TagSize+MACSize {
		return nil, ErrInvalidCiphertext
	}

	nonce := raw[:NonceSize]
	ciphertext := raw[NonceSize : len(raw)-MACSize]
	theirMAC := raw[len(raw)-MACSize:]

	mac := hmac.New(sha256.New, keys.MACKey)
	mac.Write(nonce)
	mac.Write(ciphertext)
	if !hmac.Equal(theirMAC, mac.Sum(nil)) {
		return nil, ErrDecryptionFailed
	}

	block, err := aes.NewCipher(keys.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return plaintext, nil
}
