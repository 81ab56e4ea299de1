package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

const (
	// FormatVersion identifies the key derivation / blob layout version.
	FormatVersion = 1

	// KeySize is the AES-256 key length.
	KeySize = 32

	// MACKeySize is the HMAC-SHA256 key length.
	MACKeySize = 32

	// VaultIDSize is the raw vault identifier length before hex encoding.
	VaultIDSize = 16

	// KDFIterations is the PBKDF2-SHA256 iteration count.
	KDFIterations = 100000

	// AlgorithmLabel and KDFLabel name the scheme in persisted metadata.
	AlgorithmLabel = "AES-256-GCM"
	KDFLabel       = "PBKDF2-SHA256"
)

// Derivation context strings. Changing any of these changes every derived
// key, so they are part of the on-the-wire format.
const (
	saltContext = "seedvault/salt/v1:"
	keysContext = "seedvault/keys/v1"
)

// Errors
var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrInvalidAccountID = errors.New("invalid account identifier")
)

// Minimal shape check: something@something.something. Anything stricter
// belongs to the signup flow, not key derivation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VaultKeys is the derived material for one vault: an encryption key, a MAC
// key, and the deterministic vault identifier addressing the remote record.
type VaultKeys struct {
	EncryptionKey []byte
	MACKey        []byte
	VaultID       string
}

// Wipe zeroes the raw key buffers. The struct must not be used afterwards.
func (k *VaultKeys) Wipe() {
	ZeroBytes(k.EncryptionKey)
	ZeroBytes(k.MACKey)
	k.EncryptionKey = nil
	k.MACKey = nil
	k.VaultID = ""
}

// ZeroBytes overwrites b with zeroes.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// DeriveVaultKeys turns a recovery phrase plus an account identifier into
// VaultKeys.
//
// The mnemonic is NFKD-normalized, lowercased and space-joined, then fed to
// PBKDF2-SHA256 with a salt derived from the lowercased account id. The
// PBKDF2 output seeds HKDF-SHA256, which is expanded into the encryption
// key, the MAC key, and the vault id. Same inputs always produce
// byte-identical output; that determinism is what makes recovery from the
// seed phrase alone reach the same remote record.
func (p *DefaultProvider) DeriveVaultKeys(mnemonic []string, accountID string) (*VaultKeys, error) {
	secret, err := normalizeMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	account := strings.ToLower(strings.TrimSpace(accountID))
	if !emailPattern.MatchString(account) {
		return nil, fmt.Errorf("%w: %q is not an email address", ErrInvalidAccountID, accountID)
	}

	salt := sha256.Sum256([]byte(saltContext + account))
	seed := pbkdf2.Key([]byte(secret), salt[:], p.iterations, KeySize, sha256.New)
	defer ZeroBytes(seed)

	expand := hkdf.New(sha256.New, seed, nil, []byte(keysContext))

	encKey := make([]byte, KeySize)
	macKey := make([]byte, MACKeySize)
	vaultID := make([]byte, VaultIDSize)
	for _, buf := range [][]byte{encKey, macKey, vaultID} {
		if _, err := io.ReadFull(expand, buf); err != nil {
			ZeroBytes(encKey)
			ZeroBytes(macKey)
			return nil, fmt.Errorf("expand vault keys: %w", err)
		}
	}

	return &VaultKeys{
		EncryptionKey: encKey,
		MACKey:        macKey,
		VaultID:       hex.EncodeToString(vaultID),
	}, nil
}

// normalizeMnemonic validates the word sequence and returns the canonical
// secret string used for derivation.
func normalizeMnemonic(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("%w: empty phrase", ErrInvalidMnemonic)
	}

	normalized := make([]string, len(words))
	for i, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			return "", fmt.Errorf("%w: blank word at position %d", ErrInvalidMnemonic, i)
		}
		if strings.ContainsAny(w, " \t\n") {
			return "", fmt.Errorf("%w: word at position %d contains whitespace", ErrInvalidMnemonic, i)
		}
		normalized[i] = norm.NFKD.String(strings.ToLower(w))
	}

	return strings.Join(normalized, " "), nil
}
