package crypto

// Provider defines the cryptographic operations the vault manager needs.
type Provider interface {
	// DeriveVaultKeys derives VaultKeys from a recovery phrase and account
	// identifier. Deterministic: identical inputs yield identical keys and
	// vault id.
	DeriveVaultKeys(mnemonic []string, accountID string) (*VaultKeys, error)

	// Encrypt seals plaintext under keys and returns a self-contained,
	// base64-encoded blob.
	Encrypt(plaintext []byte, keys *VaultKeys) (string, error)

	// Decrypt verifies and opens a blob produced by Encrypt. It never
	// returns unauthenticated plaintext.
	Decrypt(blob string, keys *VaultKeys) ([]byte, error)
}
