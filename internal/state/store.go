package state

import "time"

// AccountInfo is non-secret bookkeeping about a known account: which vault
// id its recovery phrase addresses and when it was last unlocked. No key
// material or decrypted content is ever stored here.
type AccountInfo struct {
	AccountID  string
	VaultID    string
	ItemCount  int
	LastUnlock time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists account bookkeeping between runs.
type Store interface {
	RecordUnlock(accountID, vaultID string, itemCount int) error
	ListAccounts() ([]*AccountInfo, error)
	Forget(accountID string) error
	Close() error
}
