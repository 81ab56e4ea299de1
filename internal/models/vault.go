package models

import (
	"fmt"
	"strings"
	"time"
)

// EncryptionMetadata describes how a vault blob was produced. It rides
// alongside the ciphertext so a reader can pick the right KDF parameters
// without decrypting anything.
type EncryptionMetadata struct {
	Algorithm     string `json:"algorithm"`
	KeyDerivation string `json:"keyDerivation"`
	Iterations    int    `json:"iterations"`
	Version       int    `json:"version"`
	Timestamp     int64  `json:"timestamp"`
}

// Validate checks the metadata structure.
func (m *EncryptionMetadata) Validate() error {
	if strings.TrimSpace(m.Algorithm) == "" {
		return fmt.Errorf("algorithm is required")
	}
	if strings.TrimSpace(m.KeyDerivation) == "" {
		return fmt.Errorf("keyDerivation is required")
	}
	if m.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}
	if m.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	return nil
}

// EncryptedVaultRecord is the remotely persisted form of a vault: one row
// per (user_id, vault_id), written with upsert semantics.
type EncryptedVaultRecord struct {
	VaultID       string             `json:"vault_id"`
	UserID        string             `json:"user_id"`
	EncryptedBlob string             `json:"encrypted_blob"`
	Metadata      EncryptionMetadata `json:"encryption_metadata"`
}

// Validate checks the record structure.
func (r *EncryptedVaultRecord) Validate() error {
	if strings.TrimSpace(r.VaultID) == "" {
		return fmt.Errorf("vault_id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if r.EncryptedBlob == "" {
		return fmt.Errorf("encrypted_blob is required")
	}
	if err := r.Metadata.Validate(); err != nil {
		return fmt.Errorf("encryption_metadata: %w", err)
	}
	return nil
}

// Folder is folder metadata owned by the folders collaborator. The vault
// core only ever copies Name into CredentialItem.FolderName.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// VaultEvent is a change-feed notification for a vault.
type VaultEvent struct {
	Type      string `json:"type"`
	VaultID   string `json:"vault_id"`
	UserID    string `json:"user_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Change-feed event types.
const (
	EventVaultUpdated = "vault_updated"
	EventPing         = "ping"
)
