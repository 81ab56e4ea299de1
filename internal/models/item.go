package models

import (
	"fmt"
	"strings"
	"time"
)

// ItemType classifies a credential item. It is assigned at creation.
type ItemType string

const (
	ItemTypeLogin  ItemType = "login"
	ItemTypeSSHKey ItemType = "ssh_key"
)

// ValidItemType reports whether t is a known item type.
func ValidItemType(t ItemType) bool {
	return t == ItemTypeLogin || t == ItemTypeSSHKey
}

// CredentialItem is one entry in a vault.
//
// Exactly one payload shape is populated according to ItemType: login items
// carry Username/Password, ssh_key items carry PublicKey/PrivateKey/
// Fingerprint. FolderName is a denormalized copy taken at write time and is
// not kept in sync with folder renames.
type CredentialItem struct {
	ID          string     `json:"id"`
	ItemType    ItemType   `json:"item_type"`
	FolderID    string     `json:"folder_id,omitempty"`
	FolderName  string     `json:"folder_name,omitempty"`
	ItemName    string     `json:"item_name"`
	Username    string     `json:"username,omitempty"`
	Password    string     `json:"password,omitempty"`
	PublicKey   string     `json:"public_key,omitempty"`
	PrivateKey  string     `json:"private_key,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// IsDeleted reports whether the item is soft-deleted (in the trash).
func (i *CredentialItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

// Validate checks the item structure and payload-shape invariant.
func (i *CredentialItem) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}

	if strings.TrimSpace(i.ItemName) == "" {
		return &ValidationError{Field: "item_name", Reason: "required"}
	}

	if !ValidItemType(i.ItemType) {
		return &ValidationError{Field: "item_type", Reason: fmt.Sprintf("unknown type %q", i.ItemType)}
	}

	switch i.ItemType {
	case ItemTypeLogin:
		if i.PublicKey != "" || i.PrivateKey != "" || i.Fingerprint != "" {
			return &ValidationError{Field: "item_type", Reason: "login item carries ssh_key payload fields"}
		}
	case ItemTypeSSHKey:
		if i.Username != "" || i.Password != "" {
			return &ValidationError{Field: "item_type", Reason: "ssh_key item carries login payload fields"}
		}
	}

	if i.CreatedAt.IsZero() {
		return &ValidationError{Field: "created_at", Reason: "required"}
	}

	if i.UpdatedAt.IsZero() {
		return &ValidationError{Field: "updated_at", Reason: "required"}
	}

	if i.UpdatedAt.Before(i.CreatedAt) {
		return &ValidationError{Field: "updated_at", Reason: "cannot be before created_at"}
	}

	return nil
}

// Matches reports whether the lowered query is a substring of the item's
// name, username, or folder name. The caller lowers the query once.
func (i *CredentialItem) Matches(loweredQuery string) bool {
	return strings.Contains(strings.ToLower(i.ItemName), loweredQuery) ||
		strings.Contains(strings.ToLower(i.Username), loweredQuery) ||
		strings.Contains(strings.ToLower(i.FolderName), loweredQuery)
}

// VaultCollection is the full set of a user's credential items. It is
// serialized as one JSON array and encrypted, uploaded, and replaced as a
// single atomic unit; there is no per-item read or write at the storage
// layer.
type VaultCollection []CredentialItem

// Validate checks every item in the collection.
func (c VaultCollection) Validate() error {
	for idx := range c {
		if err := c[idx].Validate(); err != nil {
			return fmt.Errorf("item %d (%s): %w", idx, c[idx].ID, err)
		}
	}
	return nil
}

// Clone returns a shallow copy the caller may mutate without affecting c.
func (c VaultCollection) Clone() VaultCollection {
	out := make(VaultCollection, len(c))
	copy(out, c)
	return out
}
