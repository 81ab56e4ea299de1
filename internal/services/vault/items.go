package vault

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seedvault/seedvault/internal/models"
)

// Read accessors return empty results rather than erroring before Ready;
// "no vault loaded" and "empty vault" are distinguished via IsInitialized.

// ActiveItems returns all items not in the trash.
func (m *Manager) ActiveItems() models.VaultCollection {
	return m.filterItems(func(i *models.CredentialItem) bool {
		return !i.IsDeleted()
	})
}

// TrashedItems returns all soft-deleted items.
func (m *Manager) TrashedItems() models.VaultCollection {
	return m.filterItems(func(i *models.CredentialItem) bool {
		return i.IsDeleted()
	})
}

// ItemsForFolder returns active items in the given folder.
func (m *Manager) ItemsForFolder(folderID string) models.VaultCollection {
	return m.filterItems(func(i *models.CredentialItem) bool {
		return !i.IsDeleted() && i.FolderID == folderID
	})
}

// ItemByID looks up an item by id, trash included.
func (m *Manager) ItemByID(id string) (models.CredentialItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return models.CredentialItem{}, false
	}

	for i := range m.items {
		if m.items[i].ID == id {
			return m.items[i], true
		}
	}
	return models.CredentialItem{}, false
}

// SearchItems matches the trimmed query case-insensitively as a substring
// of item name, username, or folder name. A blank query returns the
// unfiltered set. Matching is plain substring comparison, so regex
// metacharacters in the query carry no meaning.
func (m *Manager) SearchItems(query string, includeDeleted bool) models.VaultCollection {
	q := strings.ToLower(strings.TrimSpace(query))

	return m.filterItems(func(i *models.CredentialItem) bool {
		if !includeDeleted && i.IsDeleted() {
			return false
		}
		if q == "" {
			return true
		}
		return i.Matches(q)
	})
}

func (m *Manager) filterItems(keep func(*models.CredentialItem) bool) models.VaultCollection {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := models.VaultCollection{}
	if m.state != StateReady {
		return out
	}

	for i := range m.items {
		if keep(&m.items[i]) {
			out = append(out, m.items[i])
		}
	}
	return out
}

// UpsertByNameInFolder inserts or replaces an item, matching existing items
// by the (folder_id, item_name) tuple: same name in the same folder is the
// same logical item. On a match the original id and created_at survive and
// updated_at is refreshed; otherwise the item gets a fresh id and both
// timestamps. Note the deliberate contrast with UpdateByID, which matches
// by id.
func (m *Manager) UpsertByNameInFolder(ctx context.Context, item models.CredentialItem) (models.CredentialItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return models.CredentialItem{}, err
	}

	now := time.Now().UTC()
	next := m.items.Clone()

	matched := -1
	for i := range next {
		if next[i].FolderID == item.FolderID && next[i].ItemName == item.ItemName {
			matched = i
			break
		}
	}

	if matched >= 0 {
		existing := next[matched]
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.DeletedAt = existing.DeletedAt
		item.UpdatedAt = now
		next[matched] = item
	} else {
		item.ID = uuid.NewString()
		item.CreatedAt = now
		item.UpdatedAt = now
		item.DeletedAt = nil
		next = append(next, item)
	}

	if err := m.persistLocked(ctx, next); err != nil {
		return models.CredentialItem{}, err
	}

	m.logger.WithFields(map[string]interface{}{
		"item_id": item.ID,
		"merged":  matched >= 0,
	}).Debug("Item upserted")
	return item, nil
}

// Fields UpdateByID may modify. Everything else in an update payload is
// dropped; id and created_at in particular can never be overwritten.
var mutableFields = map[string]bool{
	"folder_id":   true,
	"folder_name": true,
	"item_name":   true,
	"item_type":   true,
	"username":    true,
	"password":    true,
	"fingerprint": true,
	"public_key":  true,
	"private_key": true,
}

// UpdateByID applies a sanitized partial update to the item with the given
// id. Non-string values for mutable fields and unknown item types are
// rejected before any encryption or network I/O. Soft-deleted items remain
// updatable and keep their deleted_at.
func (m *Manager) UpdateByID(ctx context.Context, id string, updates map[string]interface{}) (models.CredentialItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return models.CredentialItem{}, err
	}

	idx := -1
	for i := range m.items {
		if m.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.CredentialItem{}, models.ErrItemNotFound
	}

	updated, err := applyUpdates(m.items[idx], updates)
	if err != nil {
		return models.CredentialItem{}, err
	}
	updated.UpdatedAt = time.Now().UTC()

	next := m.items.Clone()
	next[idx] = updated

	if err := m.persistLocked(ctx, next); err != nil {
		return models.CredentialItem{}, err
	}

	m.logger.WithField("item_id", id).Debug("Item updated")
	return updated, nil
}

// applyUpdates sanitizes and applies a partial update.
func applyUpdates(item models.CredentialItem, updates map[string]interface{}) (models.CredentialItem, error) {
	for field, value := range updates {
		if !mutableFields[field] {
			// Includes id and created_at: stripped, never overwritten.
			continue
		}

		str, ok := value.(string)
		if !ok {
			return models.CredentialItem{}, &models.ValidationError{Field: field, Reason: "must be a string"}
		}

		switch field {
		case "folder_id":
			item.FolderID = str
		case "folder_name":
			item.FolderName = str
		case "item_name":
			item.ItemName = str
		case "item_type":
			t := models.ItemType(str)
			if !models.ValidItemType(t) {
				return models.CredentialItem{}, &models.ValidationError{Field: field, Reason: "must be login or ssh_key"}
			}
			item.ItemType = t
		case "username":
			item.Username = str
		case "password":
			item.Password = str
		case "fingerprint":
			item.Fingerprint = str
		case "public_key":
			item.PublicKey = str
		case "private_key":
			item.PrivateKey = str
		}
	}

	return item, nil
}

// Delete soft-deletes the item with the given id: it stays in the
// collection with deleted_at set and is recoverable from the trash.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return err
	}

	idx := -1
	for i := range m.items {
		if m.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.ErrItemNotFound
	}

	now := time.Now().UTC()
	next := m.items.Clone()
	next[idx].DeletedAt = &now
	next[idx].UpdatedAt = now

	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}

	m.logger.WithField("item_id", id).Debug("Item soft-deleted")
	return nil
}

// PermanentlyDelete removes the item with the given id from the collection
// entirely. A miss is ErrItemNotFound.
func (m *Manager) PermanentlyDelete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return err
	}

	next := models.VaultCollection{}
	for i := range m.items {
		if m.items[i].ID != id {
			next = append(next, m.items[i])
		}
	}
	if len(next) == len(m.items) {
		return models.ErrItemNotFound
	}

	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}

	m.logger.WithField("item_id", id).Debug("Item permanently deleted")
	return nil
}

// RemoveByNameInFolder hard-deletes every item matching the
// (folder_id, item_name) tuple. Unlike PermanentlyDelete, a miss is a
// silent no-op and performs no remote write; callers rely on that
// asymmetry.
func (m *Manager) RemoveByNameInFolder(ctx context.Context, folderID, itemName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireReadyLocked(); err != nil {
		return err
	}

	next := models.VaultCollection{}
	for i := range m.items {
		if m.items[i].FolderID == folderID && m.items[i].ItemName == itemName {
			continue
		}
		next = append(next, m.items[i])
	}
	if len(next) == len(m.items) {
		return nil
	}

	if err := m.persistLocked(ctx, next); err != nil {
		return err
	}

	m.logger.WithFields(map[string]interface{}{
		"folder_id": folderID,
		"item_name": itemName,
	}).Debug("Item removed")
	return nil
}
