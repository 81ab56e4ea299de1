// Package vault implements the client-side vault manager: key derivation at
// unlock, an in-memory decrypted cache, and full re-encrypt-and-upsert of
// the whole collection on every mutation. Plaintext and key material exist
// only in memory and are wiped on logout or any initialization failure.
package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/seedvault/seedvault/internal/crypto"
	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
)

// State of the manager's lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

// AuthProvider supplies the current authenticated user.
type AuthProvider interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// RemoteStore is the single-blob vault storage contract.
type RemoteStore interface {
	GetVault(ctx context.Context, userID, vaultID string) (*models.EncryptedVaultRecord, error)
	UpsertVault(ctx context.Context, record *models.EncryptedVaultRecord) error
}

// EventSource delivers change-feed notifications for a vault.
type EventSource interface {
	StreamEvents(ctx context.Context, vaultID string) (<-chan models.VaultEvent, error)
}

// Manager owns the decrypted cache and derived keys for one authenticated
// session. Construct one at login and discard it at logout; there is no
// package-level instance.
//
// All lifecycle and mutation methods serialize on an internal mutex, so
// concurrent mutators cannot overwrite each other's writes: each one reads
// the cache, re-encrypts, and uploads under the lock.
type Manager struct {
	mu     sync.Mutex
	state  State
	crypto crypto.Provider
	store  RemoteStore
	auth   AuthProvider
	source EventSource
	logger *events.Logger

	// Session material; nil/empty unless state is Ready.
	keys   *crypto.VaultKeys
	userID string
	items  models.VaultCollection
}

// NewManager creates a vault manager. source may be nil when no change
// feed is available; WatchRemote then reports an error.
func NewManager(provider crypto.Provider, store RemoteStore, auth AuthProvider, source EventSource, logger *events.Logger) *Manager {
	return &Manager{
		crypto: provider,
		store:  store,
		auth:   auth,
		source: source,
		logger: logger.WithField("service", "vault"),
	}
}

// Initialize unlocks the vault: derives keys from the recovery phrase,
// fetches and decrypts the remote record (or starts an empty collection for
// a first-time vault), and finishes with the normalization write: a
// re-encrypt and upsert that brings the remote metadata up to the current
// format even when the stored record predates it. The manager becomes Ready
// only after that write succeeds.
//
// Idempotent once Ready. Any failure wipes keys and cache and returns the
// manager to Uninitialized, so a retry is always possible and partial
// initialization is never observable.
func (m *Manager) Initialize(ctx context.Context, mnemonic []string, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateReady {
		m.logger.Debug("Already initialized")
		return nil
	}

	m.state = StateInitializing
	m.wipeLocked()

	keys, err := m.crypto.DeriveVaultKeys(mnemonic, accountID)
	if err != nil {
		m.state = StateUninitialized
		return fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
	}

	user, err := m.auth.CurrentUser(ctx)
	if err != nil || user == nil || user.ID == "" {
		keys.Wipe()
		m.state = StateUninitialized
		return fmt.Errorf("%w: no current user", models.ErrNotAuthenticated)
	}

	logger := m.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"vault_id": keys.VaultID,
	})

	var items models.VaultCollection
	record, err := m.store.GetVault(ctx, user.ID, keys.VaultID)
	switch {
	case errors.Is(err, models.ErrVaultNotFound):
		logger.Info("No remote vault, starting empty collection")
		items = models.VaultCollection{}
	case err != nil:
		keys.Wipe()
		m.state = StateUninitialized
		return fmt.Errorf("fetch vault: %w", err)
	default:
		items, err = m.decodeRecord(record, keys)
		if err != nil {
			// A vault that cannot be decrypted or parsed must never be
			// partially trusted or silently replaced.
			keys.Wipe()
			m.state = StateUninitialized
			return fmt.Errorf("%w: %v", models.ErrVaultInitFailed, err)
		}
		logger.WithField("items", len(items)).Info("Loaded remote vault")
	}

	m.keys = keys
	m.userID = user.ID

	// Normalization write: one extra remote write per unlock, in exchange
	// for always-current metadata on the stored record.
	if err := m.persistLocked(ctx, items); err != nil {
		m.wipeLocked()
		m.state = StateUninitialized
		return fmt.Errorf("normalization write: %w", err)
	}

	m.state = StateReady
	logger.Info("Vault ready")
	return nil
}

// IsInitialized reports whether the vault is Ready.
func (m *Manager) IsInitialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateReady
}

// VaultID returns the derived vault identifier, or "" before Ready.
func (m *Manager) VaultID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		return ""
	}
	return m.keys.VaultID
}

// Refresh re-fetches and decrypts the remote record into the cache without
// writing anything back. No-op unless Ready. A failed refresh leaves the
// cache unchanged.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return nil
	}

	record, err := m.store.GetVault(ctx, m.userID, m.keys.VaultID)
	if errors.Is(err, models.ErrVaultNotFound) {
		m.items = models.VaultCollection{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh vault: %w", err)
	}

	items, err := m.decodeRecord(record, m.keys)
	if err != nil {
		return fmt.Errorf("refresh vault: %w", err)
	}

	m.items = items
	m.logger.WithField("items", len(items)).Debug("Vault refreshed")
	return nil
}

// WatchRemote consumes the change feed for this vault and refreshes the
// cache on every update notification. It blocks until ctx is done or the
// stream closes.
func (m *Manager) WatchRemote(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return models.ErrVaultNotLoaded
	}
	vaultID := m.keys.VaultID
	m.mu.Unlock()

	if m.source == nil {
		return fmt.Errorf("no event source configured")
	}

	eventCh, err := m.source.StreamEvents(ctx, vaultID)
	if err != nil {
		return fmt.Errorf("subscribe change feed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-eventCh:
			if !ok {
				return nil
			}
			if event.Type != models.EventVaultUpdated {
				continue
			}
			if err := m.Refresh(ctx); err != nil {
				m.logger.WithError(err).Warn("Refresh after change event failed")
			}
		}
	}
}

// ClearCache wipes key material and the decrypted cache and returns the
// manager to Uninitialized. Call on logout.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipeLocked()
	m.state = StateUninitialized
	m.logger.Info("Vault cache cleared")
}

// wipeLocked zeroes key buffers before dropping references.
func (m *Manager) wipeLocked() {
	if m.keys != nil {
		m.keys.Wipe()
		m.keys = nil
	}
	m.items = nil
	m.userID = ""
}

// decodeRecord decrypts and parses a remote record into a validated
// collection. Malformed items are rejected, not coerced.
func (m *Manager) decodeRecord(record *models.EncryptedVaultRecord, keys *crypto.VaultKeys) (models.VaultCollection, error) {
	plaintext, err := m.crypto.Decrypt(record.EncryptedBlob, keys)
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}

	var items models.VaultCollection
	if err := json.Unmarshal(plaintext, &items); err != nil {
		return nil, fmt.Errorf("parse vault collection: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("parse vault collection: not an array")
	}

	if err := items.Validate(); err != nil {
		return nil, fmt.Errorf("validate vault collection: %w", err)
	}

	return items, nil
}

// persistLocked validates, encrypts, and upserts the collection, then
// replaces the cache. The cache is only swapped after the upsert succeeds,
// so it never diverges from the last persisted state; on failure the
// pre-mutation cache survives and the error propagates.
func (m *Manager) persistLocked(ctx context.Context, next models.VaultCollection) error {
	if m.keys == nil {
		return models.ErrVaultNotLoaded
	}

	if next == nil {
		next = models.VaultCollection{}
	}

	if err := next.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("serialize vault collection: %w", err)
	}

	blob, err := m.crypto.Encrypt(data, m.keys)
	if err != nil {
		return err
	}

	record := &models.EncryptedVaultRecord{
		VaultID:       m.keys.VaultID,
		UserID:        m.userID,
		EncryptedBlob: blob,
		Metadata: models.EncryptionMetadata{
			Algorithm:     crypto.AlgorithmLabel,
			KeyDerivation: crypto.KDFLabel,
			Iterations:    crypto.KDFIterations,
			Version:       crypto.FormatVersion,
			Timestamp:     time.Now().Unix(),
		},
	}

	if err := m.store.UpsertVault(ctx, record); err != nil {
		return err
	}

	m.items = next
	return nil
}

func (m *Manager) requireReadyLocked() error {
	if m.state != StateReady {
		return models.ErrVaultNotLoaded
	}
	return nil
}
