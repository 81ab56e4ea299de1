// Package store adapts the backend's single-blob vault storage to the
// fetch/upsert contract the vault manager needs. The backend holds at most
// one row per (user_id, vault_id) pair.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/models"
	"github.com/seedvault/seedvault/internal/transport"
)

// Service talks to the remote vault store.
type Service struct {
	transport transport.Transport
	logger    *events.Logger
}

// NewService creates a remote vault store adapter.
func NewService(transport transport.Transport, logger *events.Logger) *Service {
	return &Service{
		transport: transport,
		logger:    logger.WithField("service", "store"),
	}
}

// GetVault fetches the encrypted record for (userID, vaultID). A missing
// record is models.ErrVaultNotFound; every other failure wraps
// models.ErrRemoteStore.
func (s *Service) GetVault(ctx context.Context, userID, vaultID string) (*models.EncryptedVaultRecord, error) {
	s.logger.WithField("vault_id", vaultID).Debug("Fetching vault record")

	resp, err := s.transport.PostJSON(ctx, "/vault/get", map[string]interface{}{
		"user_id":  userID,
		"vault_id": vaultID,
	})
	if err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, models.ErrVaultNotFound
		}
		return nil, fmt.Errorf("%w: fetch vault: %v", models.ErrRemoteStore, err)
	}

	raw, ok := resp["vault"]
	if !ok || raw == nil {
		return nil, models.ErrVaultNotFound
	}

	// Typed round-trip instead of reshaping the dynamic map by hand.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: encode vault payload: %v", models.ErrRemoteStore, err)
	}

	var record models.EncryptedVaultRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: decode vault record: %v", models.ErrRemoteStore, err)
	}

	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: malformed vault record: %v", models.ErrRemoteStore, err)
	}

	return &record, nil
}

// UpsertVault writes the record, keyed on (user_id, vault_id).
func (s *Service) UpsertVault(ctx context.Context, record *models.EncryptedVaultRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid vault record: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"vault_id":  record.VaultID,
		"blob_size": len(record.EncryptedBlob),
	}).Debug("Upserting vault record")

	if _, err := s.transport.PostJSON(ctx, "/vault/upsert", record); err != nil {
		return fmt.Errorf("%w: upsert vault: %v", models.ErrRemoteStore, err)
	}

	return nil
}
