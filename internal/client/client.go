package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/seedvault/seedvault/internal/config"
	"github.com/seedvault/seedvault/internal/crypto"
	"github.com/seedvault/seedvault/internal/events"
	"github.com/seedvault/seedvault/internal/services/auth"
	"github.com/seedvault/seedvault/internal/services/folders"
	"github.com/seedvault/seedvault/internal/services/store"
	"github.com/seedvault/seedvault/internal/services/vault"
	"github.com/seedvault/seedvault/internal/state"
	"github.com/seedvault/seedvault/internal/transport"
)

// Client provides the high-level API: one instance per authenticated
// session, wiring config, transport, and the services together. The vault
// manager it owns is the only holder of decrypted vault state.
type Client struct {
	Auth     *auth.Service
	Folders  *folders.Service
	Store    *store.Service
	Vault    *vault.Manager
	Accounts state.Store

	config    *config.Config
	logger    *events.Logger
	transport transport.Transport
}

// New creates a client.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	transportClient := transport.NewTransport(&cfg.API, logger)
	cryptoProvider := crypto.NewProvider()

	tokenFile := expandHome(cfg.Auth.TokenFile)
	if tokenFile == "" {
		tokenFile = filepath.Join(cfg.Storage.DataDir, "token.json")
	}
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		logger.WithError(err).Warn("Failed to create token directory")
	}

	accountsDB := expandHome(cfg.Storage.AccountsDB)
	if err := os.MkdirAll(filepath.Dir(accountsDB), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	accounts, err := state.NewSQLiteStore(accountsDB, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(transportClient, tokenFile, logger)
	storeService := store.NewService(transportClient, logger)
	foldersService := folders.NewService(transportClient, logger)
	vaultManager := vault.NewManager(cryptoProvider, storeService, authService, transportClient, logger)

	return &Client{
		Auth:      authService,
		Folders:   foldersService,
		Store:     storeService,
		Vault:     vaultManager,
		Accounts:  accounts,
		config:    cfg,
		logger:    logger,
		transport: transportClient,
	}, nil
}

// Unlock initializes the vault manager from a recovery phrase and records
// the unlock in local bookkeeping.
func (c *Client) Unlock(ctx context.Context, mnemonic []string, accountID string) error {
	if err := c.Vault.Initialize(ctx, mnemonic, accountID); err != nil {
		return err
	}

	count := len(c.Vault.ActiveItems())
	if err := c.Accounts.RecordUnlock(accountID, c.Vault.VaultID(), count); err != nil {
		c.logger.WithError(err).Warn("Failed to record unlock")
	}

	return nil
}

// Logout wipes the vault cache and clears the session.
func (c *Client) Logout(ctx context.Context) error {
	c.Vault.ClearCache()
	return c.Auth.Logout(ctx)
}

// Close releases client resources. The vault cache is wiped first.
func (c *Client) Close() error {
	c.Vault.ClearCache()
	if err := c.Accounts.Close(); err != nil {
		return err
	}
	return c.transport.Close()
}

// expandHome expands a leading ~/ in a path.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
