package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seedvault/seedvault/internal/events"
)

// CurrentSchemaVersion for migration checks.
const CurrentSchemaVersion = 1

// SQLiteStore implements Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens (creating if needed) the bookkeeping database.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "account_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS accounts (
        account_id TEXT PRIMARY KEY,
        vault_id TEXT NOT NULL,
        item_count INTEGER NOT NULL DEFAULT 0,
        last_unlock TIMESTAMP,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// RecordUnlock upserts the account row after a successful vault unlock.
func (s *SQLiteStore) RecordUnlock(accountID, vaultID string, itemCount int) error {
	now := time.Now().UTC()

	_, err := s.db.Exec(`
        INSERT INTO accounts (account_id, vault_id, item_count, last_unlock, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(account_id) DO UPDATE SET
            vault_id = excluded.vault_id,
            item_count = excluded.item_count,
            last_unlock = excluded.last_unlock,
            updated_at = excluded.updated_at`,
		accountID, vaultID, itemCount, now, now, now,
	)
	if err != nil {
		return fmt.Errorf("record unlock: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id": accountID,
		"vault_id":   vaultID,
	}).Debug("Recorded unlock")
	return nil
}

// ListAccounts returns all known accounts, most recently unlocked first.
func (s *SQLiteStore) ListAccounts() ([]*AccountInfo, error) {
	rows, err := s.db.Query(`
        SELECT account_id, vault_id, item_count, last_unlock, created_at, updated_at
        FROM accounts
        ORDER BY last_unlock DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*AccountInfo
	for rows.Next() {
		var info AccountInfo
		var lastUnlock sql.NullTime
		if err := rows.Scan(&info.AccountID, &info.VaultID, &info.ItemCount,
			&lastUnlock, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if lastUnlock.Valid {
			info.LastUnlock = lastUnlock.Time
		}
		accounts = append(accounts, &info)
	}

	return accounts, rows.Err()
}

// Forget removes an account row.
func (s *SQLiteStore) Forget(accountID string) error {
	result, err := s.db.Exec(`DELETE FROM accounts WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("forget account: %w", err)
	}

	if n, _ := result.RowsAffected(); n > 0 {
		s.logger.WithField("account_id", accountID).Debug("Forgot account")
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
