package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many have
// run. Append only.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		credentials_encrypted BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		last_synced INTEGER
	);

	CREATE TABLE IF NOT EXISTS quota_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		tokens_input INTEGER,
		tokens_output INTEGER,
		cost_usd REAL,
		quota_limit INTEGER,
		quota_remaining INTEGER,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_quota_snapshots_account_time ON quota_snapshots(account_id, timestamp);

	CREATE TABLE IF NOT EXISTS model_usage (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		model_name TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		tokens_input INTEGER NOT NULL DEFAULT 0,
		tokens_output INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		request_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_model_usage_account_time ON model_usage(account_id, timestamp);

	CREATE TABLE IF NOT EXISTS notification_state (
		account_id TEXT PRIMARY KEY,
		last_75_percent_notified INTEGER,
		last_90_percent_notified INTEGER,
		last_95_percent_notified INTEGER
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_model_usage_model ON model_usage(account_id, model_name);`,
}

// migrate brings the schema up to date.
func (db *DB) migrate() error {
	ctx := context.Background()

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version)
	return version, err
}
