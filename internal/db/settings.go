package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/j-veylop/quonitor/internal/models"
)

// GetSetting returns the value stored under key and whether it exists.
func (db *DB) GetSetting(key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(context.Background(), "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dbErr(err, "failed to get setting")
	}
	return value, true, nil
}

// SetSetting upserts a setting.
func (db *DB) SetSetting(key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.ExecContext(context.Background(), query, key, value); err != nil {
		return dbErr(err, "failed to set setting")
	}
	return nil
}

// GetAllSettings returns every stored setting.
func (db *DB) GetAllSettings() (map[string]string, error) {
	rows, err := db.QueryContext(context.Background(), "SELECT key, value FROM settings")
	if err != nil {
		return nil, dbErr(err, "failed to query settings")
	}
	defer closeRows(rows)

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, dbErr(err, "failed to scan setting")
		}
		settings[k] = v
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate settings")
	}
	return settings, nil
}

// GetNotificationState returns the account's notification state, or nil if
// none has been recorded yet.
func (db *DB) GetNotificationState(accountID string) (*models.NotificationState, error) {
	query := `
		SELECT account_id, last_75_percent_notified, last_90_percent_notified, last_95_percent_notified
		FROM notification_state
		WHERE account_id = ?
	`

	var state models.NotificationState
	var l75, l90, l95 sql.NullInt64
	err := db.QueryRowContext(context.Background(), query, accountID).Scan(&state.AccountID, &l75, &l90, &l95)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(err, "failed to get notification state")
	}

	state.Last75 = fromNullUnix(l75)
	state.Last90 = fromNullUnix(l90)
	state.Last95 = fromNullUnix(l95)
	return &state, nil
}

// UpdateNotificationState upserts the account's notification state.
func (db *DB) UpdateNotificationState(state *models.NotificationState) error {
	query := `
		INSERT INTO notification_state (
			account_id, last_75_percent_notified, last_90_percent_notified, last_95_percent_notified
		) VALUES (?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			last_75_percent_notified = excluded.last_75_percent_notified,
			last_90_percent_notified = excluded.last_90_percent_notified,
			last_95_percent_notified = excluded.last_95_percent_notified
	`

	_, err := db.ExecContext(context.Background(), query,
		state.AccountID,
		nullUnix(state.Last75),
		nullUnix(state.Last90),
		nullUnix(state.Last95),
	)
	if err != nil {
		return dbErr(err, "failed to update notification state")
	}
	return nil
}
