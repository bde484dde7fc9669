package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
)

const snapshotColumns = `id, account_id, timestamp, tokens_input, tokens_output,
	cost_usd, quota_limit, quota_remaining, metadata`

const modelUsageColumns = `id, account_id, model_name, timestamp, tokens_input,
	tokens_output, cost_usd, request_count`

// InsertAccount stores a new account.
func (db *DB) InsertAccount(acc *models.Account) error {
	query := `
		INSERT INTO accounts (id, provider, name, credentials_encrypted, created_at, last_synced)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := acc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
		acc.CreatedAt = createdAt
	}

	_, err := db.ExecContext(context.Background(), query,
		acc.ID,
		acc.Provider,
		acc.Name,
		acc.CredentialsEncrypted,
		createdAt.Unix(),
		nullUnix(acc.LastSynced),
	)
	if err != nil {
		return dbErr(err, "failed to insert account")
	}
	return nil
}

// GetAccount returns the account with the given id, or nil if none exists.
func (db *DB) GetAccount(id string) (*models.Account, error) {
	query := `
		SELECT id, provider, name, credentials_encrypted, created_at, last_synced
		FROM accounts
		WHERE id = ?
	`

	acc, err := scanAccount(db.QueryRowContext(context.Background(), query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(err, "failed to get account")
	}
	return acc, nil
}

// GetAllAccounts returns every account ordered by creation time.
func (db *DB) GetAllAccounts() ([]models.Account, error) {
	query := `
		SELECT id, provider, name, credentials_encrypted, created_at, last_synced
		FROM accounts
		ORDER BY created_at, id
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, dbErr(err, "failed to query accounts")
	}
	defer closeRows(rows)

	var accounts []models.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, dbErr(err, "failed to scan account")
		}
		accounts = append(accounts, *acc)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate accounts")
	}
	return accounts, nil
}

// DeleteAccount removes an account together with its snapshots, model usage
// and notification state.
func (db *DB) DeleteAccount(id string) error {
	return db.withTx("failed to delete account", func(tx *sql.Tx) error {
		ctx := context.Background()
		for _, query := range []string{
			"DELETE FROM quota_snapshots WHERE account_id = ?",
			"DELETE FROM model_usage WHERE account_id = ?",
			"DELETE FROM notification_state WHERE account_id = ?",
			"DELETE FROM accounts WHERE id = ?",
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateAccountCredentials replaces an account's sealed credential blob.
func (db *DB) UpdateAccountCredentials(id string, sealed []byte) error {
	res, err := db.ExecContext(context.Background(),
		"UPDATE accounts SET credentials_encrypted = ? WHERE id = ?", sealed, id)
	if err != nil {
		return dbErr(err, "failed to update credentials")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.Config("account %s not found", id)
	}
	return nil
}

// UpdateAccountSyncTime records when the account was last fetched.
func (db *DB) UpdateAccountSyncTime(id string, ts time.Time) error {
	_, err := db.ExecContext(context.Background(), "UPDATE accounts SET last_synced = ? WHERE id = ?", ts.Unix(), id)
	if err != nil {
		return dbErr(err, "failed to update sync time")
	}
	return nil
}

// InsertQuotaSnapshot records a point-in-time quota reading.
func (db *DB) InsertQuotaSnapshot(snapshot *models.QuotaSnapshot) error {
	return db.withTx("failed to insert quota snapshot", func(tx *sql.Tx) error {
		return insertSnapshot(tx, snapshot)
	})
}

// InsertModelUsage records one per-model usage row.
func (db *DB) InsertModelUsage(usage *models.ModelUsage) error {
	return db.withTx("failed to insert model usage", func(tx *sql.Tx) error {
		return insertModelUsage(tx, usage)
	})
}

// RecordFetch persists one fetch result atomically: the snapshot, one model
// usage row per breakdown entry and the account's sync time. Nothing is written
// and a Config error is returned when the account no longer exists.
func (db *DB) RecordFetch(q *models.QuotaData) error {
	return db.withTx("failed to record fetch", func(tx *sql.Tx) error {
		if err := insertSnapshot(tx, q.Snapshot()); err != nil {
			return err
		}
		for _, usage := range q.ModelUsages() {
			if err := insertModelUsage(tx, &usage); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(context.Background(),
			"UPDATE accounts SET last_synced = ? WHERE id = ?", q.Timestamp.Unix(), q.AccountID)
		if err != nil {
			return err
		}
		// The account may have been removed while its fetch was in flight.
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.Config("account %s not found", q.AccountID)
		}
		return nil
	})
}

// GetLatestSnapshot returns the newest snapshot for an account, or nil.
func (db *DB) GetLatestSnapshot(accountID string) (*models.QuotaSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM quota_snapshots
		WHERE account_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(db.QueryRowContext(context.Background(), query, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(err, "failed to get latest snapshot")
	}
	return snap, nil
}

// GetSnapshotsSince returns an account's snapshots at or after since, oldest first.
func (db *DB) GetSnapshotsSince(accountID string, since time.Time) ([]models.QuotaSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM quota_snapshots
		` + sqlSinceClause + `
		ORDER BY timestamp, id
	`

	rows, err := db.QueryContext(context.Background(), query, accountID, since.Unix())
	if err != nil {
		return nil, dbErr(err, "failed to query snapshots")
	}
	defer closeRows(rows)

	var snapshots []models.QuotaSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, dbErr(err, "failed to scan snapshot")
		}
		snapshots = append(snapshots, *snap)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate snapshots")
	}
	return snapshots, nil
}

// GetModelUsageSince returns an account's model usage rows at or after since, oldest first.
func (db *DB) GetModelUsageSince(accountID string, since time.Time) ([]models.ModelUsage, error) {
	query := `SELECT ` + modelUsageColumns + `
		FROM model_usage
		` + sqlSinceClause + `
		ORDER BY timestamp, id
	`

	rows, err := db.QueryContext(context.Background(), query, accountID, since.Unix())
	if err != nil {
		return nil, dbErr(err, "failed to query model usage")
	}
	defer closeRows(rows)

	var usages []models.ModelUsage
	for rows.Next() {
		var u models.ModelUsage
		var ts int64
		if err := rows.Scan(&u.ID, &u.AccountID, &u.ModelName, &ts, &u.TokensInput,
			&u.TokensOutput, &u.CostUSD, &u.RequestCount); err != nil {
			return nil, dbErr(err, "failed to scan model usage")
		}
		u.Timestamp = time.Unix(ts, 0)
		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate model usage")
	}
	return usages, nil
}

// GetModelTotalsSince sums an account's usage per model, highest cost first.
func (db *DB) GetModelTotalsSince(accountID string, since time.Time) ([]models.ModelTotals, error) {
	query := `
		SELECT
			model_name,
			COALESCE(SUM(tokens_input), 0),
			COALESCE(SUM(tokens_output), 0),
			COALESCE(SUM(request_count), 0),
			COALESCE(SUM(cost_usd), 0),
			COUNT(*),
			MIN(timestamp),
			MAX(timestamp)
		FROM model_usage
		` + sqlSinceClause + `
		GROUP BY model_name
		ORDER BY SUM(cost_usd) DESC, model_name
	`

	rows, err := db.QueryContext(context.Background(), query, accountID, since.Unix())
	if err != nil {
		return nil, dbErr(err, "failed to query model totals")
	}
	defer closeRows(rows)

	var totals []models.ModelTotals
	for rows.Next() {
		var m models.ModelTotals
		var first, last int64
		if err := rows.Scan(&m.ModelName, &m.TotalInputTokens, &m.TotalOutputTokens,
			&m.TotalRequests, &m.TotalCostUSD, &m.Samples, &first, &last); err != nil {
			return nil, dbErr(err, "failed to scan model totals")
		}
		m.FirstSeen = time.Unix(first, 0)
		m.LastSeen = time.Unix(last, 0)
		totals = append(totals, m)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate model totals")
	}
	return totals, nil
}

// CleanupOlderThan deletes snapshots and model usage older than the given
// number of days and returns how many rows were removed.
func (db *DB) CleanupOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, apperr.Config("retention days must not be negative, got %d", days)
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()

	var removed int64
	err := db.withTx("failed to clean up old data", func(tx *sql.Tx) error {
		for _, table := range []string{"quota_snapshots", "model_usage"} {
			res, err := tx.ExecContext(context.Background(),
				fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("cleaned up old usage data", "days", days, "rows", removed)
	return removed, nil
}

func insertSnapshot(tx *sql.Tx, s *models.QuotaSnapshot) error {
	query := `
		INSERT INTO quota_snapshots (
			account_id, timestamp, tokens_input, tokens_output, cost_usd,
			quota_limit, quota_remaining, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := s.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := tx.ExecContext(context.Background(), query,
		s.AccountID,
		timestamp.Unix(),
		s.TokensInput,
		s.TokensOutput,
		s.CostUSD,
		s.QuotaLimit,
		s.QuotaRemaining,
		nullString(s.Metadata),
	)
	if err != nil {
		return err
	}

	if id, err := result.LastInsertId(); err == nil {
		s.ID = id
	}
	return nil
}

func insertModelUsage(tx *sql.Tx, u *models.ModelUsage) error {
	query := `
		INSERT INTO model_usage (
			account_id, model_name, timestamp, tokens_input, tokens_output,
			cost_usd, request_count
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	timestamp := u.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := tx.ExecContext(context.Background(), query,
		u.AccountID,
		u.ModelName,
		timestamp.Unix(),
		u.TokensInput,
		u.TokensOutput,
		u.CostUSD,
		u.RequestCount,
	)
	if err != nil {
		return err
	}

	if id, err := result.LastInsertId(); err == nil {
		u.ID = id
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var acc models.Account
	var createdAt int64
	var lastSynced sql.NullInt64

	if err := row.Scan(&acc.ID, &acc.Provider, &acc.Name, &acc.CredentialsEncrypted, &createdAt, &lastSynced); err != nil {
		return nil, err
	}

	acc.CreatedAt = time.Unix(createdAt, 0)
	acc.LastSynced = fromNullUnix(lastSynced)
	return &acc, nil
}

func scanSnapshot(row scanner) (*models.QuotaSnapshot, error) {
	var s models.QuotaSnapshot
	var ts int64
	var in, out, limit, remaining sql.NullInt64
	var cost sql.NullFloat64
	var metadata sql.NullString

	if err := row.Scan(&s.ID, &s.AccountID, &ts, &in, &out, &cost, &limit, &remaining, &metadata); err != nil {
		return nil, err
	}

	s.Timestamp = time.Unix(ts, 0)
	s.TokensInput = fromNullInt(in)
	s.TokensOutput = fromNullInt(out)
	s.QuotaLimit = fromNullInt(limit)
	s.QuotaRemaining = fromNullInt(remaining)
	if cost.Valid {
		s.CostUSD = models.Float64(cost.Float64)
	}
	s.Metadata = metadata.String
	return &s, nil
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(msg string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return dbErr(err, msg)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("failed to roll back transaction", "error", rbErr)
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return dbErr(err, msg)
	}
	if err := tx.Commit(); err != nil {
		return dbErr(err, msg)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.Error("failed to close rows", "error", err)
	}
}

func dbErr(err error, msg string) error {
	return apperr.Database(err, msg)
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0)
	return &t
}

func fromNullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return models.Int64(n.Int64)
}
