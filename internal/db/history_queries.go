package db

import (
	"context"
	"time"

	"github.com/j-veylop/quonitor/internal/models"
)

// GetDailyUsageTrend returns per-day model usage totals for an account,
// oldest first. Days are bucketed in local time.
func (db *DB) GetDailyUsageTrend(accountID string, since time.Time) ([]models.DailyUsagePoint, error) {
	query := `
		SELECT
			date(timestamp, 'unixepoch', 'localtime') as day,
			COALESCE(SUM(tokens_input), 0),
			COALESCE(SUM(tokens_output), 0),
			COALESCE(SUM(request_count), 0),
			COALESCE(SUM(cost_usd), 0),
			COUNT(*)
		FROM model_usage
		` + sqlSinceClause + `
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := db.QueryContext(context.Background(), query, accountID, since.Unix())
	if err != nil {
		return nil, dbErr(err, "failed to query daily trend")
	}
	defer closeRows(rows)

	var points []models.DailyUsagePoint
	for rows.Next() {
		var p models.DailyUsagePoint
		var dateStr string

		if err := rows.Scan(&dateStr, &p.TokensInput, &p.TokensOutput,
			&p.Requests, &p.CostUSD, &p.DataPoints); err != nil {
			return nil, dbErr(err, "failed to scan daily trend")
		}

		if t, err := time.ParseInLocation("2006-01-02", dateStr, time.Local); err == nil {
			p.Date = t
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "failed to iterate daily trend")
	}
	return points, nil
}
