package db

// SQL query fragments used across multiple functions
const (
	// sqlSinceClause filters a per-account table by unix timestamp
	sqlSinceClause = "WHERE account_id = ? AND timestamp >= ?"
)
