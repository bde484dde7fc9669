// Package models defines data structures and domain types.
package models

import "time"

// ModelTotals represents usage for one model summed over a time range.
type ModelTotals struct {
	FirstSeen         time.Time
	LastSeen          time.Time
	ModelName         string
	TotalInputTokens  int64
	TotalOutputTokens int64
	TotalRequests     int64
	TotalCostUSD      float64
	Samples           int
}

// TotalTokens returns input plus output tokens.
func (m ModelTotals) TotalTokens() int64 {
	return m.TotalInputTokens + m.TotalOutputTokens
}
