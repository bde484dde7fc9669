// Package models defines data structures and domain types.
package models

import "time"

// ModelData is the per-model slice of a fetch result.
type ModelData struct {
	ModelName    string  `json:"modelName"`
	TokensInput  int64   `json:"tokensInput"`
	TokensOutput int64   `json:"tokensOutput"`
	CostUSD      float64 `json:"costUsd"`
	RequestCount int64   `json:"requestCount"`
}

// QuotaData is the normalized result of one provider fetch.
// Providers leave AccountID empty; the aggregator fills it in.
type QuotaData struct {
	Timestamp      time.Time   `json:"timestamp"`
	TokensInput    *int64      `json:"tokensInput,omitempty"`
	TokensOutput   *int64      `json:"tokensOutput,omitempty"`
	CostUSD        *float64    `json:"costUsd,omitempty"`
	QuotaLimit     *int64      `json:"quotaLimit,omitempty"`
	QuotaRemaining *int64      `json:"quotaRemaining,omitempty"`
	AccountID      string      `json:"accountId"`
	Metadata       string      `json:"metadata,omitempty"`
	ModelBreakdown []ModelData `json:"modelBreakdown"`

	// RefreshedCredentials is set when the provider rotated the account's
	// credentials during the fetch. Never serialized.
	RefreshedCredentials *Credentials `json:"-"`
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (q *QuotaData) Clone() QuotaData {
	clone := *q
	clone.TokensInput = cloneInt(q.TokensInput)
	clone.TokensOutput = cloneInt(q.TokensOutput)
	clone.QuotaLimit = cloneInt(q.QuotaLimit)
	clone.QuotaRemaining = cloneInt(q.QuotaRemaining)
	clone.CostUSD = cloneFloat(q.CostUSD)
	if q.RefreshedCredentials != nil {
		c := *q.RefreshedCredentials
		clone.RefreshedCredentials = &c
	}
	if q.ModelBreakdown != nil {
		clone.ModelBreakdown = make([]ModelData, len(q.ModelBreakdown))
		copy(clone.ModelBreakdown, q.ModelBreakdown)
	}
	return clone
}

// UsagePercent returns (limit-remaining)/limit*100 when both are known and limit > 0.
func (q *QuotaData) UsagePercent() (float64, bool) {
	if q.QuotaLimit == nil || q.QuotaRemaining == nil || *q.QuotaLimit <= 0 {
		return 0, false
	}
	used := *q.QuotaLimit - *q.QuotaRemaining
	return float64(used) / float64(*q.QuotaLimit) * 100, true
}

// Snapshot projects the fetch result into its durable account-level row.
func (q *QuotaData) Snapshot() *QuotaSnapshot {
	return &QuotaSnapshot{
		AccountID:      q.AccountID,
		Timestamp:      q.Timestamp,
		TokensInput:    cloneInt(q.TokensInput),
		TokensOutput:   cloneInt(q.TokensOutput),
		CostUSD:        cloneFloat(q.CostUSD),
		QuotaLimit:     cloneInt(q.QuotaLimit),
		QuotaRemaining: cloneInt(q.QuotaRemaining),
		Metadata:       q.Metadata,
	}
}

// ModelUsages projects the breakdown into durable per-model rows.
func (q *QuotaData) ModelUsages() []ModelUsage {
	usages := make([]ModelUsage, 0, len(q.ModelBreakdown))
	for _, m := range q.ModelBreakdown {
		usages = append(usages, ModelUsage{
			AccountID:    q.AccountID,
			ModelName:    m.ModelName,
			Timestamp:    q.Timestamp,
			TokensInput:  m.TokensInput,
			TokensOutput: m.TokensOutput,
			CostUSD:      m.CostUSD,
			RequestCount: m.RequestCount,
		})
	}
	return usages
}

// QuotaSnapshot is an append-only account-level usage record (DB model).
type QuotaSnapshot struct {
	Timestamp      time.Time
	TokensInput    *int64
	TokensOutput   *int64
	CostUSD        *float64
	QuotaLimit     *int64
	QuotaRemaining *int64
	AccountID      string
	Metadata       string
	ID             int64
}

// ModelUsage is an append-only per-model usage record (DB model).
type ModelUsage struct {
	Timestamp    time.Time
	AccountID    string
	ModelName    string
	ID           int64
	TokensInput  int64
	TokensOutput int64
	RequestCount int64
	CostUSD      float64
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
