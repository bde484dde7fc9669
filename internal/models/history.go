// Package models defines data structures and domain types.
package models

import "time"

// DailyUsagePoint contains one day of model usage for trend charts.
type DailyUsagePoint struct {
	Date         time.Time
	TokensInput  int64
	TokensOutput int64
	Requests     int64
	CostUSD      float64
	DataPoints   int // Number of usage rows recorded that day
}

// TotalTokens returns input plus output tokens for the day.
func (p DailyUsagePoint) TotalTokens() int64 {
	return p.TokensInput + p.TokensOutput
}

// CostSeries extracts the daily cost values in order, for plotting.
func CostSeries(points []DailyUsagePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.CostUSD
	}
	return out
}

// TokenSeries extracts the daily token totals in order, for plotting.
func TokenSeries(points []DailyUsagePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.TotalTokens())
	}
	return out
}

// SplitTokenSeries extracts daily input and output tokens as two series.
func SplitTokenSeries(points []DailyUsagePoint) (input, output []float64) {
	input = make([]float64, len(points))
	output = make([]float64, len(points))
	for i, p := range points {
		input[i] = float64(p.TokensInput)
		output[i] = float64(p.TokensOutput)
	}
	return input, output
}
