// Package models defines data structures and domain types.
package models

import "time"

// NotificationState tracks when each threshold tier last fired for an account.
type NotificationState struct {
	Last75    *time.Time
	Last90    *time.Time
	Last95    *time.Time
	AccountID string
}

// Urgency is the notification urgency level.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "critical"
	case UrgencyNormal:
		return "normal"
	default:
		return "low"
	}
}

// Notification is a user-facing alert about quota consumption.
type Notification struct {
	Title     string
	Body      string
	AccountID string
	Threshold int
	Urgency   Urgency
}
