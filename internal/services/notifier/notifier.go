// Package notifier raises debounced desktop alerts when account usage crosses
// the 75, 90 and 95 percent thresholds.
package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
)

// Debounce is how long a tier stays silent after it fires.
const Debounce = 24 * time.Hour

// Store is the persistence the notifier needs.
type Store interface {
	GetSetting(key string) (string, bool, error)
	GetNotificationState(accountID string) (*models.NotificationState, error)
	UpdateNotificationState(state *models.NotificationState) error
}

// Sink delivers a notification to the user. Errors are logged by the caller
// and never propagated.
type Sink interface {
	Notify(n models.Notification) error
}

type tier struct {
	last      func(s *models.NotificationState) **time.Time
	title     string
	format    string
	threshold float64
	urgency   models.Urgency
}

// tiers are ordered highest first; only the first qualifying tier is evaluated.
var tiers = []tier{
	{
		threshold: 95,
		title:     "URGENT: Quota Critical",
		format:    "Your %s account is at %.1f%% - approaching limit!",
		urgency:   models.UrgencyCritical,
		last:      func(s *models.NotificationState) **time.Time { return &s.Last95 },
	},
	{
		threshold: 90,
		title:     "Quota Caution",
		format:    "Your %s account is at %.1f%% usage",
		urgency:   models.UrgencyNormal,
		last:      func(s *models.NotificationState) **time.Time { return &s.Last90 },
	},
	{
		threshold: 75,
		title:     "Quota Warning",
		format:    "Your %s account is at %.1f%% usage",
		urgency:   models.UrgencyLow,
		last:      func(s *models.NotificationState) **time.Time { return &s.Last75 },
	},
}

// Notifier evaluates quota results against the threshold tiers.
type Notifier struct {
	store Store
	sink  Sink
	now   func() time.Time
}

// New creates a notifier that reads settings and state from store and
// delivers through sink.
func New(store Store, sink Sink) *Notifier {
	return &Notifier{store: store, sink: sink, now: time.Now}
}

// CheckAndNotify fires at most one tier for q and persists the account's
// notification state whenever a usage percentage can be computed. Delivery
// failures are logged and do not fail the call; store failures do.
func (n *Notifier) CheckAndNotify(ctx context.Context, q *models.QuotaData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	enabled, err := n.enabled()
	if err != nil || !enabled {
		return err
	}

	now := n.now()
	quiet, err := n.quietHours(now)
	if err != nil || quiet {
		return err
	}

	pct, ok := q.UsagePercent()
	if !ok {
		return nil
	}

	state, err := n.store.GetNotificationState(q.AccountID)
	if err != nil {
		return err
	}
	if state == nil {
		state = &models.NotificationState{AccountID: q.AccountID}
	}

	for i, t := range tiers {
		if pct < t.threshold {
			continue
		}
		// Only the highest qualifying tier is considered, and it stays quiet
		// while it or any tier above it is inside the debounce window.
		if recentlyNotified(state, tiers[:i+1], now) {
			break
		}

		n.send(models.Notification{
			Title:     t.title,
			Body:      fmt.Sprintf(t.format, q.AccountID, pct),
			AccountID: q.AccountID,
			Threshold: int(t.threshold),
			Urgency:   t.urgency,
		})
		stamp := now
		*t.last(state) = &stamp
		logger.Info("Sent quota notification", "account_id", q.AccountID, "threshold", int(t.threshold), "percent", pct)
		break
	}

	return n.store.UpdateNotificationState(state)
}

// recentlyNotified reports whether any of the given tiers fired within the
// last Debounce. A tier is eligible again once its last fire is strictly older.
func recentlyNotified(state *models.NotificationState, ts []tier, now time.Time) bool {
	for _, t := range ts {
		if last := *t.last(state); last != nil && now.Sub(*last) <= Debounce {
			return true
		}
	}
	return false
}

func (n *Notifier) send(msg models.Notification) {
	if n.sink == nil {
		return
	}
	if err := n.sink.Notify(msg); err != nil {
		logger.Warn("Failed to send notification", "account_id", msg.AccountID, "error", err)
	}
}

func (n *Notifier) enabled() (bool, error) {
	v, ok, err := n.store.GetSetting(models.SettingNotificationsEnabled)
	if err != nil {
		return false, err
	}
	return !ok || v == "true", nil
}

func (n *Notifier) quietHours(now time.Time) (bool, error) {
	start, okStart, err := n.store.GetSetting(models.SettingQuietHoursStart)
	if err != nil {
		return false, err
	}
	end, okEnd, err := n.store.GetSetting(models.SettingQuietHoursEnd)
	if err != nil {
		return false, err
	}
	if !okStart || !okEnd {
		return false, nil
	}
	return InQuietHours(start, end, now.Hour()), nil
}

// InQuietHours reports whether hour falls in the [start, end) window given as
// "HH" or "HH:MM" strings. Windows with start after end wrap past midnight.
// Equal, empty or malformed bounds never suppress.
func InQuietHours(start, end string, hour int) bool {
	s, ok := ParseHour(start)
	if !ok {
		return false
	}
	e, ok := ParseHour(end)
	if !ok || s == e {
		return false
	}
	if s < e {
		return hour >= s && hour < e
	}
	return hour >= s || hour < e
}

// ParseHour extracts the hour from "HH" or "HH:MM".
func ParseHour(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	hh, mm, hasMinutes := strings.Cut(v, ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	if hasMinutes {
		m, err := strconv.Atoi(mm)
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	}
	return h, true
}
