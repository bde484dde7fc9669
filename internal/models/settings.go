// Package models defines data structures and domain types.
package models

// Setting keys persisted in the settings table.
const (
	SettingRefreshInterval      = "refresh_interval_seconds"
	SettingNotificationsEnabled = "notifications_enabled"
	SettingQuietHoursStart      = "quiet_hours_start"
	SettingQuietHoursEnd        = "quiet_hours_end"
	SettingRetentionDays        = "retention_days"
)

// KnownSettings lists the keys the CLI exposes, in display order.
var KnownSettings = []string{
	SettingRefreshInterval,
	SettingNotificationsEnabled,
	SettingQuietHoursStart,
	SettingQuietHoursEnd,
	SettingRetentionDays,
}
