package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/components"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change stored settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: models.KnownSettings,
	RunE:      runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting. Known keys:

  refresh_interval_seconds  polling interval, at least 10
  notifications_enabled     true or false
  quiet_hours_start         HH or HH:MM, local time
  quiet_hours_end           HH or HH:MM, local time
  retention_days            delete history older than this; 0 keeps everything`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: models.KnownSettings,
	RunE:      runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsList(_ *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		stored, err := m.Settings()
		if err != nil {
			return err
		}

		rows := make([][]string, 0, len(models.KnownSettings))
		for _, key := range models.KnownSettings {
			v, ok := stored[key]
			if !ok {
				v = styles.HelpStyle.Render(settingDefault(key))
			}
			rows = append(rows, []string{key, v})
		}

		fmt.Print(components.RenderTable(components.Table{
			Title:   "Settings",
			Headers: []string{"Key", "Value"},
			Rows:    rows,
		}))
		return nil
	})
}

// settingDefault describes the effective value of an unset key.
func settingDefault(key string) string {
	switch key {
	case models.SettingRefreshInterval:
		return strconv.Itoa(int(cfg.QuotaRefreshInterval.Seconds())) + " (default)"
	case models.SettingNotificationsEnabled:
		return "true (default)"
	case models.SettingRetentionDays:
		return strconv.Itoa(cfg.RetentionDays) + " (default)"
	default:
		return "(unset)"
	}
}

func runSettingsGet(_ *cobra.Command, args []string) error {
	return withManager(func(m *services.Manager) error {
		v, ok, err := m.GetSetting(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(settingDefault(args[0]))
			return nil
		}
		fmt.Println(v)
		return nil
	})
}

func runSettingsSet(_ *cobra.Command, args []string) error {
	return withManager(func(m *services.Manager) error {
		if err := m.SetSetting(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(styles.SuccessTextStyle.Render(fmt.Sprintf("%s = %s", args[0], args[1])))
		return nil
	})
}
