package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/components"
	"github.com/j-veylop/quonitor/internal/ui/styles"
	"github.com/j-veylop/quonitor/internal/version"
)

var flagCleanupDays int

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stored history older than a number of days",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported providers",
	Args:  cobra.NoArgs,
	RunE:  runProviders,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// No configuration needed
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error { return nil },
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.Info())
	},
}

func init() {
	cleanupCmd.Flags().IntVarP(&flagCleanupDays, "days", "d", 0, "Keep this many days (defaults to retention_days)")
	rootCmd.AddCommand(cleanupCmd, providersCmd, versionCmd)
}

func runCleanup(_ *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		days := flagCleanupDays
		if days == 0 {
			days = cfg.RetentionDays
			if v, ok, err := m.GetSetting(models.SettingRetentionDays); err == nil && ok {
				if n, err := strconv.Atoi(v); err == nil {
					days = n
				}
			}
		}
		if days <= 0 {
			return fmt.Errorf("no retention configured; pass --days or set retention_days")
		}

		removed, err := m.Cleanup(days)
		if err != nil {
			return err
		}
		fmt.Println(styles.SuccessTextStyle.Render(
			fmt.Sprintf("Removed %s rows older than %d days", components.FormatNumber(removed), days)))
		return nil
	})
}

func runProviders(_ *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		infos := m.Providers()
		rows := make([][]string, 0, len(infos))
		for _, p := range infos {
			auth := "api key"
			if p.SupportsOAuth {
				auth = "oauth"
			}
			rows = append(rows, []string{styles.GetProviderStyle(p.ID).Render(p.ID), p.Name, auth})
		}

		fmt.Print(components.RenderTable(components.Table{
			Headers: []string{"ID", "Name", "Auth"},
			Rows:    rows,
		}))
		return nil
	})
}
