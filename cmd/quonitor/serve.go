package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/config"
	"github.com/j-veylop/quonitor/internal/logger"
	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll every account on a schedule and raise quota alerts",
	Long: `Run the scheduler in the foreground. Usage is fetched immediately and then
every refresh interval; desktop notifications fire at 75%, 90% and 95% usage.
Edits to the loaded .env file are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withManager(func(m *services.Manager) error {
		events := m.Subscribe()

		if cfg.EnvFile != "" {
			w, err := config.Watch(cfg.EnvFile, func(next *config.Config) {
				applyConfig(m, next)
			})
			if err != nil {
				logger.Warn("config watcher disabled", "path", cfg.EnvFile, "error", err)
			} else {
				defer func() {
					if err := w.Close(); err != nil {
						logger.Error("failed to close config watcher", "error", err)
					}
				}()
			}
		}

		m.Start(ctx)
		fmt.Println(styles.TitleStyle.Render("quonitor") + " " +
			styles.HelpStyle.Render(fmt.Sprintf("polling every %s, Ctrl+C to stop", m.Interval())))

		names := accountNames(m)
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(os.Stderr, styles.HelpStyle.Render("shutting down"))
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				names = printEvent(e, names)
			}
		}
	})
}

// applyConfig adopts a reloaded QUOTA_REFRESH_INTERVAL unless the interval is
// pinned by the stored setting.
func applyConfig(m *services.Manager, next *config.Config) {
	if _, ok, err := m.GetSetting(models.SettingRefreshInterval); err != nil || ok {
		return
	}
	if next.QuotaRefreshInterval != m.Interval() {
		m.SetInterval(next.QuotaRefreshInterval)
	}
}

func accountNames(m *services.Manager) map[string]string {
	names := make(map[string]string)
	accs, err := m.ListAccounts()
	if err != nil {
		logger.Warn("failed to list accounts", "error", err)
		return names
	}
	for _, acc := range accs {
		names[acc.ID] = acc.Name
	}
	return names
}

func printEvent(e services.ServiceEvent, names map[string]string) map[string]string {
	stamp := styles.HelpStyle.Render(time.Now().Format("15:04:05"))

	switch ev := e.(type) {
	case services.QuotaUpdatedEvent:
		name := names[ev.Quota.AccountID]
		if name == "" {
			name = ev.Quota.AccountID
		}
		fmt.Println(stamp + " " + renderQuotaLine(name, &ev.Quota))
	case services.AccountsChangedEvent:
		names = make(map[string]string, len(ev.Accounts))
		for _, acc := range ev.Accounts {
			names[acc.ID] = acc.Name
		}
	case services.ErrorEvent:
		fmt.Println(stamp + " " + styles.ErrorTextStyle.Render(ev.Service+": "+ev.Error.Error()))
	}
	return names
}

