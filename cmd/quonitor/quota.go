package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/components"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

const barWidth = 60

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the latest known usage for every account",
	Args:  cobra.NoArgs,
	RunE:  runQuota,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh [id]",
	Short: "Fetch usage now for one account or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRefresh,
}

func init() {
	rootCmd.AddCommand(quotaCmd, refreshCmd)
}

func runQuota(_ *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		quotas, err := m.LatestQuotas()
		if err != nil {
			return err
		}
		return printQuotas(m, quotas)
	})
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return withManager(func(m *services.Manager) error {
		if len(args) == 1 {
			q, err := m.RefreshAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printQuotas(m, []models.QuotaData{*q})
		}

		fresh := m.RefreshAll(cmd.Context())
		quotas := make([]models.QuotaData, 0, len(fresh))
		for _, q := range fresh {
			quotas = append(quotas, *q)
		}
		if accs, err := m.ListAccounts(); err == nil && len(accs) > len(quotas) {
			fmt.Println(styles.WarningTextStyle.Render(
				fmt.Sprintf("%d of %d accounts failed to refresh; run with -v for details", len(accs)-len(quotas), len(accs))))
		}
		return printQuotas(m, quotas)
	})
}

func printQuotas(m *services.Manager, quotas []models.QuotaData) error {
	if len(quotas) == 0 {
		fmt.Println(styles.HelpStyle.Render("No usage recorded yet."))
		return nil
	}

	accs, err := m.ListAccounts()
	if err != nil {
		return err
	}
	byID := make(map[string]models.Account, len(accs))
	for _, acc := range accs {
		byID[acc.ID] = acc
	}

	fmt.Println(styles.TitleStyle.Render("Quota"))
	rows := make([][]string, 0, len(quotas))
	for i := range quotas {
		q := &quotas[i]
		acc := byID[q.AccountID]
		name := acc.Name
		if name == "" {
			name = q.AccountID
		}

		fmt.Println(renderQuotaLine(name, q))

		rows = append(rows, []string{
			name,
			styles.GetProviderStyle(acc.Provider).Render(acc.Provider),
			components.FormatOptionalTokens(q.TokensInput),
			components.FormatOptionalTokens(q.TokensOutput),
			components.FormatOptionalCost(q.CostUSD),
			q.Timestamp.Local().Format("2006-01-02 15:04"),
			q.Metadata,
		})
	}

	fmt.Println()
	fmt.Print(components.RenderTable(components.Table{
		Headers: []string{"Account", "Provider", "Input", "Output", "Cost", "Fetched", "Note"},
		Rows:    rows,
	}))
	return nil
}

func renderQuotaLine(name string, q *models.QuotaData) string {
	label := fmt.Sprintf("%-16s", truncate(name, 16))
	if pct, ok := q.UsagePercent(); ok {
		return components.UsageBar(pct, label, barWidth)
	}
	return components.NoQuotaBar(label)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-1]) + "…"
}
