package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/components"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

var (
	flagDays   int
	flagModels bool
	flagChart  bool
)

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show stored usage history for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagDays, "days", "d", 7, "Time window in days")
	historyCmd.Flags().BoolVarP(&flagModels, "models", "m", false, "Break usage down by model")
	historyCmd.Flags().BoolVarP(&flagChart, "chart", "c", false, "Plot daily cost and tokens")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, args []string) error {
	id := args[0]

	return withManager(func(m *services.Manager) error {
		switch {
		case flagChart:
			return printTrend(m, id)
		case flagModels:
			return printModelTotals(m, id)
		default:
			return printSnapshots(m, id)
		}
	})
}

func printSnapshots(m *services.Manager, id string) error {
	snaps, err := m.SnapshotHistory(id, flagDays)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println(styles.HelpStyle.Render(fmt.Sprintf("No snapshots in the last %d days.", flagDays)))
		return nil
	}

	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		usage := "-"
		if s.QuotaLimit != nil && s.QuotaRemaining != nil && *s.QuotaLimit > 0 {
			pct := float64(*s.QuotaLimit-*s.QuotaRemaining) / float64(*s.QuotaLimit) * 100
			usage = styles.GetUsageStyle(pct).Render(fmt.Sprintf("%.1f%%", pct))
		}
		rows = append(rows, []string{
			s.Timestamp.Local().Format("2006-01-02 15:04"),
			components.FormatOptionalTokens(s.TokensInput),
			components.FormatOptionalTokens(s.TokensOutput),
			components.FormatOptionalCost(s.CostUSD),
			usage,
		})
	}

	fmt.Print(components.RenderTable(components.Table{
		Title:   fmt.Sprintf("Snapshots, last %d days", flagDays),
		Headers: []string{"Time", "Input", "Output", "Cost", "Used"},
		Rows:    rows,
	}))
	return nil
}

func printModelTotals(m *services.Manager, id string) error {
	totals, err := m.ModelTotals(id, flagDays)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		fmt.Println(styles.HelpStyle.Render(fmt.Sprintf("No model usage in the last %d days.", flagDays)))
		return nil
	}

	rows := make([][]string, 0, len(totals))
	costs := make([]float64, 0, len(totals))
	labels := make([]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{
			t.ModelName,
			components.FormatNumber(t.TotalRequests),
			components.FormatTokens(t.TotalInputTokens),
			components.FormatTokens(t.TotalOutputTokens),
			components.FormatCost(t.TotalCostUSD),
		})
		costs = append(costs, t.TotalCostUSD)
		labels = append(labels, truncate(t.ModelName, 24))
	}

	fmt.Print(components.RenderTable(components.Table{
		Title:   fmt.Sprintf("Models, last %d days", flagDays),
		Headers: []string{"Model", "Requests", "Input", "Output", "Cost"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Println(styles.SubTitleStyle.Render("Cost by model (USD)"))
	fmt.Println(components.RenderBarChart(costs, labels, barWidth))
	return nil
}

func printTrend(m *services.Manager, id string) error {
	points, err := m.DailyTrend(id, flagDays)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println(styles.HelpStyle.Render(fmt.Sprintf("No usage in the last %d days.", flagDays)))
		return nil
	}

	first := points[0].Date.Format("Jan 02")
	last := points[len(points)-1].Date.Format("Jan 02")

	fmt.Println(styles.SubTitleStyle.Render("Daily cost"))
	fmt.Println(components.RenderLineChart(models.CostSeries(points), barWidth, 8, fmt.Sprintf("USD per day, %s to %s", first, last)))
	fmt.Println()

	in, out := models.SplitTokenSeries(points)
	fmt.Println(styles.SubTitleStyle.Render("Daily tokens"))
	fmt.Println(components.RenderDualLineChart(in, out, barWidth, 8, "input (blue) / output (red)"))
	fmt.Println()
	fmt.Println(styles.HelpStyle.Render("Tokens per day: " + components.RenderSparkline(models.TokenSeries(points), len(points))))
	return nil
}
