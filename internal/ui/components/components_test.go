package components

import (
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/quonitor/internal/models"
)

func TestRenderLineChart(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	s := RenderLineChart(data, 20, 5, "Test")
	if s == "" {
		t.Error("RenderLineChart returned empty")
	}
	if !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should include caption")
	}

	if !strings.Contains(RenderLineChart(nil, 20, 5, ""), "No data") {
		t.Error("RenderLineChart(nil) should show placeholder")
	}
}

func TestRenderDualLineChart(t *testing.T) {
	points := []models.DailyUsagePoint{
		{TokensInput: 10, TokensOutput: 5},
		{TokensInput: 20, TokensOutput: 8},
	}
	in, out := models.SplitTokenSeries(points)
	s := RenderDualLineChart(in, out, 20, 5, "Tokens")
	if s == "" {
		t.Error("RenderDualLineChart returned empty")
	}
}

func TestRenderBarChart(t *testing.T) {
	values := []float64{10, 20}
	labels := []string{"A", "B"}
	s := RenderBarChart(values, labels, 20)
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderBarChart lines = %d, want 2", len(lines))
	}
	if strings.Count(lines[1], "█") <= strings.Count(lines[0], "█") {
		t.Error("larger value should get a longer bar")
	}
	if RenderBarChart(nil, nil, 20) != "" {
		t.Error("RenderBarChart(nil) should be empty")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{0, 1, 2, 3}, 10)
	if []rune(s)[0] != '▁' || []rune(s)[3] != '█' {
		t.Errorf("RenderSparkline = %q", s)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("RenderSparkline(nil) should be empty")
	}
}

func TestUsageBar(t *testing.T) {
	s := UsageBar(95.0, "work", 40)
	if !strings.Contains(s, "95.0%") {
		t.Errorf("UsageBar should contain percentage: %q", s)
	}
	if !strings.Contains(s, "work") {
		t.Errorf("UsageBar should contain label: %q", s)
	}
	if !strings.Contains(NoQuotaBar("x"), "no quota") {
		t.Error("NoQuotaBar should explain missing quota")
	}
}

func TestRenderGradientBar_Clamps(t *testing.T) {
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should be empty")
	}
	over := RenderGradientBar(150, 10)
	if strings.Count(over, "█") != 10 {
		t.Errorf("over 100%% should fill the bar, got %q", over)
	}
	under := RenderGradientBar(-5, 10)
	if strings.Count(under, "░") != 10 {
		t.Errorf("negative percent should be empty, got %q", under)
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 got %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 got %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{0, 0, 0} {
		t.Errorf("invalid hex got %v", got)
	}
}

func TestRenderTable(t *testing.T) {
	s := RenderTable(Table{
		Title:   "Accounts",
		Headers: []string{"ID", "Name"},
		Rows: [][]string{
			{"1", "work"},
			{"2", "a-much-longer-name"},
		},
	})

	for _, want := range []string{"Accounts", "ID", "work", "a-much-longer-name", "╭", "╯"} {
		if !strings.Contains(s, want) {
			t.Errorf("RenderTable missing %q:\n%s", want, s)
		}
	}

	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestFormatTokens(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{999, "999"},
		{1234, "1.2K"},
		{1234567, "1.2M"},
		{2_500_000_000, "2.5B"},
		{-1500, "-1.5K"},
	}
	for _, tt := range tests {
		if got := FormatTokens(tt.in); got != tt.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCostAndNumber(t *testing.T) {
	if got := FormatCost(4.5); got != "$4.50" {
		t.Errorf("FormatCost(4.5) = %q", got)
	}
	if got := FormatCost(1234.4); got != "$1,234" {
		t.Errorf("FormatCost(1234.4) = %q", got)
	}
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Errorf("FormatNumber = %q", got)
	}
	if got := FormatOptionalCost(nil); got != "-" {
		t.Errorf("FormatOptionalCost(nil) = %q", got)
	}
	if got := FormatOptionalTokens(models.Int64(1500)); got != "1.5K" {
		t.Errorf("FormatOptionalTokens = %q", got)
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		in   *time.Time
		want string
	}{
		{nil, "never"},
		{ago(10 * time.Second), "just now"},
		{ago(5 * time.Minute), "5m ago"},
		{ago(3 * time.Hour), "3h ago"},
		{ago(50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.in, now); got != tt.want {
			t.Errorf("FormatAge() = %q, want %q", got, tt.want)
		}
	}
}
