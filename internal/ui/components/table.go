package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/quonitor/internal/ui/styles"
)

func plain(strs ...string) string { return strings.Join(strs, " ") }

// Table is a bordered text table.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTable renders a bordered table with headers and rows. Column widths
// fit the widest visible cell.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	border := styles.TableBorderStyle.Render
	var b strings.Builder

	if t.Title != "" {
		b.WriteString(styles.SubTitleStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(border(left))
		for i, w := range widths {
			b.WriteString(border(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(border(mid))
			}
		}
		b.WriteString(border(right))
		b.WriteString("\n")
	}

	line := func(cells []string, style func(...string) string) {
		b.WriteString(border("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			b.WriteString(fmt.Sprintf(" %s%s ", style(cell), pad))
			b.WriteString(border("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, styles.TableHeaderStyle.Render)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, plain)
	}
	rule("╰", "┴", "╯")

	return b.String()
}
