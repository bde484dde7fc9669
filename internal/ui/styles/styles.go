// Package styles defines the visual styling for command output.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Provider colors
	OpenAI    = lipgloss.Color("36")  // Teal
	Anthropic = lipgloss.Color("208") // Orange
	Google    = lipgloss.Color("39")  // Blue
	GitHub    = lipgloss.Color("252") // Light gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Caution = lipgloss.Color("208") // Orange
	Info    = lipgloss.Color("39")  // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 1)

// HelpStyle is the base style for secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// LabelStyle styles field labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle styles field values.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// TableBorderStyle styles table rules.
var TableBorderStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// Usage styles follow the alert tiers.
var (
	UsageOKStyle       = lipgloss.NewStyle().Foreground(Success)
	UsageWarningStyle  = lipgloss.NewStyle().Foreground(Warning)
	UsageCautionStyle  = lipgloss.NewStyle().Foreground(Caution).Bold(true)
	UsageCriticalStyle = lipgloss.NewStyle().Foreground(Error).Bold(true)
	UsageUnknownStyle  = lipgloss.NewStyle().Foreground(Subtle)
)

// GetUsageStyle returns the style for a consumed-quota percentage.
func GetUsageStyle(percent float64) lipgloss.Style {
	switch {
	case percent >= 95:
		return UsageCriticalStyle
	case percent >= 90:
		return UsageCautionStyle
	case percent >= 75:
		return UsageWarningStyle
	default:
		return UsageOKStyle
	}
}

// GetProviderStyle returns the brand style for a provider id.
func GetProviderStyle(providerID string) lipgloss.Style {
	color := Subtle
	switch providerID {
	case "openai":
		color = OpenAI
	case "anthropic":
		color = Anthropic
	case "google":
		color = Google
	case "github":
		color = GitHub
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
