package styles

import (
	"github.com/allbin/serialcomm/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	// Prompt styles
	PromptStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	HintStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)

	// Outcome styles
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true)

	// Table styles
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Mauve)

	TableBorderStyle = lipgloss.NewStyle().
				Foreground(colors.Surface1)
)

type StatusType int

const (
	StatusOK StatusType = iota
	StatusWarning
	StatusError
)

// Symbol returns the styled marker printed in front of status lines
func Symbol(status StatusType) string {
	switch status {
	case StatusOK:
		return SuccessStyle.Render("✓")
	case StatusWarning:
		return WarningStyle.Render("!")
	default:
		return ErrorStyle.Render("✗")
	}
}
