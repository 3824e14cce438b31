package ui

import "github.com/charmbracelet/lipgloss"

// Basic ANSI colors only, so output reads the same on light and dark themes.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)

	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	// AdversaryStyle labels model replies.
	AdversaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)

	MemoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("4")).
			PaddingLeft(1)
)
