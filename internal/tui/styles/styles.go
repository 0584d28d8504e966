package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Adaptive colors keep the dashboard readable on light terminals.
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#5A3FD1", Dark: "#7D56F4"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#028A57", Dark: "#04B575"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#D7265E", Dark: "#FF5F87"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#C07F00", Dark: "#FFAF00"}
	ColorSubtle    = lipgloss.Color("#767676")
	ColorBorder    = lipgloss.Color("#3C3C3C")
	ColorBanner    = lipgloss.AdaptiveColor{Light: "#028A57", Dark: "#04B575"}
)

var (
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)

	Value  = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	Active = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	Error = lipgloss.NewStyle().Foreground(ColorError)
	Warn  = lipgloss.NewStyle().Foreground(ColorWarning)

	// Box is the card around each metric group.
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Margin(0, 1)
)
