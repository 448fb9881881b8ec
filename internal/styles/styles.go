// Package styles holds the lipgloss styles shared by the runner and the CLI.
package styles

import (
	"github.com/amonks/rerun/internal/color"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Log is for the runner's own messages, as opposed to task output.
	Log = lipgloss.NewStyle().
		Foreground(color.XXXLight).
		Italic(true)

	Failure = lipgloss.NewStyle().Foreground(color.Red)
	Success = lipgloss.NewStyle().Foreground(color.Green)

	Header = lipgloss.NewStyle().Bold(true)
	Italic = lipgloss.NewStyle().Italic(true).Foreground(color.XLight)
)
