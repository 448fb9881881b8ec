package color

import "github.com/charmbracelet/lipgloss"

// https://ethanschoonover.com/solarized/#the-values
var (
	Red   = lipgloss.Color("#DC322F")
	Green = lipgloss.Color("#859900")

	XXXLight = lipgloss.AdaptiveColor{Dark: "#FDF6E3", Light: "#002B36"} // base3
	XLight   = lipgloss.AdaptiveColor{Dark: "#93A1A1", Light: "#586E75"} // base1
)
