package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// setColorProfile configures lipgloss for the --color flag. In auto mode,
// output is colored only when it goes to a terminal, and NO_COLOR and
// CLICOLOR_FORCE are respected.
func setColorProfile(mode string, out io.Writer) error {
	switch mode {
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "always":
		profile := termenv.NewOutput(out, termenv.WithUnsafe()).EnvColorProfile()
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
		lipgloss.SetColorProfile(profile)
	case "auto":
		f, ok := out.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			lipgloss.SetColorProfile(termenv.Ascii)
			return nil
		}
		output := termenv.NewOutput(f)
		lipgloss.SetColorProfile(output.EnvColorProfile())
		lipgloss.SetHasDarkBackground(output.HasDarkBackground())
	default:
		return fmt.Errorf("invalid value '%s' for --color; legal values are 'auto', 'always', and 'never'", mode)
	}
	return nil
}
