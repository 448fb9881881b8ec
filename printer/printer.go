// Package printer interleaves task output onto a single stream, such as a
// terminal, labeling each run of lines with its task ID.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/amonks/rerun/internal/color"
	"github.com/amonks/rerun/internal/mutex"
	"github.com/amonks/rerun/runner"
	"github.com/charmbracelet/lipgloss"
)

type Printer struct {
	mu          *mutex.Mutex
	stdout      io.Writer
	gutterWidth int
	lastKey     string
}

// New creates a Printer writing to stdout. Task IDs are right-aligned in a
// gutter gutterWidth wide; see [tasks.Library.LongestID].
func New(gutterWidth int, stdout io.Writer) *Printer {
	if stdout == nil {
		panic("nil stdout in printer")
	}
	return &Printer{
		mu:          mutex.New("printer"),
		gutterWidth: gutterWidth,
		stdout:      stdout,
	}
}

// Write prints each non-empty line of message. The key is printed in the
// gutter only when it differs from the previous line's key, with a blank
// line before it.
func (p *Printer) Write(key, message string) {
	defer p.mu.Lock("Write:" + key).Unlock()

	for _, l := range strings.Split(message, "\n") {
		if l == "" {
			continue
		}
		k := ""
		space := ""
		if key != p.lastKey {
			if p.lastKey != "" {
				space = "\n"
			}
			k, p.lastKey = key, key
		}
		keyStyle := keyStyle.Copy().Foreground(color.Hash(key))
		fmt.Fprintln(p.stdout, space+lipgloss.JoinHorizontal(
			lipgloss.Top,
			keyStyle.Width(p.gutterWidth).Render(k),
			l,
		))
	}
}

var _ runner.MultiWriter = &Printer{}

func (p *Printer) Writer(id string) io.Writer {
	return printerWriter{p, id}
}

var _ io.Writer = printerWriter{}

type printerWriter struct {
	printer *Printer
	id      string
}

func (w printerWriter) Write(bs []byte) (int, error) {
	w.printer.Write(w.id, string(bs))
	return len(bs), nil
}

var keyStyle = lipgloss.NewStyle().
	Height(1).
	Align(lipgloss.Right).
	Margin(0, 2)
