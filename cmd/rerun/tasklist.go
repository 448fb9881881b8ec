package main

import (
	"fmt"
	"strings"

	"github.com/amonks/rerun/internal/color"
	"github.com/amonks/rerun/internal/styles"
	"github.com/amonks/rerun/tasks"
	"github.com/muesli/reflow/dedent"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

func tasklistText(lib *tasks.Library) string {
	b := &strings.Builder{}
	fmt.Fprintln(b, styles.Header.Render("TASKS"))
	for i, id := range lib.IDs() {
		if i != 0 {
			b.WriteString("\n")
		}
		meta := lib.Task(id).Metadata()

		fmt.Fprintf(b, "  %s\n", color.RenderHash(id))
		if meta.Description != "" {
			fmt.Fprintf(b, "    Description:\n")
			desc := strings.TrimRight(dedent.String(meta.Description), "\n")
			desc = wordwrap.String(desc, 70)
			b.WriteString(indent.String(styles.Italic.Render(desc), 6) + "\n")
		}
		if len(meta.Dependencies) != 0 {
			fmt.Fprintf(b, "    Dependencies:\n")
			for _, dep := range meta.Dependencies {
				fmt.Fprintf(b, "      - %s\n", dep)
			}
		}
		if len(meta.Runs) != 0 {
			fmt.Fprintf(b, "    Runs:\n")
			for _, r := range meta.Runs {
				fmt.Fprintf(b, "      - %s\n", r)
			}
		}
		if len(meta.Watch) != 0 {
			fmt.Fprintf(b, "    Watch:\n")
			for _, rule := range meta.Watch {
				targets := rule.Tasks
				if len(targets) == 0 {
					targets = []string{id}
				}
				fmt.Fprintf(b, "      - %s -> %s\n", strings.Join(rule.Patterns, ", "), strings.Join(targets, ", "))
			}
		}
	}
	return b.String()
}
