package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"audiometer/internal/ui/theme"
)

const cellWidth = 6

// AudiogramGrid renders the two ear rows of a record under their frequency
// labels. Empty rows render as undetermined cells.
func AudiogramGrid(frequencies []int, left, right []string) string {
	var b strings.Builder
	b.WriteString(pad(theme.Header, "ear"))
	for _, f := range frequencies {
		b.WriteString(pad(theme.Header, strconv.Itoa(f)))
	}
	b.WriteString("\n")
	b.WriteString(row("left", len(frequencies), left))
	b.WriteString("\n")
	b.WriteString(row("right", len(frequencies), right))
	return b.String()
}

func row(label string, n int, cells []string) string {
	var b strings.Builder
	b.WriteString(pad(theme.Title, label))
	for i := 0; i < n; i++ {
		cell := "-"
		if i < len(cells) {
			cell = cells[i]
		}
		style := theme.Muted
		switch {
		case cell == "NH":
			style = theme.Bad
		case cell != "-":
			style = theme.Good
		}
		b.WriteString(pad(style, cell))
	}
	return b.String()
}

func pad(style lipgloss.Style, s string) string {
	return style.Width(cellWidth).Render(s)
}
