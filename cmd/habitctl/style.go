// cmd/habitctl/style.go
package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#00CC96")
	muted  = lipgloss.Color("#6b7280")
	warn   = lipgloss.Color("#f59e0b")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().Foreground(muted)
	valueStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(warn)

	headerCell = lipgloss.NewStyle().
			Bold(true).
			PaddingRight(2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(muted)
	bodyCell = lipgloss.NewStyle().PaddingRight(2)
)

// renderTable lays rows out in left-aligned columns sized to their widest
// cell. The first row is the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for n, row := range rows {
		style := bodyCell
		if n == 0 {
			style = headerCell
		}
		cells := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderPairs renders label/value lines with the labels padded to a common
// width.
func renderPairs(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		width = max(width, lipgloss.Width(p[0]))
	}
	var b strings.Builder
	for _, p := range pairs {
		b.WriteString(labelStyle.Width(width + 2).Render(p[0]))
		b.WriteString(valueStyle.Render(p[1]))
		b.WriteByte('\n')
	}
	return b.String()
}
