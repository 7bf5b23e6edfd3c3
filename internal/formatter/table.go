package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MaxCellWidth caps table cells so one long description cannot stretch
// every row.
const MaxCellWidth = 40

const colGap = 2

// RenderTable renders an aligned table with a separator under the
// header. Widths are measured on visible text so styled cells line up.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, cols)
		for i := 0; i < cols && i < len(row); i++ {
			cells[r][i] = truncate(strings.ReplaceAll(row[i], "\n", " "), MaxCellWidth)
		}
	}

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	writeRow := func(row []string, style func(string) string) {
		for i, c := range row {
			b.WriteString(style(c))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(c)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return StyleHeader.Render(s) })
	sep := make([]string, cols)
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	writeRow(sep, func(s string) string { return StyleDim.Render(s) })
	for _, row := range cells {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}
