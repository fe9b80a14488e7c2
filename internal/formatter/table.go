package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableOptions controls FormatTable.
type TableOptions struct {
	// MaxCellWidth truncates wider cells with an ellipsis; 0 disables.
	MaxCellWidth int
	Palette      *Palette
}

// FormatTable aligns rows under headers, separated by two spaces, with a
// dashed rule below the header. Widths are measured in terminal cells.
func FormatTable(headers []string, rows [][]string, opts TableOptions) string {
	cols := len(headers)
	widths := make([]int, cols)
	cell := func(s string) string {
		s = strings.ReplaceAll(s, "\n", " ")
		if opts.MaxCellWidth > 0 && runewidth.StringWidth(s) > opts.MaxCellWidth {
			return runewidth.Truncate(s, opts.MaxCellWidth, "…")
		}
		return s
	}
	clean := make([][]string, len(rows))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for r, row := range rows {
		clean[r] = make([]string, cols)
		for i := 0; i < cols && i < len(row); i++ {
			clean[r][i] = cell(row[i])
			widths[i] = max(widths[i], runewidth.StringWidth(clean[r][i]))
		}
	}

	var b strings.Builder
	writeRow := func(row []string, header bool) {
		for i, c := range row {
			padded := c
			if i < cols-1 {
				padded = runewidth.FillRight(c, widths[i])
			}
			if header && opts.Palette != nil {
				padded = opts.Palette.Key.Render(padded)
			}
			b.WriteString(padded)
			if i < cols-1 {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	writeRow(headers, true)
	rule := make([]string, cols)
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(rule, false)
	for _, row := range clean {
		writeRow(row, false)
	}
	return b.String()
}
