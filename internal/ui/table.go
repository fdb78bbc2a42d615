package ui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

var (
	headerCellStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	bodyCellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// RenderTable renders a borderless table with column widths derived
// from the content. Headers are uppercased to match the rest of the
// command output. An empty row set renders nothing.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}

	t := table.New().
		Headers(upper...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return bodyCellStyle
		})

	return t.String() + "\n"
}
