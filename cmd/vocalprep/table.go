package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn is a titled column of a report table.
type tableColumn struct {
	title string
	align text.Align
}

func col(title string) tableColumn {
	return tableColumn{title: title, align: text.AlignLeft}
}

// numCol right-aligns counts and durations.
func numCol(title string) tableColumn {
	return tableColumn{title: title, align: text.AlignRight}
}

// renderTable draws rows in a light box. Short rows are padded with empty
// cells; an empty table renders as "(none)".
func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	if len(rows) == 0 {
		return "(none)"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(columns))
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		header = append(header, c.title)
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: c.align, AlignHeader: text.AlignLeft})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}
