package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

type tableSpec struct {
	title   string
	headers []string
	rows    [][]string
	aligns  []columnAlignment
}

func renderTable(spec tableSpec) string {
	columns := len(spec.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if spec.title != "" {
		tw.SetTitle(spec.title)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = spec.headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range spec.rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(spec.aligns) && spec.aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderPairs draws a two-column label/value table.
func renderPairs(title string, pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return renderTable(tableSpec{
		title:   title,
		headers: []string{"Item", "Value"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight},
	})
}
