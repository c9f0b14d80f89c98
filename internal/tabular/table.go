// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular turns spreadsheet sheets into markdown tables. Readers
// produce raw cell grids; Normalize fills merged regions and drops empty
// rows and columns; Markdown serializes a compact pipe table.
package tabular

import "strings"

// Merge is a rectangular merged region in grid coordinates (0-based,
// inclusive). Value is the content of its top-left cell.
type Merge struct {
	Top, Left, Bottom, Right int
	Value                    string
}

// Table is one sheet as read from a workbook.
type Table struct {
	// Name is the sheet name.
	Name string

	// Header holds declared column names. When empty, the first row of
	// the grid is the header.
	Header []string

	// Rows is the raw cell grid in source order. Rows may be ragged.
	Rows [][]string

	Merges []Merge
}

// Normalize returns a rectangular grid with merged regions filled, cells
// trimmed, and all-blank rows and columns removed. The first row of the
// result is the header. An empty result means the sheet has no content.
func Normalize(t *Table) [][]string {
	var grid [][]string
	if len(t.Header) > 0 {
		grid = append(grid, append([]string(nil), t.Header...))
	}
	offset := len(grid)
	for _, r := range t.Rows {
		grid = append(grid, append([]string(nil), r...))
	}

	for _, m := range t.Merges {
		grid = fillMerge(grid, m, offset)
	}

	width := 0
	for _, r := range grid {
		width = max(width, len(r))
	}

	rows := make([][]string, 0, len(grid))
	for _, r := range grid {
		row := make([]string, width)
		blank := true
		for i, cell := range r {
			row[i] = strings.TrimSpace(cell)
			if row[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}

	keep := make([]bool, width)
	kept := 0
	for c := 0; c < width; c++ {
		for _, r := range rows {
			if r[c] != "" {
				keep[c] = true
				kept++
				break
			}
		}
	}
	if kept == width {
		return rows
	}

	for i, r := range rows {
		packed := make([]string, 0, kept)
		for c, cell := range r {
			if keep[c] {
				packed = append(packed, cell)
			}
		}
		rows[i] = packed
	}
	return rows
}

// fillMerge copies the merge value into every cell of the region, growing
// the grid when the region reaches past it.
func fillMerge(grid [][]string, m Merge, offset int) [][]string {
	if m.Top < 0 || m.Left < 0 || m.Bottom < m.Top || m.Right < m.Left {
		return grid
	}
	top, bottom := m.Top+offset, m.Bottom+offset
	value := m.Value
	if value == "" && top < len(grid) && m.Left < len(grid[top]) {
		value = grid[top][m.Left]
	}
	for len(grid) <= bottom {
		grid = append(grid, nil)
	}
	for r := top; r <= bottom; r++ {
		for len(grid[r]) <= m.Right {
			grid[r] = append(grid[r], "")
		}
		for c := m.Left; c <= m.Right; c++ {
			grid[r][c] = value
		}
	}
	return grid
}

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
)

// Markdown serializes a normalized grid as a compact pipe table. The first
// row is the header. An empty grid yields an empty string.
func Markdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow(&b, rows[0])
	b.WriteByte('|')
	for range rows[0] {
		b.WriteString("---|")
	}
	b.WriteByte('\n')
	for _, r := range rows[1:] {
		writeRow(&b, r)
	}
	return b.String()
}

func writeRow(b *strings.Builder, row []string) {
	b.WriteByte('|')
	for _, cell := range row {
		b.WriteString(cellEscaper.Replace(cell))
		b.WriteByte('|')
	}
	b.WriteByte('\n')
}
