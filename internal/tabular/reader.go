// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedSheetFormat is returned by ReaderFor for extensions that no
// reader handles.
var ErrUnsupportedSheetFormat = errors.New("unsupported spreadsheet format")

// Reader loads every sheet of a workbook in source order.
type Reader interface {
	Read(path string) ([]Table, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(path string) ([]Table, error)

func (f ReaderFunc) Read(path string) ([]Table, error) { return f(path) }

// ReaderFor returns the reader for a file extension.
func ReaderFor(path string) (Reader, error) {
	return ReaderForExt(filepath.Ext(path))
}

// ReaderForExt returns the reader for an extension such as ".xlsx".
func ReaderForExt(ext string) (Reader, error) {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		return ReaderFunc(readXLSX), nil
	case ".xls":
		return ReaderFunc(readXLS), nil
	case ".csv":
		return ReaderFunc(readCSV), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedSheetFormat, ext)
}

// readXLSX reads an Office Open XML workbook. Cell values are the
// formatted strings excelize renders from each cell's number format.
func readXLSX(path string) ([]Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	var tables []Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}

		cells, err := f.GetMergeCells(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading merged cells of %q: %w", sheet, err)
		}
		merges := make([]Merge, 0, len(cells))
		for _, mc := range cells {
			m, err := mergeFromRange(mc.GetStartAxis(), mc.GetEndAxis())
			if err != nil {
				return nil, fmt.Errorf("sheet %q: %w", sheet, err)
			}
			m.Value = mc.GetCellValue()
			merges = append(merges, m)
		}

		tables = append(tables, Table{Name: sheet, Rows: rows, Merges: merges})
	}
	return tables, nil
}

func mergeFromRange(start, end string) (Merge, error) {
	c1, r1, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return Merge{}, fmt.Errorf("merge start %s: %w", start, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return Merge{}, fmt.Errorf("merge end %s: %w", end, err)
	}
	return Merge{Top: r1 - 1, Left: c1 - 1, Bottom: r2 - 1, Right: c2 - 1}, nil
}

// readXLS reads a legacy BIFF workbook. Merged regions come from
// xlsMerges.
func readXLS(path string) (tables []Table, err error) {
	// The decoder panics on some malformed records.
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("decoding workbook %s: %v", path, r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("opening workbook %s: no workbook stream", path)
	}

	merges, err := xlsMerges(path)
	if err != nil {
		return nil, fmt.Errorf("reading merged cells of %s: %w", path, err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			rows = append(rows, xlsRow(ws, r))
		}
		t := Table{Name: ws.Name, Rows: rows}
		if i < len(merges) {
			t.Merges = merges[i]
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// xlsRow returns the cells of row r, or nil when the sheet has no record
// for it.
func xlsRow(ws *xls.WorkSheet, r int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := ws.Row(r)
	if row == nil {
		return nil
	}
	cells = make([]string, row.LastCol())
	for c := row.FirstCol(); c < row.LastCol(); c++ {
		cells[c] = row.Col(c)
	}
	return cells
}

// readCSV reads a comma-separated file as a single table named after the
// file.
func readCSV(path string) ([]Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		rows = append(rows, rec)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []Table{{Name: name, Rows: rows}}, nil
}
