// Package spreadsheet wraps excelize behind the two operations the dashboard
// needs: dumping a tabular export and parsing an uploaded workbook. Parsing
// is header-driven, not positional, so column order in uploads is free.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used for exports and expected first in imports.
const DefaultSheet = "Sheet1"

var (
	// ErrNoHeader is returned when an uploaded workbook has no header row.
	ErrNoHeader = errors.New("spreadsheet: missing header row")
	// ErrEmptySheet is returned when the workbook contains no sheets.
	ErrEmptySheet = errors.New("spreadsheet: workbook has no sheets")
)

// Row maps lower-cased header labels to cell values for one data row.
type Row map[string]string

// Table is a parsed worksheet.
type Table struct {
	Headers []string
	Rows    []Row
}

// Write renders headers plus data rows into a new workbook.
func Write(headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("spreadsheet: header cell: %w", err)
		}
		if err := f.SetCellValue(DefaultSheet, cell, h); err != nil {
			return nil, fmt.Errorf("spreadsheet: write header: %w", err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("spreadsheet: data cell: %w", err)
			}
			if err := f.SetCellValue(DefaultSheet, cell, v); err != nil {
				return nil, fmt.Errorf("spreadsheet: write cell: %w", err)
			}
		}
	}

	return f, nil
}

// WriteTo renders the workbook and streams it to w.
func WriteTo(w io.Writer, headers []string, rows [][]string) error {
	f, err := Write(headers, rows)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Read parses the first worksheet of an uploaded workbook. The first row is
// the header row; every following row becomes a Row keyed by lower-cased
// header label. Trailing fully-empty rows are skipped.
func Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoHeader
	}

	headers := make([]string, 0, len(raw[0]))
	for _, h := range raw[0] {
		headers = append(headers, strings.ToLower(strings.TrimSpace(h)))
	}

	table := &Table{Headers: headers}
	for _, cells := range raw[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := ""
			if i < len(cells) {
				v = strings.TrimSpace(cells[i])
			}
			if v != "" {
				empty = false
			}
			row[h] = v
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// Get returns the value for header (case-insensitive) and whether the column
// exists at all.
func (r Row) Get(header string) (string, bool) {
	v, ok := r[strings.ToLower(strings.TrimSpace(header))]
	return v, ok
}
