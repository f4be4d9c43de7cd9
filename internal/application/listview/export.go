package listview

import (
	"encoding/csv"
	"io"

	"github.com/xuri/excelize/v2"
)

// Export content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteCSV writes a header row followed by one row per item, with columns
// in display order. Quoting follows RFC 4180: fields holding a comma, quote
// or line break are quoted and inner quotes doubled.
func WriteCSV[T any](w io.Writer, t Table[T], items []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.HeaderLabels()); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, it := range items {
		for i, c := range t.Columns {
			record[i] = c.Value(it)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same rows as WriteCSV into a single-sheet workbook
// with a bold header row.
func WriteXLSX[T any](w io.Writer, t Table[T], items []T, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Export"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	f.SetActiveSheet(index)

	for c, h := range t.HeaderLabels() {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, it := range items {
		for c, col := range t.Columns {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, col.Value(it)); err != nil {
				return err
			}
		}
	}

	if n := len(t.Columns); n > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(n)
		_ = f.SetColWidth(sheet, "A", lastCol, 18)
	}

	_, err = f.WriteTo(w)
	return err
}
