// Package export writes view tables to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/volumebot/console/internal/views"
	"github.com/xuri/excelize/v2"
)

// ErrNothingToExport is returned for a table without rows.
var ErrNothingToExport = errors.New("nothing to export")

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName derives the download name from the table title, e.g. Last_Balances.xlsx.
func FileName(table views.Table, format Format) string {
	return strings.ReplaceAll(table.Title, " ", "_") + "." + string(format)
}

// Write encodes table in the given format.
func Write(w io.Writer, table views.Table, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, table)
	case FormatXLSX:
		return WriteXLSX(w, table)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteCSV writes a header row followed by one record per table row.
func WriteCSV(w io.Writer, table views.Table) error {
	if table.Len() == 0 {
		return ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook named after the table title.
func WriteXLSX(w io.Writer, table views.Table) error {
	if table.Len() == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(table)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, table.Columns); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SheetName returns the worksheet name used for table.
func SheetName(table views.Table) string {
	name := table.Title
	if name == "" {
		name = "Sheet1"
	}
	// Excel limits sheet names to 31 characters
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// SaveToDir writes the export into dir under FileName and returns its path.
// The file is written to a temporary name first and renamed into place.
func SaveToDir(dir string, table views.Table, format Format) (string, error) {
	if table.Len() == 0 {
		return "", ErrNothingToExport
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, table, format); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	path := filepath.Join(dir, FileName(table, format))
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return path, nil
}
