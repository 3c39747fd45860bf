// Package export writes entry sequences as dataset files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"zweigbib/internal/bibliography"
	"zweigbib/pkg/models"
)

// Format is an output file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// SheetName is the worksheet WriteXLSX fills.
const SheetName = "Bibliography"

// ParseFormat accepts "csv" and "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return XLSX
	}
	return CSV
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write writes entries to w in format f.
func Write(w io.Writer, f Format, entries []models.Entry) error {
	switch f {
	case CSV:
		return WriteCSV(w, entries)
	case XLSX:
		return WriteXLSX(w, entries)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes entries in the dataset dialect, so the output can be
// loaded back as a source.
func WriteCSV(w io.Writer, entries []models.Entry) error {
	text, err := bibliography.Format(entries)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// WriteXLSX writes entries as a single worksheet with a header row.
func WriteXLSX(w io.Writer, entries []models.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := bibliography.Header(entries)
	row := make([]interface{}, len(header))
	for i, col := range header {
		row[i] = col
	}
	if err := sw.SetRow("A1", row); err != nil {
		return err
	}
	for i, e := range entries {
		row := make([]interface{}, len(header))
		for j, col := range header {
			row[j] = bibliography.Value(e, col)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
