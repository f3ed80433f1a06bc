// Package export serializes extracted tables for download.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// ErrEmptyTable is returned when there is nothing to export.
var ErrEmptyTable = errors.New("export: table has no columns")

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates an export format name; "" means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv, xlsx or pdf)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// FileName is the download name for the table attached to message index.
func FileName(index int, f Format) string {
	return fmt.Sprintf("erpgenie_data_%d.%s", index, f)
}

// Write serializes t to w in format f.
func Write(w io.Writer, t *table.Table, f Format) error {
	if t == nil || len(t.Columns) == 0 {
		return ErrEmptyTable
	}
	switch f {
	case FormatCSV, "":
		return WriteCSV(w, t, CSVOptions{})
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatPDF:
		return WritePDF(w, t, "ERPGenie data export")
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
