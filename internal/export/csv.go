package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// BOM is the UTF-8 byte order mark Excel on Windows expects.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions tunes delimited output.
type CSVOptions struct {
	// BOM prefixes the output with a UTF-8 byte order mark.
	BOM bool
}

// WriteCSV writes the header row then one record per row, comma separated,
// without an index column.
func WriteCSV(w io.Writer, t *table.Table, opt CSVOptions) error {
	if opt.BOM {
		if _, err := w.Write(BOM); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	// WriteAll flushes and reports the first write error.
	return cw.WriteAll(t.Records())
}

// ToDelimitedBytes serializes t as UTF-8 CSV. A nil table panics.
func ToDelimitedBytes(t *table.Table) []byte {
	if t == nil {
		panic("export: nil table")
	}
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteCSV(&buf, t, CSVOptions{})
	return buf.Bytes()
}
