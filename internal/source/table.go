package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Row is one record of a source table, keyed by column header.
// Source tables are arbitrary-width and column presence is not
// guaranteed, so all access goes through get-or-default helpers.
type Row map[string]string

// Get returns the trimmed value for a column, or "" when absent.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Bool reports whether a column holds a truthy flag
// ("true", "1" or "yes", case-insensitive).
func (r Row) Bool(key string) bool {
	switch strings.ToLower(r.Get(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// Table is a loaded source table with its header order preserved.
type Table struct {
	Headers []string
	Rows    []Row
}

// ColumnsWithPrefix returns headers starting with the given prefix,
// case-insensitive, in table order.
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	lower := strings.ToLower(prefix)
	var cols []string
	for _, h := range t.Headers {
		if strings.HasPrefix(strings.ToLower(h), lower) {
			cols = append(cols, h)
		}
	}
	return cols
}

// ReadTable loads a CSV source table. The first record is the header.
// Files that are not valid UTF-8 are re-decoded as Windows-1252;
// a UTF-8 BOM is stripped. A missing file is a fatal build error.
func ReadTable(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := decodeBytes(raw)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing %s: empty file", path)
	}

	headers := records[0]
	table := &Table{Headers: headers}
	for _, record := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// decodeBytes returns the file content as a UTF-8 string, falling back
// to Windows-1252 when the bytes are not valid UTF-8.
func decodeBytes(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Windows-1252 maps every byte; unreachable in practice.
		return string(raw)
	}
	return string(decoded)
}
