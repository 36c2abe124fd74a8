package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// ExportCSV writes the dataset to a CSV file with the fixed column
// order, one row per document, in the slice's (id) order.
func ExportCSV(path string, docs []Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, d := range docs {
		if err := w.Write(d.CSVRecord()); err != nil {
			return fmt.Errorf("writing document %d: %w", d.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
