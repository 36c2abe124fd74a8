package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FulltextStore holds one plain-text file per document, named by its
// numeric id ("<id>.txt"). Files are UTF-8 with a Windows-1252
// fallback on decode failure.
type FulltextStore struct {
	dir string
}

// NewFulltextStore creates a store rooted at dir. The directory does
// not need to exist; Load simply misses and Save creates it.
func NewFulltextStore(dir string) *FulltextStore {
	return &FulltextStore{dir: dir}
}

// Dir returns the store's root directory.
func (s *FulltextStore) Dir() string {
	return s.dir
}

// Load returns the full text for a document id, or "" when no file
// exists. Read failures degrade to "" rather than erroring: content
// has summary fallbacks downstream.
func (s *FulltextStore) Load(id int64) string {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(decodeBytes(raw))
}

// Has reports whether a full-text file exists for the id.
func (s *FulltextStore) Has(id int64) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Save writes the full text for a document id.
func (s *FulltextStore) Save(id int64, text string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating fulltext directory: %w", err)
	}
	if err := os.WriteFile(s.path(id), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing fulltext for %d: %w", id, err)
	}
	return nil
}

func (s *FulltextStore) path(id int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.txt", id))
}
