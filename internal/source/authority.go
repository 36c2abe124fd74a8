package source

import (
	"fmt"
	"strings"
)

// Authority is one entry of the regulatory-body directory.
type Authority struct {
	Name            string
	Jurisdiction    string
	ParentAuthority string
}

// AuthorityDirectory maps authority names to their jurisdiction and
// parent body. Loaded once per build and read-only afterwards.
type AuthorityDirectory struct {
	byName  map[string]Authority
	byLower map[string]Authority
}

var requiredAuthorityColumns = []string{"Name", "Jurisdiction", "Parent authority"}

// LoadAuthorityDirectory reads the authority directory table.
// A missing required column is a fatal startup error.
func LoadAuthorityDirectory(path string) (*AuthorityDirectory, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return NewAuthorityDirectory(table)
}

// NewAuthorityDirectory builds a directory from a loaded table,
// validating the required columns.
func NewAuthorityDirectory(table *Table) (*AuthorityDirectory, error) {
	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}
	for _, col := range requiredAuthorityColumns {
		if !present[col] {
			return nil, fmt.Errorf("authority directory: missing column %q", col)
		}
	}

	dir := &AuthorityDirectory{
		byName:  make(map[string]Authority, len(table.Rows)),
		byLower: make(map[string]Authority, len(table.Rows)),
	}
	for _, row := range table.Rows {
		name := row.Get("Name")
		if name == "" {
			continue
		}
		a := Authority{
			Name:            name,
			Jurisdiction:    row.Get("Jurisdiction"),
			ParentAuthority: row.Get("Parent authority"),
		}
		if _, dup := dir.byName[name]; !dup {
			dir.byName[name] = a
		}
		lower := strings.ToLower(name)
		if _, dup := dir.byLower[lower]; !dup {
			dir.byLower[lower] = a
		}
	}
	return dir, nil
}

// Lookup finds an authority by exact name, then case-insensitively.
// A miss is a valid outcome, not an error.
func (d *AuthorityDirectory) Lookup(name string) (Authority, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Authority{}, false
	}
	if a, ok := d.byName[name]; ok {
		return a, true
	}
	if a, ok := d.byLower[strings.ToLower(name)]; ok {
		return a, true
	}
	return Authority{}, false
}

// Len returns the number of distinct authority names.
func (d *AuthorityDirectory) Len() int {
	return len(d.byName)
}
