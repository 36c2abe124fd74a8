package dataset

import "strings"

// Filters narrow a query to a slice of the dataset. All set filters
// are conjunctive; country and region match case-insensitively as
// substrings; dates compare against the ISO date column.
type Filters struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Country  string `json:"country,omitempty"`
	Region   string `json:"region,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Snapshot is the immutable, shared dataset served at query time.
// Concurrent queries need no coordination: each works on a private
// filtered slice.
type Snapshot struct {
	docs []Document
}

// NewSnapshot wraps a built dataset. The caller must not mutate docs
// afterwards.
func NewSnapshot(docs []Document) *Snapshot {
	return &Snapshot{docs: docs}
}

// Len returns the number of documents.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Documents returns the full dataset in id order.
func (s *Snapshot) Documents() []Document {
	return s.docs
}

// Filter returns the documents matching all set filters, preserving
// id order. Documents without a date are excluded by date filters.
func (s *Snapshot) Filter(f Filters) []Document {
	if f.IsZero() {
		out := make([]Document, len(s.docs))
		copy(out, s.docs)
		return out
	}

	var out []Document
	for _, d := range s.docs {
		if f.DateFrom != "" && (d.Date == "" || d.Date < f.DateFrom) {
			continue
		}
		if f.DateTo != "" && (d.Date == "" || d.Date > f.DateTo) {
			continue
		}
		if f.Country != "" && !containsFold(d.Country, f.Country) {
			continue
		}
		if f.Region != "" && !containsFold(d.Region, f.Region) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
