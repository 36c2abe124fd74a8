// Package normalize turns raw tracker rows into the canonical field
// values of the clean dataset: one title, one URL, one ISO date, one
// document type, plus sanitized topic, tags and content.
package normalize

import (
	"strings"
	"time"

	"github.com/regalytics/regalytics/internal/source"
)

const (
	MaxTitleLen   = 300
	MaxTopicLen   = 120
	MaxContentLen = 1500
	MaxTags       = 15
)

// Sanitize removes newlines, collapses whitespace and optionally
// truncates to maxLen characters (0 disables truncation).
func Sanitize(text string, maxLen int) string {
	t := strings.Join(strings.Fields(text), " ")
	if maxLen > 0 && len(t) > maxLen {
		t = strings.TrimRight(t[:maxLen], " ")
	}
	return t
}

// Title resolves the document title: official name preferred, casual
// name as fallback, sanitized and capped.
func Title(row source.Row) string {
	title := row.Get("Official name")
	if title == "" {
		title = row.Get("Casual name")
	}
	return Sanitize(title, MaxTitleLen)
}

// FirstValidURL returns the first http(s) token of a field that may
// hold several URLs separated by whitespace or semicolons.
func FirstValidURL(value string) string {
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	for _, part := range strings.Fields(value) {
		for _, token := range strings.Split(part, ";") {
			if token == "" {
				continue
			}
			if strings.HasPrefix(token, "http://") || strings.HasPrefix(token, "https://") {
				return token
			}
		}
	}
	return ""
}

// ChooseBestURL picks the canonical document URL. When the "Official
// pdf retrieved" flag is truthy the pdf source wins if it holds a
// valid URL; otherwise pdf source, plaintext source and generic link
// are scanned in that order. No valid URL yields "".
func ChooseBestURL(row source.Row) string {
	pdfSrc := row.Get("Official pdf source")
	plainSrc := row.Get("Official plaintext source")
	link := row.Get("Link to document")

	if row.Bool("Official pdf retrieved") {
		if u := FirstValidURL(pdfSrc); u != "" {
			return u
		}
	}
	for _, candidate := range []string{pdfSrc, plainSrc, link} {
		if u := FirstValidURL(candidate); u != "" {
			return u
		}
	}
	return ""
}

// dateLayouts is the fixed, ordered pattern list tried after ISO
// parsing: YYYY-MM-DD, MM/DD/YYYY, YYYY/MM/DD, DD-MM-YYYY, YYYY-MM, YYYY.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2006-01",
	"2006",
}

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date resolves the document date from "Most recent activity date",
// falling back to "Proposed date" only when the first field is empty.
// A present but unparsable value is terminal: the result is empty and
// the second field is not consulted. Returns the ISO date plus the
// derived year and month, all empty/zero together on failure.
func Date(row source.Row) (iso string, year, month int) {
	for _, col := range []string{"Most recent activity date", "Proposed date"} {
		val := row.Get(col)
		if val == "" {
			continue
		}
		dt, ok := parseDate(val)
		if !ok {
			return "", 0, 0
		}
		return dt.Format("2006-01-02"), dt.Year(), int(dt.Month())
	}
	return "", 0, 0
}

func parseDate(val string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if dt, err := time.Parse(layout, val); err == nil {
			return dt, true
		}
	}
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, val); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// docTypeRule is one ordered substring rule for type inference.
type docTypeRule struct {
	match   func(title, collections string) bool
	docType string
}

var docTypeRules = []docTypeRule{
	{func(t, _ string) bool { return strings.Contains(t, "executive order") }, "Executive Order"},
	{func(t, _ string) bool { return strings.Contains(t, "bill") || strings.Contains(t, "act") }, "Law/Act"},
	{func(t, c string) bool { return strings.Contains(t, "regulation") || strings.Contains(c, "regulation") }, "Regulation"},
	{func(t, _ string) bool { return strings.Contains(t, "resolution") }, "Resolution"},
	{func(t, _ string) bool { return strings.Contains(t, "policy") || strings.Contains(t, "policies") }, "Policy/Guidance"},
	{func(_, c string) bool { return strings.Contains(c, "federal laws") || strings.Contains(c, "ndaa") }, "Law/Act"},
	{func(_, c string) bool { return strings.Contains(c, "state and local") }, "State/Local Law or Policy"},
}

// DocType infers the document type from the lowercased title and
// collections string. Rules are evaluated in order, first match wins,
// default "Other".
func DocType(title, collections string) string {
	t := strings.ToLower(title)
	c := strings.ToLower(collections)
	for _, rule := range docTypeRules {
		if rule.match(t, c) {
			return rule.docType
		}
	}
	return "Other"
}

// Topic extracts a compact topic: the first semicolon-delimited
// collection, else the first tag, sanitized and capped.
func Topic(tags, collections string) string {
	topic := ""
	if strings.TrimSpace(collections) != "" {
		topic = strings.TrimSpace(strings.SplitN(collections, ";", 2)[0])
	} else if strings.TrimSpace(tags) != "" {
		topic = strings.TrimSpace(strings.SplitN(tags, ";", 2)[0])
	}
	return Sanitize(topic, MaxTopicLen)
}

// Tags splits on ';' and '|', trims, deduplicates preserving first
// occurrence, caps at MaxTags and joins with ", ".
func Tags(tags string) string {
	if strings.TrimSpace(tags) == "" {
		return ""
	}
	seen := make(map[string]struct{})
	var norm []string
	for _, part := range strings.Split(strings.ReplaceAll(tags, "|", ";"), ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		norm = append(norm, part)
		if len(norm) == MaxTags {
			break
		}
	}
	return strings.Join(norm, ", ")
}

// Content resolves the textual content: the full-text file for the id
// when present, else the long summary, else the short summary, else
// empty; sanitized and capped.
func Content(row source.Row, id int64, fulltext *source.FulltextStore) string {
	content := ""
	if fulltext != nil {
		content = fulltext.Load(id)
	}
	if content == "" {
		content = row.Get("Long summary")
	}
	if content == "" {
		content = row.Get("Short summary")
	}
	return Sanitize(content, MaxContentLen)
}
