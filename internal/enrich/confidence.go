package enrich

import "github.com/regalytics/regalytics/internal/source"

// Confidence maps the row's validation state to a fixed score:
// validated 1.0, annotated-only 0.7, neither 0.5. Validation takes
// precedence over annotation.
func Confidence(row source.Row) float64 {
	if row.Bool("Validated?") {
		return 1.0
	}
	if row.Bool("Annotated?") {
		return 0.7
	}
	return 0.5
}
