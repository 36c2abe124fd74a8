// Package enrich computes the derived signals of a canonical
// document: sentiment, risk, confidence, language and jurisdiction.
// Scorers never fail a row; anything that cannot be computed comes
// back as a degraded Outcome carrying its default value and a reason,
// so callers and tests can tell a degraded zero from a real one.
package enrich

import (
	"math"
	"unicode/utf8"
)

// Outcome wraps a scorer value with an optional degradation reason.
type Outcome[T any] struct {
	Value  T
	Reason string
}

// Degraded reports whether the value is a degraded default.
func (o Outcome[T]) Degraded() bool {
	return o.Reason != ""
}

func ok[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

func degraded[T any](v T, reason string) Outcome[T] {
	return Outcome[T]{Value: v, Reason: reason}
}

func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// sampleText caps s at max bytes without splitting a UTF-8 sequence,
// backing up to the nearest rune boundary.
func sampleText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
