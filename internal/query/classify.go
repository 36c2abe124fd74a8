// Package query classifies free-text questions about the dataset and
// routes them to the matching aggregation or retrieval path.
package query

import "strings"

// Mode is the handling mode assigned to a question.
type Mode string

const (
	// ModeAnalytical routes to a statistical aggregation handler.
	ModeAnalytical Mode = "analytical"
	// ModeDocument routes to document retrieval.
	ModeDocument Mode = "document"
	// ModeHybrid runs both paths and combines the results. It covers
	// both "no signal" and "both signals" questions; the two are not
	// distinguished.
	ModeHybrid Mode = "hybrid"
)

// analyticalKeywords signal structured-data questions: counts,
// averages, comparisons, trends, rankings.
var analyticalKeywords = []string{
	"how many", "count", "average", "mean", "total", "sum", "compare",
	"trend", "over time", "statistics", "percentage", "distribution",
	"top", "most", "least", "highest", "lowest", "growth", "change",
}

// documentKeywords signal document-content questions: summaries,
// explanations, retrieval of specific records.
var documentKeywords = []string{
	"content", "summary", "summarize", "what does", "explain", "describe",
	"tell me about", "show me", "find documents", "retrieve", "read",
	"details", "information about", "specific",
}

// Classify assigns a handling mode by counting case-insensitive
// keyword hits per vocabulary. The higher count wins; equal counts,
// including zero/zero, classify as hybrid.
func Classify(question string) Mode {
	analytical, document := Scores(question)
	switch {
	case analytical > document:
		return ModeAnalytical
	case document > analytical:
		return ModeDocument
	default:
		return ModeHybrid
	}
}

// Scores returns the raw keyword-hit counts for both vocabularies.
func Scores(question string) (analytical, document int) {
	lower := strings.ToLower(question)
	for _, kw := range analyticalKeywords {
		if strings.Contains(lower, kw) {
			analytical++
		}
	}
	for _, kw := range documentKeywords {
		if strings.Contains(lower, kw) {
			document++
		}
	}
	return analytical, document
}

func containsAny(lower string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
