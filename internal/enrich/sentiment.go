package enrich

import (
	"strings"

	"github.com/grassmudhorses/vader-go/lexicon"
	"github.com/grassmudhorses/vader-go/sentitext"
)

// maxSentimentSample caps how much content feeds the polarity lexicon.
const maxSentimentSample = 8000

// Polarity is a sentiment label with its compound score in [-1, 1].
type Polarity struct {
	Label string
	Score float64
}

// Sentiment scores content with the VADER lexicon. The label follows
// the compound score: >= 0.05 positive, <= -0.05 negative, else
// neutral. Empty content degrades to neutral/0.
func Sentiment(content string) Outcome[Polarity] {
	sample := sampleText(content, maxSentimentSample)
	if strings.TrimSpace(sample) == "" {
		return degraded(Polarity{Label: "neutral"}, "empty content")
	}

	parsed := sentitext.Parse(sample, lexicon.DefaultLexicon)
	score := sentitext.PolarityScore(parsed).Compound

	label := "neutral"
	switch {
	case score >= 0.05:
		label = "positive"
	case score <= -0.05:
		label = "negative"
	}
	return ok(Polarity{Label: label, Score: round(score, 4)})
}
