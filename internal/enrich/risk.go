package enrich

import "github.com/regalytics/regalytics/internal/source"

// Risk is a risk level with its flag-density score in [0, 1].
type Risk struct {
	Level string
	Score float64
}

// RiskScore counts truthy flags across the "risk factors" and "harms"
// columns and scores the density. Level boundaries are inclusive:
// score < 0.34 low, < 0.67 medium, else high. A table without any
// such columns degrades to low/0.
func RiskScore(row source.Row, riskCols, harmCols []string) Outcome[Risk] {
	total := len(riskCols) + len(harmCols)
	if total == 0 {
		return degraded(Risk{Level: "low"}, "no risk or harm columns")
	}

	positives := 0
	for _, col := range riskCols {
		if row.Bool(col) {
			positives++
		}
	}
	for _, col := range harmCols {
		if row.Bool(col) {
			positives++
		}
	}

	score := float64(positives) / float64(total)
	level := "high"
	switch {
	case score < 0.34:
		level = "low"
	case score < 0.67:
		level = "medium"
	}
	return ok(Risk{Level: level, Score: round(score, 4)})
}
