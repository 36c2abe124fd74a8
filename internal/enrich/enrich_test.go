package enrich

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/regalytics/regalytics/internal/source"
)

func TestSentimentEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		out := Sentiment(content)
		if !out.Degraded() {
			t.Errorf("expected degraded outcome for %q", content)
		}
		if out.Value.Label != "neutral" || out.Value.Score != 0.0 {
			t.Errorf("expected neutral/0, got %s/%v", out.Value.Label, out.Value.Score)
		}
	}
}

func TestSentimentLabels(t *testing.T) {
	positive := Sentiment("This is a wonderful, excellent framework with great benefits.")
	if positive.Degraded() {
		t.Fatal("unexpected degradation")
	}
	if positive.Value.Label != "positive" || positive.Value.Score < 0.05 {
		t.Errorf("expected positive label, got %s (%v)", positive.Value.Label, positive.Value.Score)
	}

	negative := Sentiment("This is a terrible, harmful disaster causing awful damage.")
	if negative.Value.Label != "negative" || negative.Value.Score > -0.05 {
		t.Errorf("expected negative label, got %s (%v)", negative.Value.Label, negative.Value.Score)
	}

	neutral := Sentiment("The document describes section 4 of the statute.")
	if neutral.Value.Label != "neutral" {
		t.Errorf("expected neutral label, got %s (%v)", neutral.Value.Label, neutral.Value.Score)
	}
}

func TestSentimentScoreRange(t *testing.T) {
	samples := []string{
		"Superb excellent wonderful amazing great fantastic.",
		"Horrible dreadful catastrophic terrible awful harm.",
		"Section 12 paragraph 3 subsection b.",
	}
	for _, s := range samples {
		out := Sentiment(s)
		if out.Value.Score < -1.0 || out.Value.Score > 1.0 {
			t.Errorf("score out of range for %q: %v", s, out.Value.Score)
		}
	}
}

func TestRiskScoreNoColumns(t *testing.T) {
	out := RiskScore(source.Row{}, nil, nil)
	if !out.Degraded() {
		t.Error("expected degraded outcome with no risk columns")
	}
	if out.Value.Level != "low" || out.Value.Score != 0.0 {
		t.Errorf("expected low/0, got %s/%v", out.Value.Level, out.Value.Score)
	}
}

func TestRiskScoreDensity(t *testing.T) {
	riskCols := []string{"Risk factors: bias", "Risk factors: privacy"}
	harmCols := []string{"Harms: physical"}

	tests := []struct {
		row       source.Row
		wantLevel string
		wantScore float64
	}{
		{source.Row{}, "low", 0.0},
		{source.Row{"Risk factors: bias": "True"}, "low", 0.3333},
		{source.Row{"Risk factors: bias": "yes", "Harms: physical": "1"}, "medium", 0.6667},
		{source.Row{"Risk factors: bias": "true", "Risk factors: privacy": "true", "Harms: physical": "true"}, "high", 1.0},
	}
	for _, tt := range tests {
		out := RiskScore(tt.row, riskCols, harmCols)
		if out.Degraded() {
			t.Errorf("unexpected degradation for %v", tt.row)
		}
		if out.Value.Level != tt.wantLevel || out.Value.Score != tt.wantScore {
			t.Errorf("RiskScore(%v) = %s/%v, want %s/%v",
				tt.row, out.Value.Level, out.Value.Score, tt.wantLevel, tt.wantScore)
		}
	}
}

func TestRiskLevelBoundariesInclusive(t *testing.T) {
	// 34/100 columns positive is exactly 0.34: medium, not low.
	var cols []string
	row := source.Row{}
	for i := 0; i < 100; i++ {
		col := "Risk factors: " + string(rune('a'+i%26)) + string(rune('a'+i/26))
		cols = append(cols, col)
		if i < 34 {
			row[col] = "true"
		}
	}
	if out := RiskScore(row, cols, nil); out.Value.Level != "medium" {
		t.Errorf("expected 0.34 to be medium, got %s (%v)", out.Value.Level, out.Value.Score)
	}

	// 67/100 is exactly 0.67: high, not medium.
	for i, col := range cols {
		if i < 67 {
			row[col] = "true"
		} else {
			delete(row, col)
		}
	}
	if out := RiskScore(row, cols, nil); out.Value.Level != "high" {
		t.Errorf("expected 0.67 to be high, got %s (%v)", out.Value.Level, out.Value.Score)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		row  source.Row
		want float64
	}{
		{source.Row{"Validated?": "true", "Annotated?": "true"}, 1.0},
		{source.Row{"Validated?": "true"}, 1.0},
		{source.Row{"Annotated?": "true"}, 0.7},
		{source.Row{"Annotated?": "false"}, 0.5},
		{source.Row{}, 0.5},
	}
	for _, tt := range tests {
		if got := Confidence(tt.row); got != tt.want {
			t.Errorf("Confidence(%v) = %v, want %v", tt.row, got, tt.want)
		}
	}
}

func TestResolveJurisdiction(t *testing.T) {
	table := &source.Table{
		Headers: []string{"Name", "Jurisdiction", "Parent authority"},
		Rows: []source.Row{
			{"Name": "FTC", "Jurisdiction": "United States", "Parent authority": ""},
			{"Name": "AI Office", "Jurisdiction": "European Union", "Parent authority": "European Commission"},
		},
	}
	dir, err := source.NewAuthorityDirectory(table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No parent: region falls back to the country.
	j := ResolveJurisdiction("FTC", dir)
	if j.Country != "United States" || j.Region != "United States" {
		t.Errorf("unexpected jurisdiction: %+v", j)
	}

	j = ResolveJurisdiction("AI Office", dir)
	if j.Country != "European Union" || j.Region != "European Commission" {
		t.Errorf("unexpected jurisdiction: %+v", j)
	}

	if j := ResolveJurisdiction("Unknown Body", dir); j.Country != "" || j.Region != "" {
		t.Errorf("expected empty jurisdiction for miss, got %+v", j)
	}
	if j := ResolveJurisdiction("", dir); j.Country != "" {
		t.Errorf("expected empty jurisdiction for empty authority, got %+v", j)
	}
}

func TestLanguageDetectEmpty(t *testing.T) {
	d := NewLanguageDetector()
	out := d.Detect("   ")
	if !out.Degraded() || out.Value != "" {
		t.Errorf("expected degraded empty result, got %q (degraded=%v)", out.Value, out.Degraded())
	}
}

func TestLanguageDetect(t *testing.T) {
	d := NewLanguageDetector()
	out := d.Detect("This regulation establishes harmonised rules for artificial intelligence systems placed on the market.")
	if out.Degraded() {
		t.Fatalf("unexpected degradation: %s", out.Reason)
	}
	if out.Value != "en" {
		t.Errorf("expected 'en', got %q", out.Value)
	}
}

func TestSampleTextRuneBoundary(t *testing.T) {
	// "é" is two bytes; a cap landing inside it must back up.
	s := strings.Repeat("a", 7) + "étude"
	got := sampleText(s, 8)
	if got != strings.Repeat("a", 7) {
		t.Errorf("expected cut at rune boundary, got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Error("sample is not valid UTF-8")
	}

	if got := sampleText("short", 100); got != "short" {
		t.Errorf("short input should pass through, got %q", got)
	}
	if got := sampleText("abcdef", 3); got != "abc" {
		t.Errorf("ASCII cut should be exact, got %q", got)
	}
}

func TestSentimentMultibyteNearCap(t *testing.T) {
	// Content sized so the byte cap lands inside a multibyte rune.
	content := strings.Repeat("a", maxSentimentSample-1) + "étude positive"
	out := Sentiment(content)
	if out.Degraded() {
		t.Fatalf("unexpected degradation: %s", out.Reason)
	}
	if out.Value.Score < -1 || out.Value.Score > 1 {
		t.Errorf("score out of range: %v", out.Value.Score)
	}
}
