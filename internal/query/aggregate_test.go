package query

import (
	"testing"

	"github.com/regalytics/regalytics/internal/dataset"
)

func testDocs() []dataset.Document {
	return []dataset.Document{
		{
			ID: 1, Title: "AI Executive Order", Authority: "White House",
			Country: "United States", Region: "United States", Topic: "AI Governance",
			Date: "2023-10-30", Year: 2023, Month: 10,
			Sentiment: "positive", SentimentScore: 0.6,
			RiskLevel: "medium", Tags: "ai, safety",
			Content: "Executive order on safe and trustworthy artificial intelligence.",
		},
		{
			ID: 2, Title: "GDPR Enforcement Update", Authority: "CNIL",
			Country: "France", Region: "France", Topic: "Data Protection",
			Date: "2023-11-15", Year: 2023, Month: 11,
			Sentiment: "negative", SentimentScore: -0.4,
			RiskLevel: "high", Tags: "privacy, enforcement",
			Content: "Enforcement action over unlawful data processing practices.",
		},
		{
			ID: 3, Title: "AI Act Provisional Agreement", Authority: "European Commission",
			Country: "European Union", Region: "European Union", Topic: "AI Governance",
			Date: "2023-12-09", Year: 2023, Month: 12,
			Sentiment: "positive", SentimentScore: 0.5,
			RiskLevel: "medium", Tags: "ai, regulation",
			Content: "Provisional agreement on the artificial intelligence act.",
		},
		{
			ID: 4, Title: "FTC Privacy Report", Authority: "FTC",
			Country: "United States", Region: "United States", Topic: "Data Protection",
			Date: "2023-11-02", Year: 2023, Month: 11,
			Sentiment: "neutral", SentimentScore: 0.0,
			RiskLevel: "low", Tags: "privacy",
			Content: "Annual report on consumer privacy enforcement.",
		},
	}
}

func TestSentimentByCountry(t *testing.T) {
	agg := sentimentByCountry(testDocs())
	if agg.Err != "" {
		t.Fatalf("unexpected error: %s", agg.Err)
	}
	groups := agg.Data.([]GroupSentiment)
	if len(groups) != 3 {
		t.Fatalf("expected 3 countries, got %d", len(groups))
	}
	if groups[0].Key != "European Union" || groups[0].AvgSentiment != 0.5 {
		t.Errorf("expected European Union 0.5 first, got %s %v", groups[0].Key, groups[0].AvgSentiment)
	}
	if groups[len(groups)-1].Key != "France" {
		t.Errorf("expected France last, got %s", groups[len(groups)-1].Key)
	}
	// United States: (0.6 + 0.0) / 2 = 0.3
	for _, g := range groups {
		if g.Key == "United States" {
			if g.AvgSentiment != 0.3 {
				t.Errorf("expected US mean 0.3, got %v", g.AvgSentiment)
			}
			if g.DocumentCount != 2 {
				t.Errorf("expected 2 US documents, got %d", g.DocumentCount)
			}
		}
	}
	if agg.ChartSuggestion != "bar_chart" {
		t.Errorf("expected bar_chart, got %s", agg.ChartSuggestion)
	}
}

func TestSentimentByCountryEmpty(t *testing.T) {
	agg := sentimentByCountry(nil)
	if agg.Err == "" {
		t.Error("expected error payload for empty dataset")
	}
	if agg.Data != nil {
		t.Error("expected no data for empty dataset")
	}
}

func TestSentimentByRegionRounding(t *testing.T) {
	agg := sentimentByRegion(testDocs())
	groups := agg.Data.([]GroupSentiment)
	if len(groups) != 3 {
		t.Fatalf("expected 3 regions, got %d", len(groups))
	}
	if groups[0].Key != "European Union" || groups[0].AvgSentiment != 0.5 {
		t.Errorf("expected European Union 0.5 first, got %s %v", groups[0].Key, groups[0].AvgSentiment)
	}
	// United States: (0.6 + 0.0) / 2 = 0.3
	if groups[1].Key != "United States" || groups[1].AvgSentiment != 0.3 {
		t.Errorf("expected United States 0.3, got %s %v", groups[1].Key, groups[1].AvgSentiment)
	}
	if groups[2].Key != "France" || groups[2].AvgSentiment != -0.4 {
		t.Errorf("expected France -0.4 last, got %s %v", groups[2].Key, groups[2].AvgSentiment)
	}
}

func TestGroupMeanSentimentRoundsThreeDecimals(t *testing.T) {
	docs := []dataset.Document{
		{Country: "X", SentimentScore: 0.1},
		{Country: "X", SentimentScore: 0.2},
		{Country: "X", SentimentScore: 0.2},
	}
	groups := groupMeanSentiment(docs, func(d dataset.Document) string { return d.Country })
	if groups[0].AvgSentiment != 0.167 {
		t.Errorf("expected 0.167, got %v", groups[0].AvgSentiment)
	}
}

func TestGroupMeanSentimentUnknownKey(t *testing.T) {
	docs := []dataset.Document{{Country: "", SentimentScore: 0.5}}
	groups := groupMeanSentiment(docs, func(d dataset.Document) string { return d.Country })
	if groups[0].Key != "Unknown" {
		t.Errorf("expected Unknown key, got %s", groups[0].Key)
	}
}

func TestSentimentTrend(t *testing.T) {
	agg := sentimentTrend(testDocs())
	trend := agg.Data.([]PeriodValue)
	if len(trend) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(trend))
	}
	if trend[0].Period != "2023-10" || trend[2].Period != "2023-12" {
		t.Errorf("expected chronological periods, got %v", trend)
	}
	// 2023-11: (-0.4 + 0.0) / 2 = -0.2
	if trend[1].Value != -0.2 {
		t.Errorf("expected -0.2 for 2023-11, got %v", trend[1].Value)
	}
	if agg.ChartSuggestion != "line_chart" {
		t.Errorf("expected line_chart, got %s", agg.ChartSuggestion)
	}
}

func TestSentimentTrendSkipsUndated(t *testing.T) {
	agg := sentimentTrend([]dataset.Document{{SentimentScore: 0.5}})
	if agg.Err == "" {
		t.Error("expected error payload when no documents are dated")
	}
}

func TestCompareEntities(t *testing.T) {
	agg := compareEntities(testDocs(), "United States", "Europe", func(d dataset.Document) string { return d.Country })
	stats := agg.Data.(map[string]EntityStats)
	if stats["United States"].Documents != 2 {
		t.Errorf("expected 2 US documents, got %+v", stats["United States"])
	}
	// "Europe" substring-matches the "European Union" country.
	if stats["Europe"].Documents != 1 || stats["Europe"].AvgSentiment != 0.5 {
		t.Errorf("expected 1 European document at 0.5, got %+v", stats["Europe"])
	}
	if stats["United States"].AvgSentiment != 0.3 {
		t.Errorf("expected US sentiment 0.3, got %v", stats["United States"].AvgSentiment)
	}
	if agg.ChartSuggestion != "grouped_bar" {
		t.Errorf("expected grouped_bar, got %s", agg.ChartSuggestion)
	}
}

func TestCompareEntitiesFullCountryNames(t *testing.T) {
	// Short entity labels must not partial-match unrelated countries:
	// "Australia" and "Russia" both contain "us".
	docs := []dataset.Document{
		{Country: "United States", SentimentScore: 0.6},
		{Country: "United States", SentimentScore: 0.0},
		{Country: "European Union", SentimentScore: 0.5},
		{Country: "Australia", SentimentScore: -0.9},
		{Country: "Russia", SentimentScore: -0.9},
	}
	agg := compareEntities(docs, "United States", "Europe", func(d dataset.Document) string { return d.Country })
	stats := agg.Data.(map[string]EntityStats)
	if stats["United States"].Documents != 2 || stats["United States"].AvgSentiment != 0.3 {
		t.Errorf("expected 2 US documents at 0.3, got %+v", stats["United States"])
	}
	if stats["Europe"].Documents != 1 {
		t.Errorf("expected 1 European document, got %+v", stats["Europe"])
	}
}

func TestCompareEntitiesNoMatches(t *testing.T) {
	agg := compareEntities(testDocs(), "APAC", "LATAM", func(d dataset.Document) string { return d.Region })
	stats := agg.Data.(map[string]EntityStats)
	if stats["APAC"].Documents != 0 || stats["APAC"].AvgSentiment != 0 {
		t.Errorf("expected zero stats for unmatched entity, got %+v", stats["APAC"])
	}
}

func TestTopAuthorities(t *testing.T) {
	docs := append(testDocs(), dataset.Document{ID: 5, Authority: "FTC", SentimentScore: 0.1})
	agg := topAuthorities(docs)
	groups := agg.Data.([]KeyCount)
	if groups[0].Key != "FTC" || groups[0].Count != 2 {
		t.Errorf("expected FTC with 2 documents first, got %+v", groups[0])
	}
}

func TestDocumentTrends(t *testing.T) {
	agg := documentTrends(testDocs())
	trend := agg.Data.([]PeriodValue)
	if len(trend) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(trend))
	}
	if trend[1].Period != "2023-11" || trend[1].Value != 2 {
		t.Errorf("expected 2 documents in 2023-11, got %+v", trend[1])
	}
}

func TestRiskAnalysis(t *testing.T) {
	agg := riskAnalysis(testDocs())
	groups := agg.Data.([]KeyCount)
	if groups[0].Key != "medium" || groups[0].Count != 2 {
		t.Errorf("expected medium with 2 documents first, got %+v", groups[0])
	}
	if agg.ChartSuggestion != "pie_chart" {
		t.Errorf("expected pie_chart, got %s", agg.ChartSuggestion)
	}
}

func TestTopicAnalysis(t *testing.T) {
	agg := topicAnalysis(testDocs())
	groups := agg.Data.([]KeyCount)
	if groups[0].Key != "AI Governance" || groups[0].Count != 2 {
		t.Errorf("expected AI Governance with 2 documents first, got %+v", groups[0])
	}
}

func TestSummaryStats(t *testing.T) {
	agg := summaryStats(testDocs())
	stats := agg.Data.(SummaryStats)
	if stats.TotalDocuments != 4 {
		t.Errorf("expected 4 documents, got %d", stats.TotalDocuments)
	}
	if stats.Countries != 3 || stats.Authorities != 4 {
		t.Errorf("unexpected cardinalities: %+v", stats)
	}
	if stats.DateRange.Start != "2023-10-30" || stats.DateRange.End != "2023-12-09" {
		t.Errorf("unexpected date range: %+v", stats.DateRange)
	}
	// (0.6 - 0.4 + 0.5 + 0.0) / 4 = 0.175
	if stats.AvgSentiment != 0.175 {
		t.Errorf("expected mean sentiment 0.175, got %v", stats.AvgSentiment)
	}
	if agg.ChartSuggestion != "kpi_cards" {
		t.Errorf("expected kpi_cards, got %s", agg.ChartSuggestion)
	}
}

func TestSummaryStatsEmpty(t *testing.T) {
	agg := summaryStats(nil)
	stats := agg.Data.(SummaryStats)
	if stats.TotalDocuments != 0 || stats.AvgSentiment != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if agg.Err != "" {
		t.Errorf("summary stats should not error on empty dataset, got %s", agg.Err)
	}
}
