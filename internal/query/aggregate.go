package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/regalytics/regalytics/internal/dataset"
)

// Aggregation is the structured result of one handler: a
// handler-specific data payload, a natural-language explanation and a
// chart-type suggestion. Err carries an explicit "data not available"
// payload; it is never conflated with an empty result.
type Aggregation struct {
	Data            any    `json:"data,omitempty"`
	Explanation     string `json:"explanation,omitempty"`
	ChartSuggestion string `json:"chart_suggestion,omitempty"`
	Err             string `json:"error,omitempty"`
}

func errAggregation(msg string) Aggregation {
	return Aggregation{Err: msg}
}

// GroupSentiment is one group's mean sentiment with its size.
type GroupSentiment struct {
	Key           string  `json:"key"`
	AvgSentiment  float64 `json:"avg_sentiment"`
	DocumentCount int     `json:"document_count"`
}

// KeyCount is one group's document count.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// PeriodValue is one time bucket's aggregate value.
type PeriodValue struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func unknownIfEmpty(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// groupMeanSentiment averages sentiment per key, sorted descending by
// mean. Keys are pre-sorted lexically so equal means keep a stable,
// deterministic order.
func groupMeanSentiment(docs []dataset.Document, key func(dataset.Document) string) []GroupSentiment {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, d := range docs {
		k := unknownIfEmpty(key(d))
		sums[k] += d.SentimentScore
		counts[k]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]GroupSentiment, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, GroupSentiment{
			Key:           k,
			AvgSentiment:  round3(sums[k] / float64(counts[k])),
			DocumentCount: counts[k],
		})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].AvgSentiment > groups[j].AvgSentiment })
	return groups
}

// groupCounts counts documents per key, sorted descending by count
// with lexical tie-break.
func groupCounts(docs []dataset.Document, key func(dataset.Document) string) []KeyCount {
	counts := make(map[string]int)
	for _, d := range docs {
		counts[unknownIfEmpty(key(d))]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]KeyCount, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, KeyCount{Key: k, Count: counts[k]})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	return groups
}

func topN[T any](groups []T, n int) []T {
	if len(groups) > n {
		return groups[:n]
	}
	return groups
}

// yearMonth buckets a document by its date's YYYY-MM prefix; undated
// documents are excluded from trends.
func yearMonth(d dataset.Document) string {
	if len(d.Date) < 7 {
		return ""
	}
	return d.Date[:7]
}

func sentimentByCountry(docs []dataset.Document) Aggregation {
	if len(docs) == 0 {
		return errAggregation("sentiment data not available")
	}
	groups := groupMeanSentiment(docs, func(d dataset.Document) string { return d.Country })

	top := groups[0]
	explanation := fmt.Sprintf(
		"Based on %d documents, %s has the most positive sentiment with an average score of %.3f. ",
		len(docs), top.Key, top.AvgSentiment)
	if len(groups) > 1 {
		bottom := groups[len(groups)-1]
		explanation += fmt.Sprintf("%s has the lowest sentiment at %.3f.", bottom.Key, bottom.AvgSentiment)
	}

	return Aggregation{
		Data:            topN(groups, 10),
		Explanation:     strings.TrimSpace(explanation),
		ChartSuggestion: "bar_chart",
	}
}

func sentimentByRegion(docs []dataset.Document) Aggregation {
	if len(docs) == 0 {
		return errAggregation("region data not available")
	}
	groups := groupMeanSentiment(docs, func(d dataset.Document) string { return d.Region })

	var b strings.Builder
	b.WriteString("Regional sentiment analysis: ")
	for i, g := range groups {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %.3f (%d docs)", g.Key, g.AvgSentiment, g.DocumentCount)
	}
	b.WriteString(".")

	return Aggregation{
		Data:            groups,
		Explanation:     b.String(),
		ChartSuggestion: "bar_chart",
	}
}

func sentimentTrend(docs []dataset.Document) Aggregation {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, d := range docs {
		if ym := yearMonth(d); ym != "" {
			sums[ym] += d.SentimentScore
			counts[ym]++
		}
	}
	if len(counts) == 0 {
		return errAggregation("sentiment data not available")
	}

	periods := make([]string, 0, len(counts))
	for p := range counts {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	trend := make([]PeriodValue, 0, len(periods))
	for _, p := range periods {
		trend = append(trend, PeriodValue{Period: p, Value: round3(sums[p] / float64(counts[p]))})
	}

	explanation := fmt.Sprintf("Sentiment trend over %d time periods.", len(trend))
	if len(trend) > 1 {
		recent := meanOfTail(trend, 3)
		older := meanOfHead(trend, 3)
		direction := "decreased"
		if recent > older {
			direction = "increased"
		}
		explanation += fmt.Sprintf(" Recent sentiment (%.3f) vs earlier (%.3f): %s by %.3f.",
			recent, older, direction, math.Abs(recent-older))
	}

	return Aggregation{
		Data:            trend,
		Explanation:     explanation,
		ChartSuggestion: "line_chart",
	}
}

// EntityStats summarises one side of an entity comparison.
type EntityStats struct {
	Documents    int     `json:"documents"`
	AvgSentiment float64 `json:"avg_sentiment"`
}

func compareEntities(docs []dataset.Document, entity1, entity2 string, key func(dataset.Document) string) Aggregation {
	stats := func(entity string) EntityStats {
		var n int
		var sum float64
		for _, d := range docs {
			if strings.Contains(strings.ToLower(key(d)), strings.ToLower(entity)) {
				n++
				sum += d.SentimentScore
			}
		}
		s := EntityStats{Documents: n}
		if n > 0 {
			s.AvgSentiment = round3(sum / float64(n))
		}
		return s
	}

	s1, s2 := stats(entity1), stats(entity2)
	explanation := fmt.Sprintf("Comparison: %s (%d docs, sentiment: %.3f) vs %s (%d docs, sentiment: %.3f)",
		entity1, s1.Documents, s1.AvgSentiment, entity2, s2.Documents, s2.AvgSentiment)

	return Aggregation{
		Data:            map[string]EntityStats{entity1: s1, entity2: s2},
		Explanation:     explanation,
		ChartSuggestion: "grouped_bar",
	}
}

func topAuthorities(docs []dataset.Document) Aggregation {
	if len(docs) == 0 {
		return errAggregation("authority data not available")
	}
	groups := topN(groupCounts(docs, func(d dataset.Document) string { return d.Authority }), 10)

	var b strings.Builder
	b.WriteString("Top authorities by document count: ")
	for i, g := range topN(groups, 5) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%d)", g.Key, g.Count)
	}
	b.WriteString(".")

	return Aggregation{
		Data:            groups,
		Explanation:     b.String(),
		ChartSuggestion: "horizontal_bar",
	}
}

func documentTrends(docs []dataset.Document) Aggregation {
	counts := make(map[string]int)
	for _, d := range docs {
		if ym := yearMonth(d); ym != "" {
			counts[ym]++
		}
	}
	if len(counts) == 0 {
		return errAggregation("date data not available")
	}

	periods := make([]string, 0, len(counts))
	for p := range counts {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	trend := make([]PeriodValue, 0, len(periods))
	peak, peakCount, total := "", 0, 0
	for _, p := range periods {
		trend = append(trend, PeriodValue{Period: p, Value: float64(counts[p])})
		total += counts[p]
		if counts[p] > peakCount {
			peak, peakCount = p, counts[p]
		}
	}
	avg := float64(total) / float64(len(trend))

	explanation := fmt.Sprintf("Document volume trends: Peak in %s with %d documents. Average: %.0f documents per month.",
		peak, peakCount, avg)

	return Aggregation{
		Data:            trend,
		Explanation:     explanation,
		ChartSuggestion: "line_chart",
	}
}

func riskAnalysis(docs []dataset.Document) Aggregation {
	if len(docs) == 0 {
		return errAggregation("risk level data not available")
	}
	groups := groupCounts(docs, func(d dataset.Document) string { return d.RiskLevel })

	var b strings.Builder
	b.WriteString("Risk distribution: ")
	for i, g := range groups {
		if i > 0 {
			b.WriteString(", ")
		}
		pct := float64(g.Count) / float64(len(docs)) * 100
		fmt.Fprintf(&b, "%s %.1f%% (%d docs)", g.Key, pct, g.Count)
	}
	b.WriteString(".")

	return Aggregation{
		Data:            groups,
		Explanation:     b.String(),
		ChartSuggestion: "pie_chart",
	}
}

func topicAnalysis(docs []dataset.Document) Aggregation {
	if len(docs) == 0 {
		return errAggregation("topic data not available")
	}
	groups := topN(groupCounts(docs, func(d dataset.Document) string { return d.Topic }), 10)

	var b strings.Builder
	b.WriteString("Top topics: ")
	for i, g := range topN(groups, 5) {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s (%d documents)", g.Key, g.Count)
	}
	b.WriteString(".")

	return Aggregation{
		Data:            groups,
		Explanation:     b.String(),
		ChartSuggestion: "bar_chart",
	}
}

// SummaryStats is the default aggregation payload.
type SummaryStats struct {
	TotalDocuments int       `json:"total_documents"`
	Countries      int       `json:"countries"`
	Authorities    int       `json:"authorities"`
	DateRange      DateRange `json:"date_range"`
	AvgSentiment   float64   `json:"avg_sentiment"`
}

// DateRange is the inclusive span of dated documents.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

func summaryStats(docs []dataset.Document) Aggregation {
	countries := make(map[string]struct{})
	authorities := make(map[string]struct{})
	var sentimentSum float64
	var dateRange DateRange
	for _, d := range docs {
		countries[unknownIfEmpty(d.Country)] = struct{}{}
		authorities[unknownIfEmpty(d.Authority)] = struct{}{}
		sentimentSum += d.SentimentScore
		if d.Date != "" {
			if dateRange.Start == "" || d.Date < dateRange.Start {
				dateRange.Start = d.Date
			}
			if d.Date > dateRange.End {
				dateRange.End = d.Date
			}
		}
	}

	stats := SummaryStats{
		TotalDocuments: len(docs),
		Countries:      len(countries),
		Authorities:    len(authorities),
		DateRange:      dateRange,
	}
	if len(docs) > 0 {
		stats.AvgSentiment = round3(sentimentSum / float64(len(docs)))
	}

	explanation := fmt.Sprintf("Dataset overview: %d documents from %d countries and %d authorities.",
		stats.TotalDocuments, stats.Countries, stats.Authorities)
	if dateRange.Start != "" {
		explanation += fmt.Sprintf(" Data spans from %s to %s.", dateRange.Start, dateRange.End)
	}

	return Aggregation{
		Data:            stats,
		Explanation:     explanation,
		ChartSuggestion: "kpi_cards",
	}
}

func meanOfHead(trend []PeriodValue, n int) float64 {
	if n > len(trend) {
		n = len(trend)
	}
	var sum float64
	for _, p := range trend[:n] {
		sum += p.Value
	}
	return sum / float64(n)
}

func meanOfTail(trend []PeriodValue, n int) float64 {
	if n > len(trend) {
		n = len(trend)
	}
	var sum float64
	for _, p := range trend[len(trend)-n:] {
		sum += p.Value
	}
	return sum / float64(n)
}
