package query

import (
	"context"
	"log"
	"strings"

	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/llm"
)

// Response is the engine's answer envelope for one query.
type Response struct {
	Query     string              `json:"query"`
	QueryType string              `json:"query_type"`
	Answer    string              `json:"answer"`
	Data      *Aggregation        `json:"data,omitempty"`
	Documents []RetrievedDocument `json:"documents,omitempty"`
	Metadata  map[string]any      `json:"metadata,omitempty"`
}

// route pairs a match predicate with its aggregation handler. Routes
// are checked in order and the first match wins.
type route struct {
	name    string
	match   func(q string) bool
	handler func(e *Engine, q string, docs []dataset.Document) Aggregation
}

func keyword(terms ...string) func(q string) bool {
	return func(q string) bool { return containsAny(q, terms...) }
}

func both(a, b func(q string) bool) func(q string) bool {
	return func(q string) bool { return a(q) && b(q) }
}

func plain(h func(docs []dataset.Document) Aggregation) func(*Engine, string, []dataset.Document) Aggregation {
	return func(_ *Engine, _ string, docs []dataset.Document) Aggregation { return h(docs) }
}

var routes = []route{
	{
		name:    "sentiment_by_country",
		match:   both(keyword("sentiment"), keyword("country", "countries")),
		handler: plain(sentimentByCountry),
	},
	{
		name:    "sentiment_by_region",
		match:   both(keyword("sentiment"), keyword("region", "regions")),
		handler: plain(sentimentByRegion),
	},
	{
		name:    "sentiment_trend",
		match:   both(keyword("sentiment"), keyword("trend", "over time")),
		handler: plain(sentimentTrend),
	},
	{
		name:    "comparison",
		match:   keyword("compare", " vs ", "versus"),
		handler: handleComparison,
	},
	{
		name:    "top_authorities",
		match:   keyword("authority", "authorities", "regulator", "agency"),
		handler: plain(topAuthorities),
	},
	{
		name:    "document_trends",
		match:   keyword("trend", "growth", "over time"),
		handler: plain(documentTrends),
	},
	{
		name:    "risk_analysis",
		match:   keyword("risk"),
		handler: plain(riskAnalysis),
	},
	{
		name:    "topic_analysis",
		match:   keyword("topic", "theme"),
		handler: plain(topicAnalysis),
	},
}

// handleComparison compares the US and Europe directly when the query
// names them, and falls back to a regional sentiment breakdown
// otherwise. The comparison matches against the country column, where
// "United States" and "European Union" substring-match the entity
// names; short labels like "US" never appear in built documents.
func handleComparison(_ *Engine, q string, docs []dataset.Document) Aggregation {
	mentionsUS := containsAny(q, "us", "u.s", "united states", "america")
	mentionsEU := containsAny(q, "eu", "europe", "european")
	if mentionsUS && mentionsEU {
		return compareEntities(docs, "United States", "Europe", func(d dataset.Document) string { return d.Country })
	}
	return sentimentByRegion(docs)
}

// Route picks the aggregation handler for an analytical query and
// returns its name with the result.
func (e *Engine) Route(q string, docs []dataset.Document) (string, Aggregation) {
	lowered := strings.ToLower(q)
	for _, r := range routes {
		if r.match(lowered) {
			return r.name, r.handler(e, lowered, docs)
		}
	}
	return "summary_stats", summaryStats(docs)
}

// Engine answers natural-language questions over a dataset snapshot.
type Engine struct {
	snap      *dataset.Snapshot
	retriever Retriever
	provider  llm.Provider
	topK      int
	maxTokens int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetriever overrides the default lexical retriever.
func WithRetriever(r Retriever) Option {
	return func(e *Engine) { e.retriever = r }
}

// WithProvider enables LLM answer generation. A nil provider keeps
// rule-based answers.
func WithProvider(p llm.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithTopK sets how many documents retrieval surfaces.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithMaxTokens caps LLM answer length.
func WithMaxTokens(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// NewEngine creates an engine over a snapshot.
func NewEngine(snap *dataset.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		snap:      snap,
		topK:      5,
		maxTokens: 600,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.retriever == nil {
		e.retriever = NewLexicalRetriever(snap.Documents())
	}
	return e
}

// Query classifies the question, routes it and composes an answer.
// Filters narrow the snapshot for aggregation; retrieval ranks over
// the full dataset, since the retriever's index is built once at
// engine construction. A handler panic degrades to an apologetic
// answer instead of taking the caller down.
func (e *Engine) Query(ctx context.Context, text string, filters dataset.Filters) (resp Response) {
	resp = Response{Query: text}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("query %q panicked: %v", text, r)
			resp.Answer = "I encountered an error processing your question. Please try rephrasing it."
			resp.QueryType = "error"
			resp.Data = nil
			resp.Documents = nil
		}
	}()

	docs := e.snap.Filter(filters)
	mode := Classify(text)
	resp.QueryType = string(mode)
	resp.Metadata = map[string]any{
		"documents_matched": len(docs),
		"filters_applied":   !filters.IsZero(),
	}

	if mode == ModeAnalytical || mode == ModeHybrid {
		name, agg := e.Route(text, docs)
		resp.Data = &agg
		resp.Metadata["route"] = name
		if agg.ChartSuggestion != "" {
			resp.Metadata["chart_suggestion"] = agg.ChartSuggestion
		}
	}

	if mode == ModeDocument || mode == ModeHybrid {
		retrieved, err := e.retriever.Retrieve(ctx, text, e.topK)
		if err != nil {
			log.Printf("retrieval failed for %q: %v", text, err)
			resp.Metadata["retrieval_error"] = err.Error()
		}
		resp.Documents = retrieved
		resp.Metadata["num_documents"] = len(retrieved)
	}

	answer, source := e.composeAnswer(ctx, text, mode, resp.Data, resp.Documents)
	resp.Answer = answer
	resp.Metadata["source"] = source
	return resp
}
