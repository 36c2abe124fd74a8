package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/llm"
)

// RetrievedDocument is a document surfaced for a query, with its
// relevance score.
type RetrievedDocument struct {
	Title     string  `json:"title"`
	Authority string  `json:"authority"`
	Country   string  `json:"country"`
	Date      string  `json:"date"`
	Sentiment string  `json:"sentiment"`
	Topic     string  `json:"topic"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
}

// Retriever finds the documents most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]RetrievedDocument, error)
}

func asRetrieved(d dataset.Document, score float64) RetrievedDocument {
	return RetrievedDocument{
		Title:     d.Title,
		Authority: d.Authority,
		Country:   d.Country,
		Date:      d.Date,
		Sentiment: d.Sentiment,
		Topic:     d.Topic,
		Content:   d.Content,
		Score:     round3(score),
	}
}

func searchableText(d dataset.Document) string {
	return strings.Join([]string{d.Title, d.Topic, d.Tags, d.Content}, " ")
}

// LexicalRetriever ranks documents by token overlap with the query. It
// needs no external service and is the fallback when no embedder is
// configured.
type LexicalRetriever struct {
	docs   []dataset.Document
	tokens []map[string]struct{}
}

// NewLexicalRetriever indexes the documents' searchable text.
func NewLexicalRetriever(docs []dataset.Document) *LexicalRetriever {
	r := &LexicalRetriever{docs: docs, tokens: make([]map[string]struct{}, len(docs))}
	for i, d := range docs {
		r.tokens[i] = tokenSet(searchableText(d))
	}
	return r
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if len(tok) > 2 {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Retrieve returns the k documents with the highest query-token
// overlap. Documents with no overlap are omitted.
func (r *LexicalRetriever) Retrieve(_ context.Context, query string, k int) ([]RetrievedDocument, error) {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, docTokens := range r.tokens {
		overlap := 0
		for tok := range queryTokens {
			if _, ok := docTokens[tok]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			hits = append(hits, scored{idx: i, score: float64(overlap) / float64(len(queryTokens))})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]RetrievedDocument, 0, k)
	for _, h := range hits[:k] {
		out = append(out, asRetrieved(r.docs[h.idx], h.score))
	}
	return out, nil
}

// EmbeddingRetriever ranks documents by cosine similarity between the
// query embedding and precomputed document embeddings.
type EmbeddingRetriever struct {
	docs       []dataset.Document
	embeddings [][]float64
	embedder   llm.Embedder
}

// NewEmbeddingRetriever embeds each document's searchable text up
// front so queries only pay for a single embedding call.
func NewEmbeddingRetriever(ctx context.Context, docs []dataset.Document, embedder llm.Embedder) (*EmbeddingRetriever, error) {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = searchableText(d)
	}
	embeddings, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(embeddings), len(docs))
	}
	return &EmbeddingRetriever{docs: docs, embeddings: embeddings, embedder: embedder}, nil
}

// Retrieve embeds the query and returns the k nearest documents.
func (r *EmbeddingRetriever) Retrieve(ctx context.Context, query string, k int) ([]RetrievedDocument, error) {
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	queryVec := vecs[0]

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, len(r.docs))
	for i, docVec := range r.embeddings {
		hits = append(hits, scored{idx: i, score: cosineSimilarity(queryVec, docVec)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]RetrievedDocument, 0, k)
	for _, h := range hits[:k] {
		out = append(out, asRetrieved(r.docs[h.idx], h.score))
	}
	return out, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
