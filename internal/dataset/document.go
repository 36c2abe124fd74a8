// Package dataset assembles, stores and serves the canonical document
// table: one fixed-schema record per regulatory item, built once per
// pipeline run and read-only afterwards.
package dataset

import "strconv"

// Document is the canonical, fully-enriched record for one regulatory
// item. Immutable once built.
type Document struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Authority       string  `json:"authority"`
	Country         string  `json:"country"`
	Region          string  `json:"region"`
	Topic           string  `json:"topic"`
	DocumentType    string  `json:"document_type"`
	Date            string  `json:"date"`
	Year            int     `json:"year"`
	Month           int     `json:"month"`
	Sentiment       string  `json:"sentiment"`
	SentimentScore  float64 `json:"sentiment_score"`
	RiskLevel       string  `json:"risk_level"`
	RiskScore       float64 `json:"risk_score"`
	DocumentLength  int     `json:"document_length"`
	ConfidenceScore float64 `json:"confidence_score"`
	Status          string  `json:"status"`
	Content         string  `json:"content"`
	URL             string  `json:"url"`
	Language        string  `json:"language"`
	Tags            string  `json:"tags"`
}

// Columns is the fixed output column order of the clean dataset.
var Columns = []string{
	"id", "title", "authority", "country", "region", "topic", "document_type",
	"date", "year", "month", "sentiment", "sentiment_score", "risk_level",
	"risk_score", "document_length", "confidence_score", "status", "content",
	"url", "language", "tags",
}

// CSVRecord renders the document as one CSV row in Columns order.
// Zero year/month render as empty cells, matching an absent date.
func (d Document) CSVRecord() []string {
	year, month := "", ""
	if d.Year != 0 {
		year = strconv.Itoa(d.Year)
	}
	if d.Month != 0 {
		month = strconv.Itoa(d.Month)
	}
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.Title,
		d.Authority,
		d.Country,
		d.Region,
		d.Topic,
		d.DocumentType,
		d.Date,
		year,
		month,
		d.Sentiment,
		formatFloat(d.SentimentScore),
		d.RiskLevel,
		formatFloat(d.RiskScore),
		strconv.Itoa(d.DocumentLength),
		formatFloat(d.ConfidenceScore),
		d.Status,
		d.Content,
		d.URL,
		d.Language,
		d.Tags,
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
