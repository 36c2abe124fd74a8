package dataset

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/regalytics/regalytics/internal/enrich"
	"github.com/regalytics/regalytics/internal/normalize"
	"github.com/regalytics/regalytics/internal/source"
)

// Builder turns raw document rows into canonical documents. Rows are
// independent, so the normalize + enrich pass fans out across workers;
// the output is sorted by id regardless of completion order.
type Builder struct {
	directory *source.AuthorityDirectory
	fulltext  *source.FulltextStore
	languages *enrich.LanguageDetector
	workers   int
}

// BuildReport summarises one build pass.
type BuildReport struct {
	TotalRows int
	Built     int
	Skipped   int
	Degraded  int
}

// NewBuilder creates a builder. workers <= 0 defaults to 4.
func NewBuilder(directory *source.AuthorityDirectory, fulltext *source.FulltextStore, workers int) *Builder {
	if workers <= 0 {
		workers = 4
	}
	return &Builder{
		directory: directory,
		fulltext:  fulltext,
		languages: enrich.NewLanguageDetector(),
		workers:   workers,
	}
}

// Build processes every row of the documents table. A row without a
// coercible id is dropped; any other failure degrades individual
// fields and keeps the row. One row's error never aborts the batch.
func (b *Builder) Build(ctx context.Context, table *source.Table) ([]Document, *BuildReport) {
	riskCols := table.ColumnsWithPrefix("risk factors")
	harmCols := table.ColumnsWithPrefix("harms")

	report := &BuildReport{TotalRows: len(table.Rows)}
	docs := make([]Document, 0, len(table.Rows))

	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for idx, row := range table.Rows {
		g.Go(func() error {
			doc, degradations, err := b.buildDocument(row, riskCols, harmCols)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Skipped++
				log.Printf("skipping row %d: %v", idx, err)
				return nil
			}
			if degradations > 0 {
				report.Degraded++
			}
			docs = append(docs, doc)
			report.Built++
			return nil
		})
	}
	g.Wait()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, report
}

// buildDocument assembles one canonical document from a raw row.
func (b *Builder) buildDocument(row source.Row, riskCols, harmCols []string) (Document, int, error) {
	id, err := parseID(row.Get("AGORA ID"))
	if err != nil {
		return Document{}, 0, err
	}

	title := normalize.Title(row)
	collections := row.Get("Collections")
	tagsRaw := row.Get("Tags")
	content := normalize.Content(row, id, b.fulltext)
	date, year, month := normalize.Date(row)

	degradations := 0
	sentiment := enrich.Sentiment(content)
	risk := enrich.RiskScore(row, riskCols, harmCols)
	language := b.languages.Detect(content)
	for _, d := range []bool{sentiment.Degraded(), risk.Degraded(), language.Degraded()} {
		if d {
			degradations++
		}
	}

	authority := row.Get("Authority")
	jurisdiction := enrich.ResolveJurisdiction(authority, b.directory)

	return Document{
		ID:              id,
		Title:           title,
		Authority:       authority,
		Country:         jurisdiction.Country,
		Region:          jurisdiction.Region,
		Topic:           normalize.Topic(tagsRaw, collections),
		DocumentType:    normalize.DocType(title, collections),
		Date:            date,
		Year:            year,
		Month:           month,
		Sentiment:       sentiment.Value.Label,
		SentimentScore:  sentiment.Value.Score,
		RiskLevel:       risk.Value.Level,
		RiskScore:       risk.Value.Score,
		DocumentLength:  wordCount(content),
		ConfidenceScore: enrich.Confidence(row),
		Status:          row.Get("Most recent activity"),
		Content:         content,
		URL:             normalize.ChooseBestURL(row),
		Language:        language.Value,
		Tags:            normalize.Tags(tagsRaw),
	}, degradations, nil
}

// parseID coerces the raw id field to a positive integer. Failure
// drops the row.
func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Some trackers export ids as floats ("17.0").
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("unparsable id %q", raw)
		}
		id = int64(f)
	}
	if id <= 0 {
		return 0, fmt.Errorf("non-positive id %d", id)
	}
	return id, nil
}

func wordCount(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}
