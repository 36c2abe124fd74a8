// Package fetch downloads missing full text for documents that carry a
// resolved URL, extracting readable article text and saving it to the
// fulltext store so the next dataset build picks it up.
package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/source"
)

// minExtractedLen filters out boilerplate-only extractions.
const minExtractedLen = 100

// Result holds the outcome of a fetch run.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// Fetcher downloads document full text via HTTP + readability
// extraction.
type Fetcher struct {
	store  *source.FulltextStore
	client *http.Client
}

// NewFetcher creates a fetcher writing into the given fulltext store.
func NewFetcher(store *source.FulltextStore, timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		store: store,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissing downloads full text for documents that have a URL but
// no stored fulltext file. After the first HTTP error from a domain,
// remaining documents on that domain are skipped; dead hosts are
// common in regulatory link lists and each one would otherwise cost a
// full timeout.
func (f *Fetcher) FetchMissing(docs []dataset.Document) *Result {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, doc := range docs {
		if doc.URL == "" {
			continue
		}
		if f.store.Has(doc.ID) {
			result.Skipped++
			continue
		}

		domain := ""
		if u, err := url.Parse(doc.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		content, httpErr := f.fetchContent(doc.URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s — skipping remaining from %s", doc.URL, domain)
			continue
		}

		if content == "" {
			result.Failed++
			log.Printf("No extractable content from: %s", doc.URL)
			continue
		}

		if err := f.store.Save(doc.ID, content); err != nil {
			result.Failed++
			log.Printf("Saving fulltext for document %d: %v", doc.ID, err)
			continue
		}
		result.Fetched++
		log.Printf("Fetched content for: %s", doc.Title)
	}

	log.Printf("Content fetch complete: %d fetched, %d skipped, %d failed",
		result.Fetched, result.Skipped, result.Failed)
	return result
}

func (f *Fetcher) fetchContent(docURL string) (string, error) {
	req, err := http.NewRequest("GET", docURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "regalytics/1.0 (regulatory document tracker)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(docURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minExtractedLen {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
