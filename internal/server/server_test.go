package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/query"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	docs := []dataset.Document{
		{ID: 1, Title: "AI Executive Order", Authority: "White House", Country: "United States",
			Region: "United States", Date: "2023-10-30", Sentiment: "positive", SentimentScore: 0.6},
		{ID: 2, Title: "AI Act Provisional Agreement", Authority: "European Commission", Country: "European Union",
			Region: "European Union", Date: "2023-11-15", Sentiment: "negative", SentimentScore: -0.4},
	}
	snap := dataset.NewSnapshot(docs)
	stats := &dataset.Stats{
		TotalDocuments: 2, Countries: 2, Authorities: 2,
		WithDate: 2, EarliestDate: "2023-10-30", LatestDate: "2023-11-15",
	}
	srv, err := New(snap, stats, query.NewEngine(snap))
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv
}

func TestIndexRoute(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Dataset overview") {
		t.Error("expected overview heading in response body")
	}
	if !strings.Contains(body, "<strong>Documents:</strong> 2") {
		t.Error("expected rendered markdown stats in response body")
	}
}

func TestIndexNotFound(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/nope", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestQueryAPI(t *testing.T) {
	srv := testServer(t)

	body := strings.NewReader(`{"question": "What is the sentiment by country?"}`)
	req := httptest.NewRequest("POST", "/api/query", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp query.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.QueryType != "analytical" {
		t.Errorf("expected analytical query type, got %s", resp.QueryType)
	}
	if resp.Answer == "" {
		t.Error("expected non-empty answer")
	}
}

func TestQueryAPIWithFilters(t *testing.T) {
	srv := testServer(t)

	body := strings.NewReader(`{"question": "sentiment by country", "filters": {"region": "EU"}}`)
	req := httptest.NewRequest("POST", "/api/query", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp query.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got := resp.Metadata["documents_matched"]; got != float64(1) {
		t.Errorf("expected 1 matched document, got %v", got)
	}
}

func TestQueryAPIRejectsGET(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/query", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestQueryAPIRequiresQuestion(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("POST", "/api/query", strings.NewReader(`{"question": "  "}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestOverviewAPI(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/overview", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Stats  dataset.Stats `json:"stats"`
		Report string        `json:"report"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Stats.TotalDocuments != 2 {
		t.Errorf("expected 2 documents in stats, got %d", resp.Stats.TotalDocuments)
	}
	if !strings.Contains(resp.Report, "Dataset overview") {
		t.Error("expected markdown report")
	}
}

func TestFiltersAPI(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/api/filters", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var v filterValues
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(v.Countries) != 2 || v.Countries[0] != "European Union" {
		t.Errorf("expected sorted countries, got %v", v.Countries)
	}
	if len(v.Regions) != 2 {
		t.Errorf("expected 2 regions, got %v", v.Regions)
	}
	if v.DateFrom != "2023-10-30" || v.DateTo != "2023-11-15" {
		t.Errorf("unexpected date range: %s to %s", v.DateFrom, v.DateTo)
	}
}

func TestStaticRoute(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for static asset, got %d", rec.Code)
	}
}
