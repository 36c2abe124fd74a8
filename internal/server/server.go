// Package server exposes the dataset over HTTP: an HTML overview page
// and a small JSON API for queries and filter values.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/query"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server serves the dataset overview and query API.
type Server struct {
	snap   *dataset.Snapshot
	stats  *dataset.Stats
	engine *query.Engine
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server over a loaded snapshot.
func New(snap *dataset.Snapshot, stats *dataset.Stats, engine *query.Engine) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{snap: snap, stats: stats, engine: engine, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/query", s.handleQuery)
	s.mux.HandleFunc("/api/overview", s.handleOverview)
	s.mux.HandleFunc("/api/filters", s.handleFilters)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Stats":    s.stats,
		"Overview": s.overviewMarkdown(),
	})
}

// queryRequest is the POST /api/query body.
type queryRequest struct {
	Question string          `json:"question"`
	Filters  dataset.Filters `json:"filters"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	resp := s.engine.Query(r.Context(), req.Question, req.Filters)
	writeJSON(w, resp)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"stats":  s.stats,
		"report": s.overviewMarkdown(),
	})
}

// filterValues lists the distinct values the UI can filter on.
type filterValues struct {
	Countries []string `json:"countries"`
	Regions   []string `json:"regions"`
	DateFrom  string   `json:"date_from,omitempty"`
	DateTo    string   `json:"date_to,omitempty"`
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	countries := make(map[string]struct{})
	regions := make(map[string]struct{})
	var v filterValues
	for _, d := range s.snap.Documents() {
		if d.Country != "" {
			countries[d.Country] = struct{}{}
		}
		if d.Region != "" {
			regions[d.Region] = struct{}{}
		}
		if d.Date != "" {
			if v.DateFrom == "" || d.Date < v.DateFrom {
				v.DateFrom = d.Date
			}
			if d.Date > v.DateTo {
				v.DateTo = d.Date
			}
		}
	}
	v.Countries = sortedKeys(countries)
	v.Regions = sortedKeys(regions)
	writeJSON(w, v)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// overviewMarkdown builds the dataset report rendered on the index
// page and returned by /api/overview.
func (s *Server) overviewMarkdown() string {
	var b strings.Builder
	b.WriteString("## Dataset overview\n\n")
	fmt.Fprintf(&b, "- **Documents:** %d\n", s.stats.TotalDocuments)
	fmt.Fprintf(&b, "- **Countries:** %d\n", s.stats.Countries)
	fmt.Fprintf(&b, "- **Authorities:** %d\n", s.stats.Authorities)
	fmt.Fprintf(&b, "- **With full text:** %d\n", s.stats.WithFulltext)
	if s.stats.EarliestDate != "" {
		fmt.Fprintf(&b, "- **Coverage:** %s to %s\n", s.stats.EarliestDate, s.stats.LatestDate)
	}
	return b.String()
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(snap *dataset.Snapshot, stats *dataset.Stats, engine *query.Engine, port int) error {
	srv, err := New(snap, stats, engine)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
