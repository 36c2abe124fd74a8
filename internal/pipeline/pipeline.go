// Package pipeline orchestrates the dataset build: load sources,
// assemble canonical documents, persist them and export the CSV.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/regalytics/regalytics/internal/config"
	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/source"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps     []StepResult
	Documents []dataset.Document
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline runs the 4-step dataset build.
type Pipeline struct {
	cfg   *config.Config
	store *dataset.Store
}

// New creates a pipeline writing into the given store.
func New(cfg *config.Config, store *dataset.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: store}
}

func (p *Pipeline) csvPath() string {
	return filepath.Join(p.cfg.GetDataDir(), p.cfg.Output.DatasetCSV)
}

// Run executes the full pipeline: load, build, persist, export.
func (p *Pipeline) Run(ctx context.Context, workers int) *Result {
	r := &Result{}

	table, directory, fulltext, step := p.runLoad()
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	step = p.runBuild(ctx, table, directory, fulltext, workers, r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	step = p.runPersist(r.Documents)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runExport(r.Documents))
	return r
}

// DryRun reports what a build would do without writing anything.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	table, err := source.ReadTable(p.cfg.Sources.Documents)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	directory, err := source.LoadAuthorityDirectory(p.cfg.Sources.Authorities)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Load", Err: err})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("[dry-run] %d source rows, %d known authorities", len(table.Rows), directory.Len()),
	})

	r.Steps = append(r.Steps, StepResult{
		Name: "Build",
		Summary: fmt.Sprintf("[dry-run] would build up to %d documents (%d risk columns, %d harm columns)",
			len(table.Rows), len(table.ColumnsWithPrefix("risk factors")), len(table.ColumnsWithPrefix("harms"))),
	})

	if stats, err := p.store.GetStats(); err == nil {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Persist",
			Summary: fmt.Sprintf("[dry-run] would replace %d stored documents", stats.TotalDocuments),
		})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Persist",
			Summary: "[dry-run] would write a fresh dataset",
		})
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] would write %s", p.csvPath()),
	})
	return r
}

func (p *Pipeline) runLoad() (*source.Table, *source.AuthorityDirectory, *source.FulltextStore, StepResult) {
	log.Println("Step 1/4: Loading sources...")

	table, err := source.ReadTable(p.cfg.Sources.Documents)
	if err != nil {
		return nil, nil, nil, StepResult{Name: "Load", Err: fmt.Errorf("reading documents: %w", err)}
	}
	directory, err := source.LoadAuthorityDirectory(p.cfg.Sources.Authorities)
	if err != nil {
		return nil, nil, nil, StepResult{Name: "Load", Err: fmt.Errorf("reading authorities: %w", err)}
	}
	fulltext := source.NewFulltextStore(p.cfg.Sources.FulltextDir)

	return table, directory, fulltext, StepResult{
		Name:    "Load",
		Summary: fmt.Sprintf("Loaded %d source rows, %d known authorities", len(table.Rows), directory.Len()),
	}
}

func (p *Pipeline) runBuild(ctx context.Context, table *source.Table, directory *source.AuthorityDirectory, fulltext *source.FulltextStore, workers int, r *Result) StepResult {
	log.Println("Step 2/4: Building documents...")

	builder := dataset.NewBuilder(directory, fulltext, workers)
	docs, report := builder.Build(ctx, table)
	r.Documents = docs

	return StepResult{
		Name: "Build",
		Summary: fmt.Sprintf("Built %d documents from %d rows (%d skipped, %d degraded)",
			report.Built, report.TotalRows, report.Skipped, report.Degraded),
	}
}

func (p *Pipeline) runPersist(docs []dataset.Document) StepResult {
	log.Println("Step 3/4: Persisting dataset...")

	if err := p.store.Replace(docs); err != nil {
		return StepResult{Name: "Persist", Err: err}
	}
	return StepResult{
		Name:    "Persist",
		Summary: fmt.Sprintf("Stored %d documents in %s", len(docs), p.store.Path()),
	}
}

func (p *Pipeline) runExport(docs []dataset.Document) StepResult {
	log.Println("Step 4/4: Exporting CSV...")

	path := p.csvPath()
	if err := dataset.ExportCSV(path, docs); err != nil {
		return StepResult{Name: "Export", Err: err}
	}
	return StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d rows to %s", len(docs), path),
	}
}
