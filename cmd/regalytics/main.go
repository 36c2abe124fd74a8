package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/regalytics/regalytics/internal/config"
	"github.com/regalytics/regalytics/internal/dataset"
	"github.com/regalytics/regalytics/internal/fetch"
	"github.com/regalytics/regalytics/internal/llm"
	"github.com/regalytics/regalytics/internal/pipeline"
	"github.com/regalytics/regalytics/internal/query"
	"github.com/regalytics/regalytics/internal/server"
	"github.com/regalytics/regalytics/internal/source"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "regalytics",
	Short:   "Regulatory document analytics",
	Long:    "Regalytics normalizes regulatory tracking exports into a clean dataset and answers natural-language questions about it.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("regalytics", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/regalytics/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your source CSVs and configure the assistant.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset status",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Dataset: %s\n\n", store.Path())
		fmt.Println("Documents:")
		fmt.Printf("  Total: %d\n", stats.TotalDocuments)
		fmt.Printf("  With full text: %d\n", stats.WithFulltext)
		fmt.Printf("  With date: %d\n", stats.WithDate)
		fmt.Println("\nCoverage:")
		fmt.Printf("  Countries: %d\n", stats.Countries)
		fmt.Printf("  Authorities: %d\n", stats.Authorities)
		if stats.EarliestDate != "" {
			fmt.Printf("  Dates: %s to %s\n", stats.EarliestDate, stats.LatestDate)
		}
		return nil
	},
}

// --- build command ---

var (
	dryRun       bool
	buildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dataset: load -> build -> persist -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		workers := buildWorkers
		if workers <= 0 {
			workers = cfg.Build.Workers
		}

		pipe := pipeline.New(cfg, store)

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(context.Background(), workers)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/4: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("build failed")
		}
		if !dryRun {
			fmt.Println("\nBuild complete! Run 'regalytics query' or 'regalytics serve' to explore the dataset.")
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "Override build worker count")
}

// --- fetch command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download missing full text for documents with URLs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.LoadSnapshot()
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
		if snap.Len() == 0 {
			fmt.Println("No documents in dataset. Run 'regalytics build' first.")
			return nil
		}

		fulltext := source.NewFulltextStore(cfg.Sources.FulltextDir)
		fetcher := fetch.NewFetcher(fulltext, 15*time.Second)
		result := fetcher.FetchMissing(snap.Documents())

		fmt.Println("\nFetch complete:")
		fmt.Printf("  Fetched: %d\n", result.Fetched)
		fmt.Printf("  Already present: %d\n", result.Skipped)
		fmt.Printf("  Failed: %d\n", result.Failed)
		if result.Fetched > 0 {
			fmt.Println("\nRun 'regalytics build' again to fold the new full text into the dataset.")
		}
		return nil
	},
}

// --- query command ---

var (
	queryCountry string
	queryRegion  string
	queryFrom    string
	queryTo      string
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.LoadSnapshot()
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}

		engine := newEngine(snap)
		filters := dataset.Filters{
			Country:  queryCountry,
			Region:   queryRegion,
			DateFrom: queryFrom,
			DateTo:   queryTo,
		}

		resp := engine.Query(context.Background(), args[0], filters)

		if queryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		fmt.Println(resp.Answer)
		if len(resp.Documents) > 0 {
			fmt.Println("\nRelevant documents:")
			for _, d := range resp.Documents {
				fmt.Printf("  - %s (%s", d.Title, d.Authority)
				if d.Date != "" {
					fmt.Printf(", %s", d.Date)
				}
				fmt.Println(")")
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryCountry, "country", "", "Filter by country (substring match)")
	queryCmd.Flags().StringVar(&queryRegion, "region", "", "Filter by region (substring match)")
	queryCmd.Flags().StringVar(&queryFrom, "from", "", "Only documents dated on or after (YYYY-MM-DD)")
	queryCmd.Flags().StringVar(&queryTo, "to", "", "Only documents dated on or before (YYYY-MM-DD)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the full response as JSON")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.LoadSnapshot()
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
		stats, err := store.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(snap, stats, newEngine(snap), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on")
}

// newEngine wires the query engine with whatever assistant backends
// the config makes reachable. Everything degrades to lexical retrieval
// and rule-based answers.
func newEngine(snap *dataset.Snapshot) *query.Engine {
	a := cfg.Assistant
	opts := []query.Option{
		query.WithTopK(a.TopK),
		query.WithMaxTokens(a.MaxTokens),
	}

	if provider := llm.CreateProvider(a.Provider, a.Model, a.OllamaURL, a.OpenAIModel, a.APIKeyEnv); provider != nil {
		opts = append(opts, query.WithProvider(provider))
	}
	if embedder := llm.CreateEmbedder(a.EmbeddingModel, a.OllamaURL); embedder != nil {
		retriever, err := query.NewEmbeddingRetriever(context.Background(), snap.Documents(), embedder)
		if err != nil {
			log.Printf("Embedding index failed, using lexical retrieval: %v", err)
		} else {
			opts = append(opts, query.WithRetriever(retriever))
		}
	}

	return query.NewEngine(snap, opts...)
}

func openStore() (*dataset.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return dataset.Open(filepath.Join(dataDir, "regalytics.db"))
}
