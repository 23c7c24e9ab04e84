// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/marquee"
	"github.com/poiesic/marquee/config"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "marquee",
		Usage: "Semantic movie and TV search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"MARQUEE_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this file on exit (textfile collector format)",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
		},
		Before: setupLogger,
		After:  writeMetrics,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the catalog with a natural language query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:  "genre",
						Usage: "Require a genre (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "exclude-genre",
						Usage: "Exclude a genre (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "language",
						Usage: "Restrict to an ISO 639-1 language (repeatable)",
					},
					&cli.IntFlag{
						Name:  "year-min",
						Usage: "Earliest release year",
					},
					&cli.IntFlag{
						Name:  "year-max",
						Usage: "Latest release year",
					},
					&cli.Float64Flag{
						Name:  "min-rating",
						Usage: "Minimum rating on a 0-10 scale",
					},
					&cli.BoolFlag{
						Name:  "no-rerank",
						Usage: "Skip the LLM re-ranking stage",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the full response as JSON",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Log each pipeline stage",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import catalog items from a JSON array or JSON lines file",
				ArgsUsage: "<file|->",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items written per batch",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "rebuild",
						Usage: "Rebuild the vector index after importing",
					},
				},
			},
			{
				Name:   "build-index",
				Usage:  "Embed the catalog and rebuild the vector index",
				Action: buildIndexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to embed per request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding requests",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:   "index-info",
				Usage:  "Show the state of the vector index",
				Action: indexInfoCommand,
			},
			{
				Name:   "clear-cache",
				Usage:  "Drop cached query parses and re-rankings",
				Action: clearCacheCommand,
			},
		},
	}
}

// loadConfig reads --config when given and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if !c.IsSet("log-level") && cfg.Logging.Level != "" {
		if err := configureLogger(c.App.ErrWriter, cfg.Logging.Level); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func openEngine(c *cli.Context, cfg config.Config) (*marquee.Engine, error) {
	engine, err := marquee.Open(c.Context,
		marquee.WithConfig(cfg),
		marquee.WithProgress(c.App.ErrWriter),
		marquee.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("no-rerank") {
		cfg.Search.Rerank = false
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	filters := constraintsFromFlags(c)

	var resp *core.SearchResponse
	if c.Bool("trace") {
		resp, err = engine.SearchWithMonitor(c.Context, query, c.Int("limit"), filters, search.NewLogMonitor(slog.Default()))
	} else {
		resp, err = engine.Search(c.Context, query, c.Int("limit"), filters)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResults(c.App.Writer, resp)
	return nil
}

// constraintsFromFlags returns nil when no filter flag is set.
func constraintsFromFlags(c *cli.Context) *core.QueryConstraints {
	var qc core.QueryConstraints
	set := false
	if v := c.StringSlice("genre"); len(v) > 0 {
		qc.Genres, set = v, true
	}
	if v := c.StringSlice("exclude-genre"); len(v) > 0 {
		qc.ExcludeGenres, set = v, true
	}
	if v := c.StringSlice("language"); len(v) > 0 {
		qc.Languages, set = v, true
	}
	if c.IsSet("year-min") {
		qc.YearMin, set = core.IntPtr(c.Int("year-min")), true
	}
	if c.IsSet("year-max") {
		qc.YearMax, set = core.IntPtr(c.Int("year-max")), true
	}
	if c.IsSet("min-rating") {
		qc.RatingMin, set = core.FloatPtr(c.Float64("min-rating")), true
	}
	if !set {
		return nil
	}
	return &qc
}

func printResults(w io.Writer, resp *core.SearchResponse) {
	fmt.Fprintf(w, "Found %d results (request %s)\n", resp.Count, resp.RequestID)
	for i, r := range resp.Results {
		year := "N/A"
		if r.ReleaseYear > 0 {
			year = fmt.Sprint(r.ReleaseYear)
		}
		fmt.Fprintf(w, "%d: %s (%s) [%0.3f]\n", i+1, r.Title, year, r.RelevanceScore)
		if r.MatchExplanation != "" {
			fmt.Fprintf(w, "   %s\n", r.MatchExplanation)
		}
	}
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("input file is required (use - for stdin)")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("batch-size") {
		if c.Int("batch-size") <= 0 {
			return fmt.Errorf("batch-size must be greater than 0")
		}
		cfg.Import.BatchSize = c.Int("batch-size")
	}

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Import(c.Context, r)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d of %d items (%d invalid) in %s\n",
		stats.Imported, stats.Read, stats.Invalid, stats.Elapsed.Round(time.Millisecond))

	if c.Bool("rebuild") {
		return rebuild(c.Context, c.App.Writer, engine)
	}
	return nil
}

func buildIndexCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	for _, name := range []string{"batch-size", "pool-size", "max-retries"} {
		if c.Int(name) <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
	}
	cfg.Reindex.BatchSize = c.Int("batch-size")
	cfg.Reindex.PoolSize = c.Int("pool-size")
	cfg.Reindex.MaxRetries = c.Int("max-retries")
	cfg.Reindex.RetryDelay = c.Duration("retry-delay")

	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.ProviderConfig().EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	return rebuild(c.Context, c.App.Writer, engine)
}

func rebuild(ctx context.Context, w io.Writer, engine *marquee.Engine) error {
	stats, err := engine.RebuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("index rebuild failed: %w", err)
	}
	fmt.Fprintf(w, "Indexed %d of %d items (%d skipped) in %s\n",
		stats.Indexed, stats.Items, stats.Skipped, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func indexInfoCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	count, err := engine.Catalog().Count(c.Context)
	if err != nil {
		return err
	}

	info := engine.IndexInfo()
	w := c.App.Writer
	fmt.Fprintf(w, "Catalog items:   %d\n", count)
	if !info.Initialized {
		fmt.Fprintln(w, "Index:           not built")
		return nil
	}
	fmt.Fprintf(w, "Indexed vectors: %d\n", info.Size)
	fmt.Fprintf(w, "Dimension:       %d\n", info.Dimension)
	fmt.Fprintf(w, "M:               %d\n", info.M)
	fmt.Fprintf(w, "efConstruction:  %d\n", info.EfConstruction)
	fmt.Fprintf(w, "Max level:       %d\n", info.MaxLevel)
	return nil
}

func clearCacheCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	engine, err := openEngine(c, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	n, err := engine.ClearCaches(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d cache entries\n", n)
	return nil
}

// writeMetrics dumps the default registry for node_exporter's textfile
// collector.
func writeMetrics(c *cli.Context) error {
	path := c.String("metrics-file")
	if path == "" {
		return nil
	}
	metrics.Register()
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	return configureLogger(c.App.ErrWriter, c.String("log-level"))
}

func configureLogger(w io.Writer, levelStr string) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
