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


package marquee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/ai/openai"
	"github.com/poiesic/marquee/cache"
	"github.com/poiesic/marquee/config"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/filter"
	"github.com/poiesic/marquee/ingestion"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/parser"
	"github.com/poiesic/marquee/reindex"
	"github.com/poiesic/marquee/rerank"
	"github.com/poiesic/marquee/retrieval"
	"github.com/poiesic/marquee/scoring"
	"github.com/poiesic/marquee/search"
	"github.com/poiesic/marquee/storage"
	"github.com/poiesic/marquee/storage/badger"
	"github.com/poiesic/marquee/vectorindex"
	goredis "github.com/redis/go-redis/v9"
)

// Engine owns the catalog, the vector index and the query pipeline.
type Engine struct {
	repos     *badger.Repositories
	index     *vectorindex.Index
	provider  ai.Provider
	store     cache.Store
	redis     *goredis.Client
	parser    *parser.Parser
	reranker  *rerank.Reranker
	searcher  *search.Searcher
	rebuilder *reindex.Rebuilder
	importer  *ingestion.Importer
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	config   config.Config
	provider ai.Provider
	progress io.Writer
	logger   *slog.Logger
}

// WithConfig replaces config.Default().
func WithConfig(cfg config.Config) EngineOption {
	return func(o *engineOptions) {
		o.config = cfg
	}
}

// WithProvider supplies the model provider instead of building one from the
// ai section of the config. The engine closes it on Close.
func WithProvider(p ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithProgress sets where index rebuild progress is written.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open opens the catalog database, restores the last index snapshot and
// assembles the query pipeline. A missing or unreadable snapshot is not
// fatal: searches return no results until RebuildIndex runs.
func Open(ctx context.Context, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{config: config.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := options.logger
	metrics.Register()

	repos, err := badger.OpenRepositories(cfg.Storage.Path, cfg.Storage.InMemory, badger.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	e := &Engine{repos: repos, logger: logger.With("component", "engine")}

	if err := e.init(ctx, cfg, options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(ctx context.Context, cfg config.Config, options *engineOptions) error {
	logger := options.logger

	snapshots := e.repos.Snapshots
	if cfg.Storage.SnapshotDir != "" {
		fs, err := vectorindex.NewFileStore(cfg.Storage.SnapshotDir)
		if err != nil {
			return err
		}
		snapshots = fs
	}

	indexOpts := []vectorindex.Option{
		vectorindex.WithSnapshotStore(snapshots),
		vectorindex.WithSeed(cfg.Index.Seed),
		vectorindex.WithLogger(logger),
	}
	if cfg.Index.Dimension > 0 {
		indexOpts = append(indexOpts, vectorindex.WithDimension(cfg.Index.Dimension))
	}
	index, err := vectorindex.New(indexOpts...)
	if err != nil {
		return err
	}
	e.index = index

	switch err := index.Load(ctx); {
	case err == nil:
	case errors.Is(err, vectorindex.ErrSnapshotNotFound):
		e.logger.Info("no index snapshot found, rebuild required")
	default:
		e.logger.Warn("index snapshot unusable, rebuild required", "err", err)
	}

	e.provider = options.provider
	if e.provider == nil {
		provider, err := openai.NewProvider(cfg.ProviderConfig())
		if err != nil {
			return err
		}
		e.provider = provider
	}

	if err := e.openCache(ctx, cfg.Cache); err != nil {
		return err
	}

	parserOpts := []parser.Option{
		parser.WithFallback(cfg.Parser.Fallback),
		parser.WithLogger(logger),
	}
	rerankOpts := []rerank.Option{
		rerank.WithTemperature(cfg.Rerank.Temperature),
		rerank.WithLogger(logger),
	}
	if e.store != nil {
		parserOpts = append(parserOpts, parser.WithCache(e.store, cfg.Parser.CacheTTL))
		rerankOpts = append(rerankOpts, rerank.WithCache(e.store, cfg.Rerank.CacheTTL))
	}
	e.parser = parser.New(e.provider.LLM(), parserOpts...)
	e.reranker = rerank.New(e.provider.LLM(), rerankOpts...)

	retriever, err := retrieval.New(e.provider.Embedder(), index, e.repos.Catalog,
		retrieval.WithFilter(filter.New(filter.WithLogger(logger))),
		retrieval.WithEfSearch(cfg.Index.EfSearch),
		retrieval.WithLogger(logger))
	if err != nil {
		return err
	}

	e.searcher, err = search.NewSearcher(e.parser, retriever,
		search.WithReranker(e.reranker),
		search.WithScorer(scoring.New(scoring.WithLogger(logger))),
		search.WithConfig(cfg.Search),
		search.WithLogger(logger))
	if err != nil {
		return err
	}

	e.rebuilder, err = reindex.New(e.repos.Catalog, e.provider.Embedder(), index,
		reindex.WithConfig(cfg.Reindex),
		reindex.WithProgress(options.progress),
		reindex.WithLogger(logger))
	if err != nil {
		return err
	}

	e.importer, err = ingestion.NewImporter(e.repos.Catalog,
		ingestion.WithBatchSize(cfg.Import.BatchSize),
		ingestion.WithLogger(logger))
	return err
}

func (e *Engine) openCache(ctx context.Context, cfg config.CacheConfig) error {
	switch cfg.Backend {
	case config.CacheMemory:
		e.store = cache.NewMemoryStore()
	case config.CacheBadger:
		e.store = e.repos.Cache
	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		e.redis = client
		store, err := cache.NewRedisStore(client, cfg.Namespace)
		if err != nil {
			return err
		}
		e.store = store
	case config.CacheNone:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", config.ErrInvalid, cfg.Backend)
	}
	return nil
}

// Close releases the provider, the cache connection and the database.
func (e *Engine) Close() error {
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Error("error closing cache connection", "err", err)
		}
	}
	if err := e.repos.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Search runs the full query pipeline. filters may be nil.
func (e *Engine) Search(ctx context.Context, query string, limit int, filters *core.QueryConstraints) (*core.SearchResponse, error) {
	return e.searcher.Search(ctx, query, limit, filters)
}

// SearchWithMonitor is Search with per-stage callbacks.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, limit int, filters *core.QueryConstraints, monitor search.SearchMonitor) (*core.SearchResponse, error) {
	return e.searcher.SearchWithMonitor(ctx, query, limit, filters, monitor)
}

// RebuildIndex re-embeds the catalog and swaps in a new graph.
func (e *Engine) RebuildIndex(ctx context.Context) (reindex.Stats, error) {
	return e.rebuilder.Run(ctx)
}

// Import upserts catalog items read from r. The index is not rebuilt.
func (e *Engine) Import(ctx context.Context, r io.Reader) (ingestion.ImportStats, error) {
	return e.importer.Import(ctx, r)
}

// IndexInfo describes the active graph.
func (e *Engine) IndexInfo() vectorindex.Info {
	return e.index.Info()
}

// ClearCaches drops cached parses and re-rankings and returns the number of
// entries removed.
func (e *Engine) ClearCaches(ctx context.Context) (int, error) {
	parsed, err := e.parser.Clear(ctx)
	if err != nil {
		return 0, err
	}
	reranked, err := e.reranker.Clear(ctx)
	return parsed + reranked, err
}

// Catalog returns the catalog repository.
func (e *Engine) Catalog() storage.CatalogRepository {
	return e.repos.Catalog
}
