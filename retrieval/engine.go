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


package retrieval

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/filter"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/storage"
	"github.com/poiesic/marquee/vectorindex"
)

// VectorSearcher is the part of the vector index used for retrieval.
// *vectorindex.Index satisfies it.
type VectorSearcher interface {
	Search(query []float32, k, efSearch int) ([]core.SimilarityMatch, error)
}

// Engine retrieves candidates for parsed queries.
type Engine struct {
	embedder ai.Embedder
	index    VectorSearcher
	catalog  storage.CatalogRepository
	filter   *filter.Engine
	efSearch int
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithFilter replaces the constraint filter engine.
func WithFilter(f *filter.Engine) Option {
	return func(e *Engine) error {
		e.filter = f
		return nil
	}
}

// WithEfSearch sets the search-time candidate list size.
// Zero uses the index default.
func WithEfSearch(ef int) Option {
	return func(e *Engine) error {
		e.efSearch = ef
		return nil
	}
}

// New creates a retrieval engine.
func New(embedder ai.Embedder, index VectorSearcher, catalog storage.CatalogRepository, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	e := &Engine{
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "retrieval")
	if e.filter == nil {
		e.filter = filter.New(filter.WithLogger(e.logger))
	}
	return e, nil
}

// Retrieve returns candidates for q ordered by descending similarity.
// The returned candidates are fresh copies owned by the caller.
func (e *Engine) Retrieve(ctx context.Context, q *core.ParsedQuery, cfg Config) ([]*core.Candidate, error) {
	if q == nil {
		return nil, ErrQueryRequired
	}
	cfg = cfg.withDefaults()

	start := time.Now()
	text := BuildQueryText(q)
	vector, err := e.embedder.EmbedText(ctx, text)
	metrics.ObserveStage("embedding", start)
	if err != nil {
		e.logger.Error("error embedding query", "err", err)
		return nil, &RetrievalError{Stage: StageEmbedding, Err: err}
	}

	start = time.Now()
	matches, err := e.index.Search(vector, cfg.TopK, e.efSearch)
	metrics.ObserveStage("vector_search", start)
	if errors.Is(err, vectorindex.ErrNotInitialized) {
		e.logger.Warn("vector index not initialized, no candidates available")
		return []*core.Candidate{}, nil
	}
	if err != nil {
		e.logger.Error("error searching vector index", "err", err)
		return nil, &RetrievalError{Stage: StageVectorSearch, Err: err}
	}

	scores := make(map[core.ID]float64, len(matches))
	rank := make(map[core.ID]int, len(matches))
	ids := make([]core.ID, 0, len(matches))
	for _, m := range matches {
		if float64(m.Score) < cfg.MinSimilarity {
			continue
		}
		if _, seen := scores[m.Id]; seen {
			continue
		}
		scores[m.Id] = float64(m.Score)
		rank[m.Id] = len(ids)
		ids = append(ids, m.Id)
	}
	if len(ids) == 0 {
		e.logger.Debug("no vector matches", "topK", cfg.TopK, "minSimilarity", cfg.MinSimilarity)
		return []*core.Candidate{}, nil
	}

	start = time.Now()
	records, err := e.catalog.GetCandidates(ctx, ids...)
	metrics.ObserveStage("enrichment", start)
	if err != nil {
		e.logger.Error("error loading catalog records", "count", len(ids), "err", err)
		return nil, &RetrievalError{Stage: StageEnrichment, Err: err}
	}
	if missing := len(ids) - len(records); missing > 0 {
		e.logger.Warn("indexed items missing from catalog", "missing", missing)
	}

	candidates := make([]*core.Candidate, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		c := r.Clone()
		c.SimilarityScore = scores[c.Id]
		candidates = append(candidates, c)
	}
	slices.SortFunc(candidates, func(a, b *core.Candidate) int {
		if c := cmp.Compare(b.SimilarityScore, a.SimilarityScore); c != 0 {
			return c
		}
		return cmp.Compare(rank[a.Id], rank[b.Id])
	})

	if !cfg.IncludeAdult {
		candidates = slices.DeleteFunc(candidates, func(c *core.Candidate) bool { return c.Adult })
	}

	if cfg.ApplyFilters {
		constraints := q.Constraints
		constraints.AdultContent = constraints.AdultContent || cfg.IncludeAdult
		before := len(candidates)
		candidates = e.filter.Apply(candidates, &constraints)
		e.logger.Debug("applied filters", "before", before, "after", len(candidates))
	}

	if len(candidates) > cfg.MaxResults {
		candidates = candidates[:cfg.MaxResults]
	}

	e.logger.Debug("retrieved candidates", "matches", len(matches), "returned", len(candidates))
	return candidates, nil
}
