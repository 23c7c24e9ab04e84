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


package reindex

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
	"github.com/poiesic/marquee/storage"
	"github.com/poiesic/marquee/vectorindex"
)

// Index is the part of the vector index a rebuild needs.
// *vectorindex.Index satisfies it.
type Index interface {
	Build(ctx context.Context, vectors [][]float32, ids []core.ID, m, efConstruction int) error
	Save(ctx context.Context) error
}

// Stats summarizes a rebuild.
type Stats struct {
	Items   int
	Indexed int
	Skipped int
	Batches int
	Elapsed time.Duration
}

// Rebuilder orchestrates a full index rebuild.
type Rebuilder struct {
	catalog  storage.CatalogRepository
	embedder ai.Embedder
	index    Index
	config   Config
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Rebuilder.
type Option func(*Rebuilder) error

// WithConfig replaces DefaultConfig. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(r *Rebuilder) error {
		r.config = cfg
		return nil
	}
}

// WithProgress sets where progress output is written (typically os.Stderr).
// Default discards it.
func WithProgress(w io.Writer) Option {
	return func(r *Rebuilder) error {
		r.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rebuilder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a Rebuilder.
func New(catalog storage.CatalogRepository, embedder ai.Embedder, index Index, opts ...Option) (*Rebuilder, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	r := &Rebuilder{
		catalog:  catalog,
		embedder: embedder,
		index:    index,
		config:   DefaultConfig(),
		progress: io.Discard,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.config = r.config.withDefaults()
	if r.progress == nil {
		r.progress = io.Discard
	}
	r.logger = r.logger.With("component", "reindex")
	return r, nil
}

// Run embeds every catalog item, builds a new graph, swaps it in and saves
// it. An index without a snapshot store is rebuilt but not saved. On error
// the active graph is left as it was.
func (r *Rebuilder) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	defer metrics.ObserveStage("rebuild", start)

	total, err := r.catalog.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count catalog: %w", err)
	}
	fmt.Fprintf(r.progress, "Starting index rebuild of %d items (batch size: %d, workers: %d)\n",
		total, r.config.BatchSize, r.config.PoolSize)

	ids, vectors, stats, err := r.embedAll(ctx, total)
	if err != nil {
		return stats, err
	}

	if err := r.index.Build(ctx, vectors, ids, r.config.M, r.config.EfConstruction); err != nil {
		return stats, fmt.Errorf("failed to build index: %w", err)
	}

	switch err := r.index.Save(ctx); {
	case errors.Is(err, vectorindex.ErrSnapshotStoreRequired):
		r.logger.Warn("index has no snapshot store, rebuilt graph not persisted")
	case err != nil:
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	fmt.Fprintf(r.progress, "Index rebuild complete. Indexed %d items in %v (%.1f items/s)\n",
		stats.Indexed, stats.Elapsed.Round(time.Millisecond), float64(stats.Indexed)/stats.Elapsed.Seconds())
	r.logger.Info("index rebuilt",
		"items", stats.Items,
		"indexed", stats.Indexed,
		"skipped", stats.Skipped,
		"batches", stats.Batches,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// embedAll streams the catalog into batches and embeds them on a worker
// pool. The first failing batch cancels the rest. Results are returned in
// catalog order.
func (r *Rebuilder) embedAll(ctx context.Context, total int) ([]core.ID, [][]float32, Stats, error) {
	var stats Stats

	pool, err := ants.NewPool(r.config.PoolSize)
	if err != nil {
		return nil, nil, stats, err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracker := newProgress(r.progress, total, r.config.ReportInterval)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []batchResult
	)
	submit := func(b batch) error {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			vectors, err := r.embedBatch(ctx, b)
			if err != nil {
				cancel(err)
				return
			}
			mu.Lock()
			results = append(results, batchResult{seq: b.seq, ids: b.ids, vectors: vectors})
			mu.Unlock()
			tracker.add(len(b.ids))
		})
		if err != nil {
			wg.Done()
		}
		return err
	}

	var current batch
	flush := func() error {
		if len(current.ids) == 0 {
			return nil
		}
		current.seq = stats.Batches
		stats.Batches++
		b := current
		current = batch{}
		return submit(b)
	}

	iterErr := r.catalog.ForEach(ctx, func(c *core.Candidate) error {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		stats.Items++
		text := DocumentText(c)
		if !embeddable(text) {
			r.logger.Debug("skipping item without embeddable text", "id", c.Id, "title", c.Title)
			stats.Skipped++
			tracker.add(1)
			return nil
		}
		current.ids = append(current.ids, c.Id)
		current.texts = append(current.texts, text)
		if len(current.ids) >= r.config.BatchSize {
			return flush()
		}
		return nil
	})
	if iterErr == nil {
		iterErr = flush()
	}
	wg.Wait()

	if cause := context.Cause(ctx); cause != nil {
		return nil, nil, stats, cause
	}
	if iterErr != nil {
		return nil, nil, stats, fmt.Errorf("failed to read catalog: %w", iterErr)
	}
	tracker.finish()

	slices.SortFunc(results, func(a, b batchResult) int { return cmp.Compare(a.seq, b.seq) })
	var (
		ids     []core.ID
		vectors [][]float32
	)
	for _, res := range results {
		ids = append(ids, res.ids...)
		vectors = append(vectors, res.vectors...)
	}
	stats.Indexed = len(ids)
	return ids, vectors, stats, nil
}
