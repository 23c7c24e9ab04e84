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


package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/metrics"
)

// SnapshotStore persists the two index blobs as a pair.
type SnapshotStore interface {
	// SaveSnapshot stores both blobs, replacing any previous snapshot.
	SaveSnapshot(ctx context.Context, graphBlob, idBlob []byte) error

	// LoadSnapshot returns both blobs or ErrSnapshotNotFound.
	LoadSnapshot(ctx context.Context) (graphBlob, idBlob []byte, err error)
}

// Info describes the active graph.
type Info struct {
	Initialized    bool
	Size           int
	Dimension      int
	M              int
	EfConstruction int
	MaxLevel       int
}

// Index is a concurrency-safe HNSW index with build-then-swap updates.
type Index struct {
	active atomic.Pointer[graph]
	dim    int
	seed   uint64
	store  SnapshotStore
	logger *slog.Logger
}

type Option func(*Index) error

// WithDimension fixes the vector width. Builds and loads with a different
// width are rejected.
func WithDimension(dim int) Option {
	return func(x *Index) error {
		if dim <= 0 {
			return ErrInvalidDimension
		}
		x.dim = dim
		return nil
	}
}

// WithSnapshotStore sets where Save and Load persist the graph.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(x *Index) error {
		x.store = store
		return nil
	}
}

// WithSeed sets the level generator seed used by Build.
func WithSeed(seed uint64) Option {
	return func(x *Index) error {
		x.seed = seed
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) error {
		x.logger = logger
		return nil
	}
}

// New creates an empty index. Search fails with ErrNotInitialized until
// Build or Load succeeds.
func New(opts ...Option) (*Index, error) {
	x := &Index{seed: 42}
	for _, opt := range opts {
		if err := opt(x); err != nil {
			return nil, err
		}
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	x.logger = x.logger.With("component", "vector-index")
	return x, nil
}

// Build constructs a new graph from vectors and atomically replaces the
// active one. Vectors are normalized on the way in; the caller's slices are
// not modified. Zero m or efConstruction selects the defaults.
func (x *Index) Build(ctx context.Context, vectors [][]float32, ids []core.ID, m, efConstruction int) error {
	if len(vectors) != len(ids) {
		return fmt.Errorf("%w: %d vectors, %d ids", ErrLengthMismatch, len(vectors), len(ids))
	}
	if m <= 1 {
		m = DefaultM
	}
	if efConstruction <= 0 {
		efConstruction = DefaultEfConstruction
	}

	dim := x.dim
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		normalized[i] = normalize(v)
	}

	start := time.Now()
	g, err := buildGraph(ctx, normalized, ids, dim, m, efConstruction, x.seed)
	if err != nil {
		return err
	}

	x.swap(g)
	x.logger.Info("index built",
		"size", g.size(),
		"dimension", dim,
		"m", m,
		"efConstruction", efConstruction,
		"maxLevel", g.maxLevel,
		"elapsed", time.Since(start))
	return nil
}

// Search returns up to k matches ordered by descending similarity, ties
// broken by insertion order. Zero efSearch selects the default.
func (x *Index) Search(query []float32, k, efSearch int) ([]core.SimilarityMatch, error) {
	g := x.active.Load()
	if g == nil {
		return nil, ErrNotInitialized
	}
	if g.dim != 0 && len(query) != g.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), g.dim)
	}
	if g.size() == 0 {
		return []core.SimilarityMatch{}, nil
	}
	if efSearch <= 0 {
		efSearch = DefaultEfSearch
	}

	found := g.search(normalize(query), k, efSearch)
	matches := make([]core.SimilarityMatch, len(found))
	for i, s := range found {
		matches[i] = core.SimilarityMatch{Id: g.ids[s.node], Score: s.sim}
	}
	return matches, nil
}

// Save persists the active graph through the snapshot store.
func (x *Index) Save(ctx context.Context) error {
	if x.store == nil {
		return ErrSnapshotStoreRequired
	}
	g := x.active.Load()
	if g == nil {
		return ErrNotInitialized
	}

	graphBlob, idBlob := encodeGraph(g), encodeIDs(g)
	if err := x.store.SaveSnapshot(ctx, graphBlob, idBlob); err != nil {
		return fmt.Errorf("save index snapshot: %w", err)
	}
	x.logger.Info("index saved", "size", g.size(), "graphBytes", len(graphBlob), "idBytes", len(idBlob))
	return nil
}

// Load restores a snapshot. Both blobs are validated before the graph is
// swapped in. A missing snapshot returns ErrSnapshotNotFound and leaves the
// index untouched; any other failure clears the index.
func (x *Index) Load(ctx context.Context) error {
	if x.store == nil {
		return ErrSnapshotStoreRequired
	}

	graphBlob, idBlob, err := x.store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	g, err := decodeSnapshot(graphBlob, idBlob)
	if err == nil && x.dim != 0 && g.dim != x.dim {
		err = fmt.Errorf("%w: snapshot dimension %d, index dimension %d", ErrValidation, g.dim, x.dim)
	}
	if err != nil {
		x.Clear()
		x.logger.Error("index snapshot rejected", "err", err)
		return err
	}

	x.swap(g)
	x.logger.Info("index loaded", "size", g.size(), "dimension", g.dim)
	return nil
}

// Size returns the number of vectors in the active graph.
func (x *Index) Size() int {
	if g := x.active.Load(); g != nil {
		return g.size()
	}
	return 0
}

// Dimension returns the active graph's dimension, or the configured one.
func (x *Index) Dimension() int {
	if g := x.active.Load(); g != nil {
		return g.dim
	}
	return x.dim
}

// Info describes the active graph.
func (x *Index) Info() Info {
	g := x.active.Load()
	if g == nil {
		return Info{Dimension: x.dim}
	}
	return Info{
		Initialized:    true,
		Size:           g.size(),
		Dimension:      g.dim,
		M:              g.m,
		EfConstruction: g.efConstruction,
		MaxLevel:       g.maxLevel,
	}
}

// Clear drops the active graph.
func (x *Index) Clear() {
	x.active.Store(nil)
	metrics.IndexSize.Set(0)
}

func (x *Index) swap(g *graph) {
	x.active.Store(g)
	metrics.IndexSize.Set(float64(g.size()))
}
