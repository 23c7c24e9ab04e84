package vectorindex

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVectors(n, dim int, seed uint64) ([][]float32, []core.ID) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	vectors := make([][]float32, n)
	ids := make([]core.ID, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vectors[i] = v
		ids[i] = core.ID(1000 + i)
	}
	return vectors, ids
}

func bruteForce(vectors [][]float32, ids []core.ID, query []float32, k int) []core.ID {
	q := normalize(query)
	all := make([]scored, len(vectors))
	for i, v := range vectors {
		all[i] = scored{node: int32(i), sim: dot(q, normalize(v))}
	}
	slices.SortFunc(all, compareScored)

	out := make([]core.ID, 0, k)
	for _, s := range all[:k] {
		out = append(out, ids[s.node])
	}
	return out
}

func TestIndex_NotInitialized(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, 0, idx.Size())
	assert.False(t, idx.Info().Initialized)
}

func TestIndex_Build(t *testing.T) {
	ctx := context.Background()

	t.Run("length mismatch", func(t *testing.T) {
		idx, _ := New()
		err := idx.Build(ctx, [][]float32{{1, 0}}, []core.ID{1, 2}, 0, 0)
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		idx, _ := New(WithDimension(3))
		err := idx.Build(ctx, [][]float32{{1, 0}}, []core.ID{1}, 0, 0)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("ragged vectors", func(t *testing.T) {
		idx, _ := New()
		err := idx.Build(ctx, [][]float32{{1, 0}, {1, 0, 0}}, []core.ID{1, 2}, 0, 0)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("invalid dimension option", func(t *testing.T) {
		_, err := New(WithDimension(0))
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("empty build searches empty", func(t *testing.T) {
		idx, _ := New()
		require.NoError(t, idx.Build(ctx, nil, nil, 0, 0))

		matches, err := idx.Search([]float32{1, 0}, 5, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("canceled context", func(t *testing.T) {
		idx, _ := New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		vectors, ids := randomVectors(10, 4, 1)
		err := idx.Build(cctx, vectors, ids, 0, 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, idx.Info().Initialized, "failed build must not swap")
	})

	t.Run("does not modify input", func(t *testing.T) {
		idx, _ := New()
		vectors := [][]float32{{3, 4}}
		require.NoError(t, idx.Build(ctx, vectors, []core.ID{1}, 0, 0))
		assert.Equal(t, []float32{3, 4}, vectors[0])
	})
}

func TestIndex_SelfMatch(t *testing.T) {
	vectors, ids := randomVectors(400, 16, 7)
	idx, err := New(WithDimension(16))
	require.NoError(t, err)
	require.NoError(t, idx.Build(context.Background(), vectors, ids, 0, 0))
	assert.Equal(t, 400, idx.Size())

	for i := 0; i < 50; i++ {
		matches, err := idx.Search(vectors[i], 10, 0)
		require.NoError(t, err)
		require.Len(t, matches, 10)
		assert.Equal(t, ids[i], matches[0].Id, "query %d", i)
		assert.GreaterOrEqual(t, matches[0].Score, float32(0.99))
	}
}

func TestIndex_SortedDescending(t *testing.T) {
	vectors, ids := randomVectors(300, 8, 3)
	idx, _ := New()
	require.NoError(t, idx.Build(context.Background(), vectors, ids, 0, 0))

	query, _ := randomVectors(1, 8, 99)
	for _, k := range []int{5, 50, 300, 1000} {
		matches, err := idx.Search(query[0], k, 0)
		require.NoError(t, err)
		assert.Len(t, matches, min(k, 300))
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	}
}

func TestIndex_Recall(t *testing.T) {
	vectors, ids := randomVectors(1000, 16, 11)
	idx, _ := New()
	require.NoError(t, idx.Build(context.Background(), vectors, ids, 16, 100))

	queries, _ := randomVectors(20, 16, 12)
	hits, total := 0, 0
	for _, q := range queries {
		want := bruteForce(vectors, ids, q, 10)
		got, err := idx.Search(q, 10, 100)
		require.NoError(t, err)

		wantSet := make(map[core.ID]bool, len(want))
		for _, id := range want {
			wantSet[id] = true
		}
		for _, m := range got {
			if wantSet[m.Id] {
				hits++
			}
		}
		total += len(want)
	}
	assert.GreaterOrEqual(t, float64(hits)/float64(total), 0.9)
}

func TestIndex_TiesByInsertionOrder(t *testing.T) {
	idx, _ := New()
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 0}, {1, 0}}
	ids := []core.ID{50, 60, 30, 40}
	require.NoError(t, idx.Build(context.Background(), vectors, ids, 0, 0))

	matches, err := idx.Search([]float32{1, 0}, 4, 0)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	assert.Equal(t, []core.ID{50, 30, 40, 60}, []core.ID{matches[0].Id, matches[1].Id, matches[2].Id, matches[3].Id})
}

func TestIndex_QueryDimensionMismatch(t *testing.T) {
	idx, _ := New()
	require.NoError(t, idx.Build(context.Background(), [][]float32{{1, 0, 0}}, []core.ID{1}, 0, 0))

	_, err := idx.Search([]float32{1, 0}, 1, 0)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	t.Run("empty graph", func(t *testing.T) {
		idx, _ := New(WithDimension(3))
		require.NoError(t, idx.Build(context.Background(), nil, nil, 0, 0))

		_, err := idx.Search([]float32{1, 0}, 1, 0)
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		matches, err := idx.Search([]float32{1, 0, 0}, 1, 0)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestIndex_AtomicSwap(t *testing.T) {
	ctx := context.Background()
	oldVectors, oldIDs := randomVectors(200, 8, 21)
	newVectors, _ := randomVectors(200, 8, 22)
	newIDs := make([]core.ID, len(newVectors))
	for i := range newIDs {
		newIDs[i] = core.ID(5000 + i)
	}

	idx, _ := New()
	require.NoError(t, idx.Build(ctx, oldVectors, oldIDs, 0, 0))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 100)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				matches, err := idx.Search(oldVectors[0], 20, 0)
				if err != nil {
					errs <- err.Error()
					return
				}
				// Every result set comes entirely from one generation
				old := matches[0].Id < 5000
				for _, m := range matches {
					if (m.Id < 5000) != old {
						errs <- "mixed generations in one result"
						return
					}
				}
			}
		}()
	}

	require.NoError(t, idx.Build(ctx, newVectors, newIDs, 0, 0))
	close(stop)
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}

	matches, err := idx.Search(newVectors[0], 1, 0)
	require.NoError(t, err)
	assert.Equal(t, core.ID(5000), matches[0].Id)
}

func TestIndex_SaveLoad(t *testing.T) {
	ctx := context.Background()
	vectors, ids := randomVectors(250, 12, 5)

	t.Run("round trip preserves results", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		idx, _ := New(WithDimension(12), WithSnapshotStore(store))
		require.NoError(t, idx.Build(ctx, vectors, ids, 0, 0))
		require.NoError(t, idx.Save(ctx))

		restored, _ := New(WithDimension(12), WithSnapshotStore(store))
		require.NoError(t, restored.Load(ctx))
		assert.Equal(t, idx.Info(), restored.Info())

		for i := 0; i < 10; i++ {
			want, err := idx.Search(vectors[i], 10, 0)
			require.NoError(t, err)
			got, err := restored.Search(vectors[i], 10, 0)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("missing snapshot", func(t *testing.T) {
		store, _ := NewFileStore(t.TempDir())
		idx, _ := New(WithSnapshotStore(store))

		err := idx.Load(ctx)
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})

	t.Run("dimension mismatch clears index", func(t *testing.T) {
		store, _ := NewFileStore(t.TempDir())
		writer, _ := New(WithSnapshotStore(store))
		require.NoError(t, writer.Build(ctx, vectors, ids, 0, 0))
		require.NoError(t, writer.Save(ctx))

		other, _ := randomVectors(5, 4, 1)
		reader, _ := New(WithDimension(4), WithSnapshotStore(store))
		require.NoError(t, reader.Build(ctx, other, []core.ID{1, 2, 3, 4, 5}, 0, 0))

		err := reader.Load(ctx)
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, reader.Info().Initialized)

		_, err = reader.Search(other[0], 1, 0)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("corrupt graph blob", func(t *testing.T) {
		dir := t.TempDir()
		store, _ := NewFileStore(dir)
		idx, _ := New(WithSnapshotStore(store))
		require.NoError(t, idx.Build(ctx, vectors, ids, 0, 0))
		require.NoError(t, idx.Save(ctx))

		path := filepath.Join(dir, graphFileName)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

		err = idx.Load(ctx)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 0, idx.Size())
	})

	t.Run("mismatched blobs", func(t *testing.T) {
		storeA, _ := NewFileStore(t.TempDir())
		a, _ := New(WithSnapshotStore(storeA))
		require.NoError(t, a.Build(ctx, vectors, ids, 0, 0))

		g := a.active.Load()
		smaller, smallerIDs := randomVectors(3, 12, 8)
		b, _ := New()
		require.NoError(t, b.Build(ctx, smaller, smallerIDs, 0, 0))

		_, err := decodeSnapshot(encodeGraph(g), encodeIDs(b.active.Load()))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("save without store", func(t *testing.T) {
		idx, _ := New()
		assert.ErrorIs(t, idx.Save(ctx), ErrSnapshotStoreRequired)
		assert.ErrorIs(t, idx.Load(ctx), ErrSnapshotStoreRequired)
	})

	t.Run("save before build", func(t *testing.T) {
		store, _ := NewFileStore(t.TempDir())
		idx, _ := New(WithSnapshotStore(store))
		assert.ErrorIs(t, idx.Save(ctx), ErrNotInitialized)
	})
}
