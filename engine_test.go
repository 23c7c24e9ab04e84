package marquee

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/config"
	"github.com/poiesic/marquee/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
	{"id": 1, "title": "The Abyss", "release_year": 1989, "rating": 7.6, "genres": ["Adventure", "Science Fiction"], "overview": "Divers find something deep under the ocean."},
	{"id": 2, "title": "Jaws", "release_year": 1975, "rating": 8.1, "genres": ["Thriller"], "overview": "A shark terrorizes a beach town."},
	{"id": 3, "title": "Master and Commander", "release_year": 2003, "rating": 7.5, "genres": ["Adventure", "Drama"], "overview": "A naval captain pursues a warship across the sea."},
	{"id": 4, "title": "All Is Lost", "release_year": 2013, "rating": 6.9, "genres": ["Drama"], "overview": "A lone sailor fights to survive on the open ocean."}
]`

// newTestEngine opens an in-memory engine backed by the mock provider.
func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *mock.MockLLMClient) {
	t.Helper()

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 16
	llm := mock.NewMockLLMClient()

	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Storage.Path = ""

	opts = append([]EngineOption{
		WithConfig(cfg),
		WithProvider(mock.NewMockProviderWithServices(embedder, llm)),
	}, opts...)

	e, err := Open(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, llm
}

func TestOpen(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.NotNil(t, e.Catalog())
	assert.False(t, e.IndexInfo().Initialized)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Cache.Backend = "memcached"

	_, err := Open(context.Background(), WithConfig(cfg), WithProvider(mock.NewMockProvider()))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestOpen_InvalidPath(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

	cfg := config.Default()
	cfg.Storage.Path = tmpFile

	e, err := Open(context.Background(), WithConfig(cfg), WithProvider(mock.NewMockProvider()))
	assert.Error(t, err)
	assert.Nil(t, e)
}

func TestEngine_SearchBeforeRebuild(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.Import(ctx, strings.NewReader(catalogJSON))
	require.NoError(t, err)

	resp, err := e.Search(ctx, "stories about the ocean", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.NotEmpty(t, resp.RequestID)
}

func TestEngine_ImportRebuildSearch(t *testing.T) {
	ctx := context.Background()
	e, llm := newTestEngine(t)

	imported, err := e.Import(ctx, strings.NewReader(catalogJSON))
	require.NoError(t, err)
	assert.Equal(t, 4, imported.Imported)

	stats, err := e.RebuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Indexed)

	info := e.IndexInfo()
	assert.True(t, info.Initialized)
	assert.Equal(t, 4, info.Size)
	assert.Equal(t, 16, info.Dimension)

	t.Run("search", func(t *testing.T) {
		resp, err := e.Search(ctx, "stories about the ocean", 3, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Results, resp.Count)
		assert.LessOrEqual(t, resp.Count, 3)
		require.NotNil(t, resp.InterpretedQuery)
		assert.Positive(t, llm.CallCount())
	})

	t.Run("caller filters", func(t *testing.T) {
		resp, err := e.Search(ctx, "stories about the ocean", 10, &core.QueryConstraints{Genres: []string{"Drama"}})
		require.NoError(t, err)
		for _, r := range resp.Results {
			assert.Contains(t, r.Genres, "Drama")
		}
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := e.Search(ctx, "stories about the ocean", 10, &core.QueryConstraints{YearMin: core.IntPtr(2000), YearMax: core.IntPtr(1990)})
		assert.ErrorIs(t, err, core.ErrInvalidConstraints)
	})

	t.Run("clear caches", func(t *testing.T) {
		_, err := e.ClearCaches(ctx)
		assert.NoError(t, err)
	})
}

func TestEngine_SnapshotRestoredOnOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(dir, "db")
	cfg.Storage.SnapshotDir = filepath.Join(dir, "index")

	embedder := mock.NewMockEmbedder()
	embedder.Dimension = 16
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockLLMClient())

	e, err := Open(ctx, WithConfig(cfg), WithProvider(provider))
	require.NoError(t, err)
	_, err = e.Import(ctx, strings.NewReader(catalogJSON))
	require.NoError(t, err)
	_, err = e.RebuildIndex(ctx)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened, err := Open(ctx, WithConfig(cfg), WithProvider(provider))
	require.NoError(t, err)
	defer reopened.Close()

	info := reopened.IndexInfo()
	assert.True(t, info.Initialized)
	assert.Equal(t, 4, info.Size)
}
