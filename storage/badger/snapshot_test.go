package badger

import (
	"context"
	"testing"

	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	_, _, err := repos.Snapshots.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, vectorindex.ErrSnapshotNotFound)

	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, []byte("graph-v1"), []byte("ids-v1")))
	require.NoError(t, repos.Snapshots.SaveSnapshot(ctx, []byte("graph-v2"), []byte("ids-v2")))

	graph, ids, err := repos.Snapshots.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("graph-v2"), graph)
	assert.Equal(t, []byte("ids-v2"), ids)
}

func TestSnapshotRepository_IndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0.7, 0.7, 0}}
	ids := []core.ID{10, 20, 30, 40}

	idx, err := vectorindex.New(vectorindex.WithSnapshotStore(repos.Snapshots))
	require.NoError(t, err)
	require.NoError(t, idx.Build(ctx, vectors, ids, 0, 0))
	require.NoError(t, idx.Save(ctx))

	loaded, err := vectorindex.New(vectorindex.WithSnapshotStore(repos.Snapshots))
	require.NoError(t, err)
	require.NoError(t, loaded.Load(ctx))
	assert.Equal(t, 4, loaded.Size())

	matches, err := loaded.Search([]float32{0, 1, 0}, 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.EqualValues(t, 20, matches[0].Id)
}
