package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("payload")
	require.NoError(t, m.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), got)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, m.Set(ctx, "short", []byte("a"), time.Hour))
	require.NoError(t, m.Set(ctx, "forever", []byte("b"), 0))

	clock.Advance(59 * time.Minute)
	_, ok, _ := m.Get(ctx, "short")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok, _ = m.Get(ctx, "short")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	clock.Advance(1000 * time.Hour)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryStore_DeletePattern(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, k := range []string{"rerank:a", "rerank:b", "parse:a", "rerank"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), 0))
	}

	n, err := m.DeletePattern(ctx, "rerank:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, _ := m.Get(ctx, "parse:a")
	assert.True(t, ok)
	_, ok, _ = m.Get(ctx, "rerank")
	assert.True(t, ok)

	n, _ = m.DeletePattern(ctx, "rerank")
	assert.Equal(t, 1, n)
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"rerank:*", "rerank:abc", true},
		{"rerank:*", "parse:abc", false},
		{"*", "anything", true},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPattern(tt.pattern, tt.key), "%s ~ %s", tt.pattern, tt.key)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	type entry struct {
		IDs   []uint64 `json:"ids"`
		Query string   `json:"query"`
	}

	require.NoError(t, SetJSON(ctx, m, "e", entry{IDs: []uint64{3, 1}, Query: "heist"}, time.Hour))

	got, ok, err := GetJSON[entry](ctx, m, "e")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry{IDs: []uint64{3, 1}, Query: "heist"}, got)

	t.Run("undecodable value is a miss", func(t *testing.T) {
		require.NoError(t, m.Set(ctx, "bad", []byte("{not json"), 0))
		_, ok, err := GetJSON[entry](ctx, m, "bad")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unencodable value", func(t *testing.T) {
		err := SetJSON(ctx, m, "chan", make(chan int), 0)
		assert.ErrorIs(t, err, ErrEncode)
	})
}
