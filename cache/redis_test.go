package cache

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStore_NilClient(t *testing.T) {
	_, err := NewRedisStore(nil, "marquee")
	assert.ErrorIs(t, err, ErrClientRequired)
}

func TestRedisStore_Namespace(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	defer client.Close()

	s, err := NewRedisStore(client, "marquee")
	require.NoError(t, err)
	assert.Equal(t, "marquee:rerank:abc", s.key("rerank:abc"))

	bare, err := NewRedisStore(client, "")
	require.NoError(t, err)
	assert.Equal(t, "rerank:abc", bare.key("rerank:abc"))
}

func TestRedisStore_ClosedClient(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:0"})
	require.NoError(t, client.Close())

	s, err := NewRedisStore(client, "")
	require.NoError(t, err)

	_, ok, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}
