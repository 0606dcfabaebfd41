//go:build integration

package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *redis.Store {
	t.Helper()

	addr := os.Getenv("LINKMAP_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := redis.Open(context.Background(), addr, "", 0)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return redis.NewStore(client)
}

func TestStore(t *testing.T) {
	t.Parallel()

	t.Run("round trips value and metadata", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		ctx := context.Background()
		key := "linkmap:test:" + uuid.NewString()
		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		err := s.Put(ctx, key, []byte(`{"tree":1}`), linkmap.PutOptions{
			Metadata: linkmap.CacheMetadata{Title: "Home", Description: "Welcome", Timestamp: ts},
			TTL:      time.Minute,
		})
		require.NoError(t, err)

		value, meta, err := s.GetWithMetadata(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"tree":1}`, string(value))
		assert.Equal(t, "Home", meta.Title)
		assert.Equal(t, "Welcome", meta.Description)
		assert.True(t, ts.Equal(meta.Timestamp))
	})

	t.Run("returns not found for missing key", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)

		_, _, err := s.GetWithMetadata(context.Background(), "linkmap:test:"+uuid.NewString())

		assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
	})

	t.Run("entries expire after TTL", func(t *testing.T) {
		t.Parallel()

		s := newStore(t)
		ctx := context.Background()
		key := "linkmap:test:" + uuid.NewString()

		require.NoError(t, s.Put(ctx, key, []byte("v"), linkmap.PutOptions{TTL: time.Second}))

		require.Eventually(t, func() bool {
			_, _, err := s.GetWithMetadata(ctx, key)
			return linkmap.ErrorCode(err) == linkmap.ENOTFOUND
		}, 5*time.Second, 100*time.Millisecond)
	})
}
