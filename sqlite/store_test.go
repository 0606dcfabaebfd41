package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, now *time.Time) *sqlite.Store {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })

	s := sqlite.NewStore(db)
	s.Now = func() time.Time { return *now }
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()

	written := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("round trips value and metadata", func(t *testing.T) {
		t.Parallel()

		now := written
		s := newStore(t, &now)
		ctx := context.Background()

		err := s.Put(ctx, "k", []byte(`{"tree":1}`), linkmap.PutOptions{
			Metadata: linkmap.CacheMetadata{Title: "Home", Description: "Welcome", Timestamp: written},
			TTL:      time.Hour,
		})
		require.NoError(t, err)

		value, meta, err := s.GetWithMetadata(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"tree":1}`, string(value))
		assert.Equal(t, "Home", meta.Title)
		assert.Equal(t, "Welcome", meta.Description)
		assert.True(t, written.Equal(meta.Timestamp))
	})

	t.Run("returns not found for missing key", func(t *testing.T) {
		t.Parallel()

		now := written
		s := newStore(t, &now)

		_, _, err := s.GetWithMetadata(context.Background(), "missing")

		assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
	})

	t.Run("put replaces existing value", func(t *testing.T) {
		t.Parallel()

		now := written
		s := newStore(t, &now)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "k", []byte("one"), linkmap.PutOptions{TTL: time.Hour}))
		require.NoError(t, s.Put(ctx, "k", []byte("two"), linkmap.PutOptions{
			Metadata: linkmap.CacheMetadata{Title: "Second"},
			TTL:      time.Hour,
		}))

		value, meta, err := s.GetWithMetadata(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(value))
		assert.Equal(t, "Second", meta.Title)
	})

	t.Run("expired entries are not found and can be deleted", func(t *testing.T) {
		t.Parallel()

		now := written
		s := newStore(t, &now)
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, "short", []byte("a"), linkmap.PutOptions{TTL: time.Minute}))
		require.NoError(t, s.Put(ctx, "long", []byte("b"), linkmap.PutOptions{TTL: time.Hour}))

		now = written.Add(time.Minute)

		_, _, err := s.GetWithMetadata(ctx, "short")
		assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
		_, _, err = s.GetWithMetadata(ctx, "long")
		assert.NoError(t, err)

		n, err := s.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rejects non-positive TTL", func(t *testing.T) {
		t.Parallel()

		now := written
		s := newStore(t, &now)

		err := s.Put(context.Background(), "k", []byte("v"), linkmap.PutOptions{})

		assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	})
}
