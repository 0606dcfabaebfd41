package slog_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/mock"
	lmslog "github.com/fwojciec/linkmap/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingKVStore(t *testing.T) {
	t.Parallel()

	t.Run("logs hit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.KVStore{
			GetWithMetadataFn: func(_ context.Context, _ string) ([]byte, *linkmap.CacheMetadata, error) {
				return []byte("value"), &linkmap.CacheMetadata{}, nil
			},
		}

		s := lmslog.NewLoggingKVStore(inner, debugLogger(&buf))
		value, _, err := s.GetWithMetadata(context.Background(), "k")

		require.NoError(t, err)
		assert.Equal(t, "value", string(value))
		assert.Contains(t, buf.String(), "key=k")
		assert.Contains(t, buf.String(), "hit=true")
		assert.Contains(t, buf.String(), "bytes=5")
	})

	t.Run("logs miss without error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.KVStore{
			GetWithMetadataFn: func(_ context.Context, _ string) ([]byte, *linkmap.CacheMetadata, error) {
				return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry not found")
			},
		}

		s := lmslog.NewLoggingKVStore(inner, debugLogger(&buf))
		_, _, err := s.GetWithMetadata(context.Background(), "k")

		assert.Equal(t, linkmap.ENOTFOUND, linkmap.ErrorCode(err))
		assert.Contains(t, buf.String(), "hit=false")
		assert.NotContains(t, buf.String(), "err=")
	})

	t.Run("logs put with ttl and error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.KVStore{
			PutFn: func(_ context.Context, _ string, _ []byte, _ linkmap.PutOptions) error {
				return errors.New("connection reset")
			},
		}

		s := lmslog.NewLoggingKVStore(inner, debugLogger(&buf))
		err := s.Put(context.Background(), "k", []byte("abc"), linkmap.PutOptions{TTL: time.Hour})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "msg=\"store put\"")
		assert.Contains(t, buf.String(), "ttl=1h0m0s")
		assert.Contains(t, buf.String(), "bytes=3")
		assert.Contains(t, buf.String(), `err="connection reset"`)
	})
}
