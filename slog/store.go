package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/linkmap"
)

// Ensure LoggingKVStore implements linkmap.KVStore.
var _ linkmap.KVStore = (*LoggingKVStore)(nil)

// LoggingKVStore wraps a KVStore with logging. Misses are not errors.
type LoggingKVStore struct {
	next   linkmap.KVStore
	logger *slog.Logger
}

// NewLoggingKVStore creates a new LoggingKVStore.
func NewLoggingKVStore(next linkmap.KVStore, logger *slog.Logger) *LoggingKVStore {
	return &LoggingKVStore{next: next, logger: logger}
}

// GetWithMetadata delegates to the wrapped store and logs hit or miss.
func (s *LoggingKVStore) GetWithMetadata(ctx context.Context, key string) (value []byte, meta *linkmap.CacheMetadata, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"key", key,
			"hit", err == nil,
			"bytes", len(value),
			"duration", time.Since(begin),
		}
		if err != nil && linkmap.ErrorCode(err) != linkmap.ENOTFOUND {
			attrs = append(attrs, "err", err)
		}
		s.logger.Debug("store get", attrs...)
	}(time.Now())
	return s.next.GetWithMetadata(ctx, key)
}

// Put delegates to the wrapped store and logs the write.
func (s *LoggingKVStore) Put(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store put",
			"key", key,
			"bytes", len(value),
			"ttl", opts.TTL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Put(ctx, key, value, opts)
}
