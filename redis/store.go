// Package redis provides a Redis-backed linkmap.KVStore. Each entry is a
// hash holding the value and its metadata, expired by Redis itself.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/redis/go-redis/v9"
)

// Hash fields of a stored entry.
const (
	fieldValue       = "value"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldTimestamp   = "timestamp"
)

var _ linkmap.KVStore = (*Store)(nil)

// Store implements linkmap.KVStore.
type Store struct {
	client redis.Cmdable
}

// NewStore returns a Store using client.
func NewStore(client redis.Cmdable) *Store {
	return &Store{client: client}
}

// Open connects to the Redis server at addr and verifies the connection.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// GetWithMetadata implements linkmap.KVStore.
func (s *Store) GetWithMetadata(ctx context.Context, key string) ([]byte, *linkmap.CacheMetadata, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	value, ok := fields[fieldValue]
	if !ok {
		return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry not found")
	}

	meta := &linkmap.CacheMetadata{
		Title:       fields[fieldTitle],
		Description: fields[fieldDescription],
	}
	if ts := fields[fieldTimestamp]; ts != "" {
		meta.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse timestamp of %s: %w", key, err)
		}
	}
	return []byte(value), meta, nil
}

// Put implements linkmap.KVStore. The hash is replaced and its expiry set
// in one transaction.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) error {
	if opts.TTL <= 0 {
		return linkmap.Errorf(linkmap.EINVALID, "TTL must be positive")
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldValue, value,
			fieldTitle, opts.Metadata.Title,
			fieldDescription, opts.Metadata.Description,
			fieldTimestamp, opts.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, opts.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}
