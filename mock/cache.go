package mock

import (
	"context"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.KVStore = (*KVStore)(nil)

// KVStore is a mock implementation of linkmap.KVStore.
type KVStore struct {
	GetWithMetadataFn func(ctx context.Context, key string) ([]byte, *linkmap.CacheMetadata, error)
	PutFn             func(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) error
}

func (s *KVStore) GetWithMetadata(ctx context.Context, key string) ([]byte, *linkmap.CacheMetadata, error) {
	return s.GetWithMetadataFn(ctx, key)
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) error {
	return s.PutFn(ctx, key, value, opts)
}

var _ linkmap.SiteTreeCache = (*SiteTreeCache)(nil)

// SiteTreeCache is a mock implementation of linkmap.SiteTreeCache.
type SiteTreeCache struct {
	ReadFn  func(ctx context.Context, rootKey string) *linkmap.CacheEntry
	WriteFn func(ctx context.Context, rootKey string, tree *linkmap.Tree, meta linkmap.CacheMetadata)
}

func (c *SiteTreeCache) Read(ctx context.Context, rootKey string) *linkmap.CacheEntry {
	return c.ReadFn(ctx, rootKey)
}

func (c *SiteTreeCache) Write(ctx context.Context, rootKey string, tree *linkmap.Tree, meta linkmap.CacheMetadata) {
	c.WriteFn(ctx, rootKey, tree, meta)
}
