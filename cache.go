package linkmap

import (
	"context"
	"time"
)

// CacheMetadata is stored out of band next to a cached value.
type CacheMetadata struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CacheEntry is a site tree read back from the cache.
type CacheEntry struct {
	Tree     *Tree
	Metadata CacheMetadata
}

// PutOptions controls how a value is written to a KVStore.
type PutOptions struct {
	Metadata CacheMetadata
	TTL      time.Duration
}

// KVStore is a durable key-value store with expiry and small metadata
// attached to each value.
type KVStore interface {
	// GetWithMetadata returns the value and metadata stored under key.
	// Returns ENOTFOUND if the key is absent or has expired.
	GetWithMetadata(ctx context.Context, key string) ([]byte, *CacheMetadata, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte, opts PutOptions) error
}

// SiteTreeCache stores the last built tree per logical root.
type SiteTreeCache interface {
	// Read returns the cached entry for rootKey, or nil when the entry is
	// absent, unreadable, or older than the freshness window.
	Read(ctx context.Context, rootKey string) *CacheEntry

	// Write stores tree under rootKey. Failures are logged, never returned.
	Write(ctx context.Context, rootKey string, tree *Tree, meta CacheMetadata)
}
