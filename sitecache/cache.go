// Package sitecache stores site trees per logical root in a linkmap.KVStore.
package sitecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/sitetree"
)

// Defaults for a new Cache.
const (
	DefaultFreshness = 24 * time.Hour
	DefaultTTL       = 7 * 24 * time.Hour
)

// DefaultRetryDelays are the waits between cache write attempts.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{100 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}
}

var _ linkmap.SiteTreeCache = (*Cache)(nil)

// Cache implements linkmap.SiteTreeCache.
//
// An entry is fresh while now - timestamp < Freshness. The store keeps
// entries for TTL, which is longer; entries past the freshness window but
// still stored are treated as absent and left in place.
type Cache struct {
	Store       linkmap.KVStore
	Freshness   time.Duration
	TTL         time.Duration
	RetryDelays []time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// New returns a Cache over store with default settings.
func New(store linkmap.KVStore, logger *slog.Logger) *Cache {
	return &Cache{
		Store:       store,
		Freshness:   DefaultFreshness,
		TTL:         DefaultTTL,
		RetryDelays: DefaultRetryDelays(),
		Logger:      logger,
		Now:         time.Now,
	}
}

// entry is the stored value. RootKey guards against hash collisions.
type entry struct {
	RootKey string        `json:"rootKey"`
	Tree    *linkmap.Tree `json:"tree"`
}

// Key returns the store key for rootKey.
func Key(rootKey string) string {
	return fmt.Sprintf("linkmap:tree:%016x", xxhash.Sum64String(rootKey))
}

// Read returns the entry for rootKey if it exists and is fresh.
func (c *Cache) Read(ctx context.Context, rootKey string) *linkmap.CacheEntry {
	value, meta, err := c.Store.GetWithMetadata(ctx, Key(rootKey))
	if err != nil {
		if linkmap.ErrorCode(err) != linkmap.ENOTFOUND {
			c.logger().Warn("site tree cache read failed", "root", rootKey, "err", err)
		}
		return nil
	}
	if meta == nil {
		return nil
	}

	age := c.now().Sub(meta.Timestamp)
	if age >= c.freshness() {
		c.logger().Debug("site tree cache stale", "root", rootKey, "age", age)
		return nil
	}

	var e entry
	if err := json.Unmarshal(value, &e); err != nil {
		c.logger().Warn("site tree cache entry corrupt", "root", rootKey, "err", err)
		return nil
	}
	if e.RootKey != rootKey || e.Tree == nil {
		return nil
	}

	return &linkmap.CacheEntry{Tree: e.Tree, Metadata: *meta}
}

// Write stores tree under rootKey without cleaned HTML. The tree passed in
// is not modified. Failures are retried, then logged and dropped.
func (c *Cache) Write(ctx context.Context, rootKey string, tree *linkmap.Tree, meta linkmap.CacheMetadata) {
	if tree == nil {
		return
	}
	stored := tree.Clone()
	sitetree.StripCleanedHTML(stored)

	value, err := json.Marshal(entry{RootKey: rootKey, Tree: stored})
	if err != nil {
		c.logger().Error("site tree cache encode failed", "root", rootKey, "err", err)
		return
	}

	key := Key(rootKey)
	opts := linkmap.PutOptions{Metadata: meta, TTL: c.ttl()}
	err = linkmap.Retry(ctx, c.RetryDelays, func(ctx context.Context) error {
		return c.Store.Put(ctx, key, value, opts)
	}, func(attempt int, err error) {
		c.logger().Debug("retry site tree cache write", "root", rootKey, "attempt", attempt, "err", err)
	})
	if err != nil {
		c.logger().Warn("site tree cache write failed", "root", rootKey, "err", err)
	}
}

func (c *Cache) freshness() time.Duration {
	if c.Freshness <= 0 {
		return DefaultFreshness
	}
	return c.Freshness
}

func (c *Cache) ttl() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

func (c *Cache) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
