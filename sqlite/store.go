package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.KVStore = (*Store)(nil)

// Store implements linkmap.KVStore on the cache_entries table.
// Expired rows are hidden from reads and removed by DeleteExpired.
type Store struct {
	db *DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewStore creates a new Store backed by db.
func NewStore(db *DB) *Store {
	return &Store{db: db, Now: time.Now}
}

// GetWithMetadata implements linkmap.KVStore.
func (s *Store) GetWithMetadata(ctx context.Context, key string) ([]byte, *linkmap.CacheMetadata, error) {
	var (
		value     []byte
		meta      linkmap.CacheMetadata
		timestamp int64
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT value, title, description, timestamp, expires_at
		FROM cache_entries
		WHERE key = ?
	`, key).Scan(&value, &meta.Title, &meta.Description, &timestamp, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	if !s.Now().Before(time.UnixMilli(expiresAt)) {
		return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry expired")
	}
	meta.Timestamp = time.UnixMilli(timestamp).UTC()
	return value, &meta, nil
}

// Put implements linkmap.KVStore. A non-positive TTL is rejected.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) error {
	if opts.TTL <= 0 {
		return linkmap.Errorf(linkmap.EINVALID, "TTL must be positive")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, title, description, timestamp, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			title = excluded.title,
			description = excluded.description,
			timestamp = excluded.timestamp,
			expires_at = excluded.expires_at
	`,
		key,
		value,
		opts.Metadata.Title,
		opts.Metadata.Description,
		opts.Metadata.Timestamp.UnixMilli(),
		s.Now().Add(opts.TTL).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes expired entries and returns how many were removed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", s.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return res.RowsAffected()
}
