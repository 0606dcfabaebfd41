// Package s3 provides a linkmap.KVStore on S3-compatible object storage.
// Values are object bodies; metadata and expiry are user metadata on the
// object. Expired objects read as absent and are left to a bucket
// lifecycle rule to delete.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fwojciec/linkmap"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Object metadata keys. S3 returns them lowercased.
const (
	metaTitle       = "title"
	metaDescription = "description"
	metaTimestamp   = "timestamp"
	metaExpiresAt   = "expires-at"
)

// Config describes how to reach the bucket. Empty credentials fall back to
// the default AWS credential chain. A non-empty Endpoint selects path-style
// addressing, as needed by MinIO and similar servers.
type Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

var _ linkmap.KVStore = (*Store)(nil)

// Store implements linkmap.KVStore.
type Store struct {
	client *s3.Client
	bucket string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewStore returns a Store for the configured bucket.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, linkmap.Errorf(linkmap.EINVALID, "s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, Now: time.Now}, nil
}

// GetWithMetadata implements linkmap.KVStore.
func (s *Store) GetWithMetadata(ctx context.Context, key string) ([]byte, *linkmap.CacheMetadata, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry not found")
		}
		return nil, nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	if exp, ok := out.Metadata[metaExpiresAt]; ok {
		ms, err := strconv.ParseInt(exp, 10, 64)
		if err == nil && !s.Now().Before(time.UnixMilli(ms)) {
			return nil, nil, linkmap.Errorf(linkmap.ENOTFOUND, "cache entry expired")
		}
	}

	value, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	meta := &linkmap.CacheMetadata{
		Title:       unescape(out.Metadata[metaTitle]),
		Description: unescape(out.Metadata[metaDescription]),
	}
	if ts := out.Metadata[metaTimestamp]; ts != "" {
		meta.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse timestamp of %s: %w", key, err)
		}
	}
	return value, meta, nil
}

// Put implements linkmap.KVStore.
func (s *Store) Put(ctx context.Context, key string, value []byte, opts linkmap.PutOptions) error {
	if opts.TTL <= 0 {
		return linkmap.Errorf(linkmap.EINVALID, "TTL must be positive")
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			// User metadata must be ASCII.
			metaTitle:       url.QueryEscape(opts.Metadata.Title),
			metaDescription: url.QueryEscape(opts.Metadata.Description),
			metaTimestamp:   opts.Metadata.Timestamp.UTC().Format(time.RFC3339Nano),
			metaExpiresAt:   strconv.FormatInt(s.Now().Add(opts.TTL).UnixMilli(), 10),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}
