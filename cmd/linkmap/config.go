package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/crawl"
	lmhttp "github.com/fwojciec/linkmap/http"
	"github.com/fwojciec/linkmap/sitecache"
	"gopkg.in/yaml.v3"
)

// AppName names the config and cache directories.
const AppName = "linkmap"

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreS3     = "s3"
	StoreNone   = "none"
)

// Config is the YAML configuration file.
type Config struct {
	Store     string       `yaml:"store"`
	SQLite    SQLiteConfig `yaml:"sqlite"`
	Redis     RedisConfig  `yaml:"redis"`
	S3        S3Config     `yaml:"s3"`
	Cache     CacheConfig  `yaml:"cache"`
	Crawl     CrawlConfig  `yaml:"crawl"`
	Fetch     FetchConfig  `yaml:"fetch"`
	Platforms []string     `yaml:"platforms"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config configures the S3 store.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// CacheConfig configures site tree caching.
type CacheConfig struct {
	Freshness Duration `yaml:"freshness"`
	TTL       Duration `yaml:"ttl"`
}

// CrawlConfig configures the crawler.
type CrawlConfig struct {
	Concurrency int `yaml:"concurrency"`
	MaxKin      int `yaml:"maxKin"`

	// RateLimit is requests per second per host. Zero disables limiting.
	RateLimit float64 `yaml:"rateLimit"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	Timeout        Duration   `yaml:"timeout"`
	UserAgent      string     `yaml:"userAgent"`
	Browser        bool       `yaml:"browser"`
	MaxBodyBytes   int64      `yaml:"maxBodyBytes"`
	BlockResources []string   `yaml:"blockResources"`
	RetryDelays    []Duration `yaml:"retryDelays"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	delays := linkmap.DefaultRetryDelays()
	retry := make([]Duration, len(delays))
	for i, d := range delays {
		retry[i] = Duration{d}
	}
	return Config{
		Store:  StoreSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(xdg.CacheHome, AppName, "cache.db")},
		S3:     S3Config{Region: "us-east-1"},
		Cache: CacheConfig{
			Freshness: Duration{sitecache.DefaultFreshness},
			TTL:       Duration{sitecache.DefaultTTL},
		},
		Crawl: CrawlConfig{
			Concurrency: crawl.DefaultConcurrency,
			MaxKin:      crawl.DefaultMaxKin,
		},
		Fetch: FetchConfig{
			Timeout:      Duration{lmhttp.DefaultFetchTimeout},
			UserAgent:    lmhttp.DefaultUserAgent,
			MaxBodyBytes: lmhttp.DefaultMaxBodyBytes,
			RetryDelays:  retry,
		},
	}
}

// DefaultConfigPath returns $LINKMAP_CONFIG or the XDG config location.
func DefaultConfigPath() string {
	if path := os.Getenv("LINKMAP_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadConfig reads the file at path over DefaultConfig. A missing file
// yields the defaults unless required is set.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate returns EINVALID for unusable settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return linkmap.Errorf(linkmap.EINVALID, "sqlite.path required")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return linkmap.Errorf(linkmap.EINVALID, "redis.addr required")
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			return linkmap.Errorf(linkmap.EINVALID, "s3.bucket required")
		}
	case StoreNone:
	default:
		return linkmap.Errorf(linkmap.EINVALID, "unknown store %q", c.Store)
	}
	if c.Cache.Freshness.Duration <= 0 || c.Cache.TTL.Duration <= 0 {
		return linkmap.Errorf(linkmap.EINVALID, "cache durations must be positive")
	}
	if c.Cache.TTL.Duration < c.Cache.Freshness.Duration {
		return linkmap.Errorf(linkmap.EINVALID, "cache.ttl must not be shorter than cache.freshness")
	}
	if c.Crawl.Concurrency < 1 || c.Crawl.MaxKin < 1 {
		return linkmap.Errorf(linkmap.EINVALID, "crawl.concurrency and crawl.maxKin must be at least 1")
	}
	if c.Crawl.RateLimit < 0 {
		return linkmap.Errorf(linkmap.EINVALID, "crawl.rateLimit must not be negative")
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return linkmap.Errorf(linkmap.EINVALID, "fetch.timeout must be positive")
	}
	return nil
}

// Delays returns the fetch retry waits.
func (c FetchConfig) Delays() []time.Duration {
	delays := make([]time.Duration, len(c.RetryDelays))
	for i, d := range c.RetryDelays {
		delays[i] = d.Duration
	}
	return delays
}

// Duration is a time.Duration written as "10s" in YAML. Bare numbers are
// seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var seconds float64
	if node.Tag == "!!int" || node.Tag == "!!float" {
		if err := node.Decode(&seconds); err != nil {
			return err
		}
		d.Duration = time.Duration(seconds * float64(time.Second))
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}
