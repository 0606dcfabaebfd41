package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/bluemonday"
	"github.com/fwojciec/linkmap/crawl"
	"github.com/fwojciec/linkmap/goquery"
	lmhttp "github.com/fwojciec/linkmap/http"
	lmprom "github.com/fwojciec/linkmap/prometheus"
	"github.com/fwojciec/linkmap/readability"
	lmredis "github.com/fwojciec/linkmap/redis"
	"github.com/fwojciec/linkmap/rod"
	lms3 "github.com/fwojciec/linkmap/s3"
	"github.com/fwojciec/linkmap/scrape"
	"github.com/fwojciec/linkmap/sitecache"
	lmslog "github.com/fwojciec/linkmap/slog"
	"github.com/fwojciec/linkmap/sqlite"
	"github.com/fwojciec/linkmap/topology"
	"github.com/fwojciec/linkmap/trafilatura"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is loaded in Run unless set beforehand.
	Config *Config

	// Links replaces the wired crawler when set, for end-to-end testing.
	Links linkmap.LinksService

	// Metrics registry; a fresh one is created when nil.
	Registry *prometheus.Registry

	closers []io.Closer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases the browser, database and store connections.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("linkmap"),
		kong.Description("Map the link structure around a URL."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'linkmap --help' to see available commands")
	}
	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := m.config(cli)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, cli, kongCtx.Command())

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if m.Registry == nil {
		m.Registry = prometheus.NewRegistry()
	}
	deps.Metrics = lmprom.Handler(m.Registry)

	if m.Links == nil {
		m.Links, err = m.wire(ctx, cfg, deps.Logger, lmprom.NewMetrics(m.Registry))
		if err != nil {
			return err
		}
	}
	deps.Links = m.Links

	return kongCtx.Run(deps)
}

func (m *Main) config(cli *CLI) (Config, error) {
	if m.Config != nil {
		return *m.Config, nil
	}
	if cli.Config != "" {
		return LoadConfig(cli.Config, true)
	}
	return LoadConfig(DefaultConfigPath(), false)
}

// applyOverrides folds command flags into the file configuration.
func applyOverrides(cfg *Config, cli *CLI, command string) {
	switch command {
	case "map <url>":
		if cli.Map.Browser {
			cfg.Fetch.Browser = true
		}
		if cli.Map.NoCache {
			cfg.Store = StoreNone
		}
		if cli.Map.Concurrency > 0 {
			cfg.Crawl.Concurrency = cli.Map.Concurrency
		}
		if cli.Map.MaxKin > 0 {
			cfg.Crawl.MaxKin = cli.Map.MaxKin
		}
	case "serve":
		if cli.Serve.Browser {
			cfg.Fetch.Browser = true
		}
	}
}

// wire builds the crawler and its decorators from cfg.
func (m *Main) wire(ctx context.Context, cfg Config, logger *slog.Logger, metrics *lmprom.Metrics) (linkmap.LinksService, error) {
	httpFetcher := lmhttp.NewFetcher(
		lmhttp.WithTimeout(cfg.Fetch.Timeout.Duration),
		lmhttp.WithUserAgent(cfg.Fetch.UserAgent),
		lmhttp.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes),
	)
	m.closers = append(m.closers, httpFetcher)

	var fetcher linkmap.Fetcher = httpFetcher
	if cfg.Fetch.Browser {
		browser, err := rod.NewFetcher(
			rod.WithFetchTimeout(cfg.Fetch.Timeout.Duration),
			rod.WithUserAgent(cfg.Fetch.UserAgent),
			rod.WithBlockedResources(cfg.Fetch.BlockResources...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		m.closers = append(m.closers, browser)
		fetcher = browser
	}

	var scraper linkmap.Scraper = &scrape.Scraper{
		Fetcher:  lmslog.NewLoggingFetcher(fetcher, logger),
		Metadata: goquery.NewMetadataExtractor(),
		Content: bluemonday.NewSanitizer(scrape.Chain{
			trafilatura.NewExtractor(),
			readability.NewExtractor(),
		}),
		MetaFiles:   lmhttp.NewMetaFileService(httpFetcher.Client()),
		RetryDelays: cfg.Fetch.Delays(),
		Logger:      logger,
	}
	if cfg.Crawl.RateLimit > 0 {
		scraper = &crawl.LimitedScraper{
			Scraper: scraper,
			Limiter: crawl.NewDomainLimiter(cfg.Crawl.RateLimit),
		}
	}
	scraper = lmslog.NewLoggingScraper(lmprom.NewScraper(scraper, metrics), logger)

	crawler := &crawl.Crawler{
		Scraper:     scraper,
		Topology:    topology.New(cfg.Platforms),
		Links:       goquery.NewLinkExtractor(),
		Logger:      logger,
		Concurrency: cfg.Crawl.Concurrency,
		MaxKin:      cfg.Crawl.MaxKin,
		Now:         time.Now,
	}

	store, err := m.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		cache := sitecache.New(lmslog.NewLoggingKVStore(store, logger), logger)
		cache.Freshness = cfg.Cache.Freshness.Duration
		cache.TTL = cfg.Cache.TTL.Duration
		crawler.Cache = lmprom.NewSiteTreeCache(cache, metrics)
	}

	return lmslog.NewLoggingLinksService(lmprom.NewLinksService(crawler, metrics), logger), nil
}

// openStore connects the configured KVStore. Returns nil for StoreNone.
func (m *Main) openStore(ctx context.Context, cfg Config, logger *slog.Logger) (linkmap.KVStore, error) {
	switch cfg.Store {
	case StoreSQLite:
		if cfg.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create cache directory: %w", err)
			}
		}
		db := sqlite.NewDB(cfg.SQLite.Path)
		if err := db.Open(); err != nil {
			return nil, fmt.Errorf("failed to open cache database at %q: %w", cfg.SQLite.Path, err)
		}
		m.closers = append(m.closers, db)

		store := sqlite.NewStore(db)
		if n, err := store.DeleteExpired(ctx); err != nil {
			logger.Warn("purge expired cache entries", "err", err)
		} else if n > 0 {
			logger.Debug("purged expired cache entries", "count", n)
		}
		return store, nil
	case StoreRedis:
		client, err := lmredis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %q: %w", cfg.Redis.Addr, err)
		}
		m.closers = append(m.closers, client)
		return lmredis.NewStore(client), nil
	case StoreS3:
		store, err := lms3.NewStore(ctx, lms3.Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}
