// Package prometheus provides linkmap decorators that record Prometheus
// metrics.
package prometheus

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by the decorators.
type Metrics struct {
	Scrapes        *prometheus.CounterVec
	ScrapeDuration prometheus.Histogram
	CacheReads     *prometheus.CounterVec
	CacheWrites    prometheus.Counter
	Requests       *prometheus.CounterVec
	RequestLatency prometheus.Histogram
	TreeSize       prometheus.Histogram
}

// NewMetrics registers the linkmap collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Scrapes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkmap_scrapes_total",
				Help: "Total number of page scrapes by result",
			},
			[]string{"result"},
		),
		ScrapeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkmap_scrape_duration_seconds",
				Help:    "Time taken to scrape a page",
				Buckets: prometheus.DefBuckets,
			},
		),
		CacheReads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkmap_cache_reads_total",
				Help: "Site tree cache reads by result",
			},
			[]string{"result"}, // hit or miss
		),
		CacheWrites: f.NewCounter(
			prometheus.CounterOpts{
				Name: "linkmap_cache_writes_total",
				Help: "Site tree cache writes",
			},
		),
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkmap_requests_total",
				Help: "Links requests by result",
			},
			[]string{"result"},
		),
		RequestLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkmap_request_duration_seconds",
				Help:    "Time taken to answer a links request",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		TreeSize: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "linkmap_tree_urls",
				Help:    "Number of URLs in returned site trees",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ linkmap.Scraper = (*Scraper)(nil)

// Scraper records the count and duration of scrapes.
type Scraper struct {
	next    linkmap.Scraper
	metrics *Metrics
}

// NewScraper wraps next.
func NewScraper(next linkmap.Scraper, m *Metrics) *Scraper {
	return &Scraper{next: next, metrics: m}
}

// Scrape implements linkmap.Scraper.
func (s *Scraper) Scrape(ctx context.Context, url string, opts linkmap.ScrapeOptions) (page *linkmap.ScrapedPage, err error) {
	defer func(begin time.Time) {
		s.metrics.ScrapeDuration.Observe(time.Since(begin).Seconds())
		s.metrics.Scrapes.WithLabelValues(result(err)).Inc()
	}(time.Now())
	return s.next.Scrape(ctx, url, opts)
}

var _ linkmap.SiteTreeCache = (*SiteTreeCache)(nil)

// SiteTreeCache records cache hits, misses and writes.
type SiteTreeCache struct {
	next    linkmap.SiteTreeCache
	metrics *Metrics
}

// NewSiteTreeCache wraps next.
func NewSiteTreeCache(next linkmap.SiteTreeCache, m *Metrics) *SiteTreeCache {
	return &SiteTreeCache{next: next, metrics: m}
}

// Read implements linkmap.SiteTreeCache.
func (c *SiteTreeCache) Read(ctx context.Context, rootKey string) *linkmap.CacheEntry {
	entry := c.next.Read(ctx, rootKey)
	if entry != nil {
		c.metrics.CacheReads.WithLabelValues("hit").Inc()
	} else {
		c.metrics.CacheReads.WithLabelValues("miss").Inc()
	}
	return entry
}

// Write implements linkmap.SiteTreeCache.
func (c *SiteTreeCache) Write(ctx context.Context, rootKey string, tree *linkmap.Tree, meta linkmap.CacheMetadata) {
	c.next.Write(ctx, rootKey, tree, meta)
	c.metrics.CacheWrites.Inc()
}

var _ linkmap.LinksService = (*LinksService)(nil)

// LinksService records request outcomes, latency and tree sizes.
type LinksService struct {
	next    linkmap.LinksService
	metrics *Metrics
}

// NewLinksService wraps next.
func NewLinksService(next linkmap.LinksService, m *Metrics) *LinksService {
	return &LinksService{next: next, metrics: m}
}

// ProcessLinksRequest implements linkmap.LinksService.
func (s *LinksService) ProcessLinksRequest(ctx context.Context, req *linkmap.LinksRequest) (resp *linkmap.LinksResponse, err error) {
	defer func(begin time.Time) {
		s.metrics.RequestLatency.Observe(time.Since(begin).Seconds())

		var lerr *linkmap.LinksError
		switch {
		case err == nil:
			s.metrics.Requests.WithLabelValues("ok").Inc()
			if resp.Tree != nil {
				s.metrics.TreeSize.Observe(float64(resp.Tree.TotalURLs))
			}
		case errors.As(err, &lerr):
			s.metrics.Requests.WithLabelValues("target_failed").Inc()
		case linkmap.ErrorCode(err) == linkmap.EINVALID:
			s.metrics.Requests.WithLabelValues("invalid").Inc()
		default:
			s.metrics.Requests.WithLabelValues("error").Inc()
		}
	}(time.Now())
	return s.next.ProcessLinksRequest(ctx, req)
}
