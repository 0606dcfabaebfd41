package crawl

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/linkmap"
	"golang.org/x/time/rate"
)

var _ linkmap.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-domain rate limiting using token buckets.
// It creates a separate rate limiter for each domain, allowing concurrent
// requests to different domains while enforcing rate limits within each domain.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a new DomainLimiter with the specified requests per second limit.
// Each domain gets its own limiter with a burst of 1 (no bursting allowed).
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

var _ linkmap.Scraper = (*LimitedScraper)(nil)

// LimitedScraper waits on Limiter for the URL's host before every scrape.
type LimitedScraper struct {
	Scraper linkmap.Scraper
	Limiter linkmap.DomainLimiter
}

// Scrape implements linkmap.Scraper.
func (s *LimitedScraper) Scrape(ctx context.Context, rawURL string, opts linkmap.ScrapeOptions) (*linkmap.ScrapedPage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if err := s.Limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, err
	}
	return s.Scraper.Scrape(ctx, rawURL, opts)
}
