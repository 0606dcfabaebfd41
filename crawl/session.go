package crawl

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fwojciec/linkmap"
	"golang.org/x/sync/singleflight"
)

var _ linkmap.SkipRecorder = (*Session)(nil)

// Session holds the state shared by every phase of a single links request:
// visited URLs with their fetch times, scraped pages, skipped URLs, the
// global link set and per-page extracted links. Session is safe for
// concurrent use by multiple goroutines.
type Session struct {
	scraper linkmap.Scraper
	rootKey string
	opts    linkmap.ScrapeOptions
	now     func() time.Time

	group singleflight.Group
	links *linkmap.LinkSet

	mu        sync.Mutex
	visited   map[string]time.Time
	order     []string
	pages     map[string]*linkmap.ScrapedPage
	failed    map[string]bool
	skipped   map[string]string
	skipOrder []string
	extracted map[string]*linkmap.ExtractedLinks
}

// NewSession returns an empty session. Scrapes request metadata always,
// cleaned HTML per opts, and robots / sitemap per opts but only for rootKey.
func NewSession(scraper linkmap.Scraper, rootKey string, opts linkmap.ScrapeOptions, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		scraper:   scraper,
		rootKey:   rootKey,
		opts:      opts,
		now:       now,
		links:     linkmap.NewLinkSet(),
		visited:   make(map[string]time.Time),
		pages:     make(map[string]*linkmap.ScrapedPage),
		failed:    make(map[string]bool),
		skipped:   make(map[string]string),
		extracted: make(map[string]*linkmap.ExtractedLinks),
	}
}

// ScrapeIfNotVisited returns the page for url, scraping it at most once per
// session. Concurrent callers for the same URL share one scrape. A failed
// scrape is recorded as skipped and yields nil, and is not retried within
// the session.
func (s *Session) ScrapeIfNotVisited(ctx context.Context, url string) *linkmap.ScrapedPage {
	if page, done := s.lookup(url); done {
		return page
	}

	v, _, _ := s.group.Do(url, func() (any, error) {
		// A scrape for url may have finished between lookup and Do.
		if page, done := s.lookup(url); done {
			return page, nil
		}

		opts := s.opts
		opts.Metadata = true
		if url != s.rootKey {
			opts.Robots = false
			opts.SitemapXML = false
		}

		page, err := s.scraper.Scrape(ctx, url, opts)
		if err == nil && (page == nil || page.RawHTML == "") {
			err = linkmap.Errorf(linkmap.EINTERNAL, "empty response")
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.failed[url] = true
			s.recordLocked(url, failureReason(err))
			return (*linkmap.ScrapedPage)(nil), nil
		}
		s.visited[url] = s.now()
		s.order = append(s.order, url)
		s.pages[url] = page
		// Another page may have reported url as skipped while it was in flight.
		s.dropSkipLocked(url)
		return page, nil
	})
	return v.(*linkmap.ScrapedPage)
}

func (s *Session) lookup(url string) (*linkmap.ScrapedPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page, ok := s.pages[url]; ok {
		return page, true
	}
	return nil, s.failed[url]
}

func failureReason(err error) string {
	var e *linkmap.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RecordSkip implements linkmap.SkipRecorder. URLs that were fetched
// successfully are never reported as skipped, and the first reason wins.
func (s *Session) RecordSkip(url, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pages[url]; ok {
		return
	}
	s.recordLocked(url, reason)
}

// Fail records url as skipped even if it was fetched, e.g. when its links
// could not be extracted.
func (s *Session) Fail(url, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(url, reason)
}

func (s *Session) recordLocked(url, reason string) {
	if _, ok := s.skipped[url]; ok {
		return
	}
	s.skipped[url] = reason
	s.skipOrder = append(s.skipOrder, url)
}

func (s *Session) dropSkipLocked(url string) {
	if _, ok := s.skipped[url]; !ok {
		return
	}
	delete(s.skipped, url)
	for i, u := range s.skipOrder {
		if u == url {
			s.skipOrder = append(s.skipOrder[:i], s.skipOrder[i+1:]...)
			break
		}
	}
}

// MergeLinks adds a page's links to the global link set. When keep is set
// the page's own extraction is retained under url.
func (s *Session) MergeLinks(url string, links *linkmap.ExtractedLinks, keep bool) {
	s.links.Merge(links)
	if !keep || links == nil {
		return
	}
	s.mu.Lock()
	s.extracted[url] = links
	s.mu.Unlock()
}

// Links returns the global link set.
func (s *Session) Links() *linkmap.LinkSet { return s.links }

// Page returns the scraped page for url, or nil.
func (s *Session) Page(url string) *linkmap.ScrapedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[url]
}

// SkipReason returns the recorded reason url was skipped.
func (s *Session) SkipReason(url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reason, ok := s.skipped[url]
	return reason, ok
}

// Visited returns a copy of the fetch time of every URL scraped so far.
func (s *Session) Visited() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]time.Time, len(s.visited))
	for u, t := range s.visited {
		m[u] = t
	}
	return m
}

// VisitedOrder returns the scraped URLs in the order they completed.
func (s *Session) VisitedOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Pages returns a copy of the scraped pages keyed by URL.
func (s *Session) Pages() map[string]*linkmap.ScrapedPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]*linkmap.ScrapedPage, len(s.pages))
	for u, p := range s.pages {
		m[u] = p
	}
	return m
}

// Skipped returns the skipped URLs in the order they were first recorded.
func (s *Session) Skipped() []linkmap.SkippedURL {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]linkmap.SkippedURL, 0, len(s.skipOrder))
	for _, u := range s.skipOrder {
		out = append(out, linkmap.SkippedURL{URL: u, Reason: s.skipped[u]})
	}
	return out
}

// SkipReasons returns a copy of the skip reasons keyed by URL.
func (s *Session) SkipReasons() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]string, len(s.skipped))
	for u, r := range s.skipped {
		m[u] = r
	}
	return m
}

// Extracted returns a copy of the retained per-page links keyed by URL.
func (s *Session) Extracted() map[string]*linkmap.ExtractedLinks {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]*linkmap.ExtractedLinks, len(s.extracted))
	for u, l := range s.extracted {
		m[u] = l
	}
	return m
}
