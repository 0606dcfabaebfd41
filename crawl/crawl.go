// Package crawl builds link maps. For a target URL it fetches the target,
// its site root and its ancestors concurrently, expands their immediate
// descendants, and assembles the discovered URLs into a site tree that is
// cached per logical root.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/sitetree"
	"golang.org/x/sync/errgroup"
)

// Defaults for a Crawler.
const (
	DefaultConcurrency = 10
	DefaultMaxKin      = 10
)

var _ linkmap.LinksService = (*Crawler)(nil)

// Crawler implements linkmap.LinksService.
type Crawler struct {
	Scraper  linkmap.Scraper
	Topology linkmap.LinkTopology
	Links    linkmap.LinkExtractor

	// Cache is optional. Without it every request builds a fresh tree.
	Cache linkmap.SiteTreeCache

	Logger *slog.Logger

	// Concurrency bounds the scrapes of one kin batch.
	Concurrency int

	// MaxKin bounds how many ancestors or descendants one batch visits.
	MaxKin int

	Now func() time.Time
}

// ProcessLinksRequest implements linkmap.LinksService.
func (c *Crawler) ProcessLinksRequest(ctx context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := c.now()

	target, err := linkmap.NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}
	linkOpts, err := req.LinkOptions()
	if err != nil {
		return nil, err
	}
	rootKey, err := c.rootKey(target, req.SubdomainAsRoot())
	if err != nil {
		return nil, err
	}

	var existing *linkmap.CacheEntry
	if req.WantTree() && c.Cache != nil {
		existing = c.Cache.Read(ctx, rootKey)
	}

	r := &run{
		crawler:  c,
		req:      req,
		target:   target,
		rootKey:  rootKey,
		linkOpts: linkOpts,
		existing: existing,
		session: NewSession(c.Scraper, rootKey, linkmap.ScrapeOptions{
			CleanedHTML: req.WantCleanedHTML(),
			Robots:      req.WantRobots(),
			SitemapXML:  req.WantSitemapXML(),
		}, c.now),
	}
	if existing != nil {
		r.previous = sitetree.VisitedFromTree(existing.Tree)
		r.previousSet = sitetree.VisitedMap(r.previous)
	}

	c.logger().Debug("links request", "url", target, "root", rootKey, "cached", existing != nil)

	if outcome := r.discover(ctx); outcome.kind == outcomeTargetFailed {
		lerr := &linkmap.LinksError{
			TargetURL: target,
			Message:   outcome.message,
			Timestamp: c.now(),
		}
		if existing != nil {
			lerr.Tree = existing.Tree
		}
		return nil, lerr
	}

	if target == rootKey {
		r.kin(ctx, r.capped(c.Topology.DescendantPaths(target, r.session.Links().Internal())))
	}

	resp, err := r.respond(ctx, start)
	if err != nil {
		return nil, err
	}
	c.logger().Debug("links response",
		"url", target,
		"visited", len(r.session.VisitedOrder()),
		"links", r.session.Links().Len(),
		"duration", resp.ExecutionTime,
	)
	return resp, nil
}

// rootKey returns the platform root for URLs on shared platforms and the
// site root otherwise.
func (c *Crawler) rootKey(target string, subdomainAsRoot bool) (string, error) {
	if c.Topology.IsPlatform(target) {
		return c.Topology.PlatformRootURL(target), nil
	}
	root, err := c.Topology.RootURL(target, subdomainAsRoot)
	if err != nil {
		return "", err
	}
	return linkmap.NormalizeURL(root)
}

func (c *Crawler) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Crawler) maxKin() int {
	if c.MaxKin <= 0 {
		return DefaultMaxKin
	}
	return c.MaxKin
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// run is the state of one ProcessLinksRequest call.
type run struct {
	crawler  *Crawler
	req      *linkmap.LinksRequest
	session  *Session
	target   string
	rootKey  string
	linkOpts linkmap.LinkOptions

	existing    *linkmap.CacheEntry
	previous    []linkmap.VisitedURL
	previousSet map[string]time.Time
}

// discover runs the target, root and ancestor phases concurrently and
// waits for all of them. A failed target cancels the other phases.
func (r *run) discover(ctx context.Context) phaseOutcome {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var target phaseOutcome
	var g errgroup.Group
	g.Go(func() error {
		target = r.targetPhase(ctx)
		if target.kind == outcomeTargetFailed {
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		r.rootPhase(ctx)
		return nil
	})
	g.Go(func() error {
		r.ancestorPhase(ctx)
		return nil
	})
	_ = g.Wait()
	return target
}

func (r *run) capped(paths []string) []string {
	if limit := r.crawler.maxKin(); len(paths) > limit {
		return paths[:limit]
	}
	return paths
}

func (r *run) logger() *slog.Logger { return r.crawler.logger() }

func (r *run) elapsed(start time.Time) string {
	return fmt.Sprintf("%dms", r.crawler.now().Sub(start).Milliseconds())
}
