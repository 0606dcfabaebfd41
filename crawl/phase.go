package crawl

import (
	"context"

	"github.com/fwojciec/linkmap"
	"golang.org/x/sync/errgroup"
)

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeTargetFailed
)

// phaseOutcome is the result of the target phase. Only the target phase
// can fail a request; every other phase degrades to skipped URLs.
type phaseOutcome struct {
	kind    outcomeKind
	message string
}

func targetFailed(message string) phaseOutcome {
	return phaseOutcome{kind: outcomeTargetFailed, message: message}
}

// targetPhase fetches the requested URL and merges its links.
func (r *run) targetPhase(ctx context.Context) phaseOutcome {
	page := r.session.ScrapeIfNotVisited(ctx, r.target)
	if page == nil {
		reason, ok := r.session.SkipReason(r.target)
		if !ok {
			reason = "fetch failed"
		}
		return targetFailed(reason)
	}

	links, err := r.crawler.Links.ExtractLinks(page.RawHTML, r.target, r.rootKey, r.linkOpts, r.session)
	if err != nil {
		return targetFailed("extract links: " + err.Error())
	}
	r.session.MergeLinks(r.target, links, r.req.WantExtractedLinks())
	return phaseOutcome{kind: outcomeOK}
}

// rootPhase fetches the root when it differs from the target, then visits
// the root's immediate descendants.
func (r *run) rootPhase(ctx context.Context) {
	if r.target == r.rootKey {
		return
	}
	links := r.visit(ctx, r.rootKey)
	if links == nil {
		return
	}
	r.kin(ctx, r.capped(r.crawler.Topology.DescendantPaths(r.rootKey, links.Internal)))
}

// ancestorPhase visits every ancestor of the target below the root.
func (r *run) ancestorPhase(ctx context.Context) {
	var paths []string
	for _, p := range r.crawler.Topology.AncestorPaths(r.target) {
		if p == r.rootKey || p == r.target || !linkmap.IsUnderRoot(r.rootKey, p, r.linkOpts.Subdomains) {
			continue
		}
		paths = append(paths, p)
	}
	r.settle(ctx, r.capped(paths), false)
}

// kin visits paths concurrently. Paths already visited according to a
// fresh cache are skipped unless cleaned HTML was requested.
func (r *run) kin(ctx context.Context, paths []string) {
	r.settle(ctx, paths, true)
}

func (r *run) settle(ctx context.Context, paths []string, shortCircuit bool) {
	if len(paths) == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(r.crawler.concurrency())
	for _, p := range paths {
		if shortCircuit && r.cached(p) {
			continue
		}
		g.Go(func() error {
			r.visit(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) cached(url string) bool {
	if r.existing == nil || r.req.WantCleanedHTML() {
		return false
	}
	_, ok := r.previousSet[url]
	return ok
}

// visit scrapes url and merges its links. Failures are recorded as skipped
// and yield nil.
func (r *run) visit(ctx context.Context, url string) *linkmap.ExtractedLinks {
	page := r.session.ScrapeIfNotVisited(ctx, url)
	if page == nil {
		return nil
	}
	links, err := r.crawler.Links.ExtractLinks(page.RawHTML, url, r.rootKey, r.linkOpts, r.session)
	if err != nil {
		r.logger().Debug("extract links failed", "url", url, "error", err)
		r.session.Fail(url, "extract links: "+err.Error())
		return nil
	}
	r.session.MergeLinks(url, links, r.req.WantExtractedLinks())
	return links
}
