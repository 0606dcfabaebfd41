package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/sitetree"
)

// respond assembles the successful response. In tree mode page content
// lives on the tree nodes; in flat mode it lives on the response itself.
func (r *run) respond(ctx context.Context, start time.Time) (*linkmap.LinksResponse, error) {
	now := r.crawler.now()
	resp := &linkmap.LinksResponse{
		Success:   true,
		TargetURL: r.target,
		Timestamp: now,
	}
	if root := r.session.Page(r.rootKey); root != nil && !root.MetaFiles.IsEmpty() {
		resp.MetaFiles = root.MetaFiles
	}
	skipped := sitetree.CategorizeSkipped(r.session.Skipped(), r.rootKey, r.linkOpts.Subdomains)

	if !r.req.WantTree() {
		r.flat(resp, skipped)
		resp.ExecutionTime = r.elapsed(start)
		return resp, nil
	}

	tree, err := r.buildTree(now)
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINTERNAL, "build site tree: %v", err)
	}
	tree.SkippedURLs = skipped
	tree.ExecutionTime = r.elapsed(start)
	sitetree.ProjectExtractedLinks(tree, r.req.WantExtractedLinks(), r.session.Extracted())

	if r.crawler.Cache != nil {
		r.crawler.Cache.Write(ctx, r.rootKey, tree, r.cacheMetadata(now))
	}

	// Content that is never cached is attached after the write.
	if r.req.WantCleanedHTML() {
		tree, err = sitetree.Merge(tree, sitetree.BuildInput{
			RootURL:     r.rootKey,
			Metadata:    r.metadata(),
			CleanedHTML: r.cleanedHTML(),
			FolderFirst: r.req.WantFolderFirst(),
			Order:       r.req.Order(),
			Now:         now,
		})
		if err != nil {
			return nil, linkmap.Errorf(linkmap.EINTERNAL, "attach cleaned html: %v", err)
		}
	}
	if !r.req.WantMetadata() {
		tree.Walk(func(n *linkmap.Tree) bool {
			n.Metadata = nil
			return true
		})
	}

	resp.Tree = tree
	return resp, nil
}

func (r *run) flat(resp *linkmap.LinksResponse, skipped *linkmap.SkippedLinks) {
	if page := r.session.Page(r.target); page != nil {
		resp.Title = page.Title
		resp.Description = page.Description
		if r.req.WantMetadata() {
			resp.Metadata = page.Metadata
		}
		if r.req.WantCleanedHTML() {
			resp.CleanedHTML = page.CleanedHTML
		}
	}
	if links := r.session.Links().Snapshot(); !links.IsEmpty() {
		resp.ExtractedLinks = links
	}
	resp.SkippedURLs = skipped
}

// buildTree grafts this request's URLs onto the cached tree, or builds a
// new tree when nothing fresh was cached.
func (r *run) buildTree(now time.Time) (*linkmap.Tree, error) {
	visited := r.session.Visited()
	touched := make(map[string]bool, len(visited))
	for u := range visited {
		touched[u] = true
	}

	in := sitetree.BuildInput{
		RootURL:     r.rootKey,
		URLs:        append(r.session.Links().Internal(), r.session.VisitedOrder()...),
		Subdomains:  r.linkOpts.Subdomains,
		Visited:     sitetree.VisitedMap(sitetree.MergeVisited(r.previous, visited)),
		Touched:     touched,
		Errors:      r.session.SkipReasons(),
		FolderFirst: r.req.WantFolderFirst(),
		Order:       r.req.Order(),
		Now:         now,
	}
	if r.req.WantMetadata() {
		in.Metadata = r.metadata()
	}

	if r.existing != nil {
		return sitetree.Merge(r.existing.Tree, in)
	}
	return sitetree.Build(in)
}

func (r *run) metadata() map[string]*linkmap.PageMetadata {
	m := make(map[string]*linkmap.PageMetadata)
	for u, p := range r.session.Pages() {
		if p.Metadata != nil {
			m[u] = p.Metadata
		}
	}
	return m
}

func (r *run) cleanedHTML() map[string]string {
	m := make(map[string]string)
	for u, p := range r.session.Pages() {
		if p.CleanedHTML != "" {
			m[u] = p.CleanedHTML
		}
	}
	return m
}

// cacheMetadata describes the root page when it was fetched, else the target.
func (r *run) cacheMetadata(now time.Time) linkmap.CacheMetadata {
	meta := linkmap.CacheMetadata{Timestamp: now}
	page := r.session.Page(r.rootKey)
	if page == nil {
		page = r.session.Page(r.target)
	}
	if page != nil {
		meta.Title = page.Title
		meta.Description = page.Description
	}
	return meta
}
