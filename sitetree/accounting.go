package sitetree

import (
	"net/url"
	"sort"
	"time"

	"github.com/fwojciec/linkmap"
)

// ProjectExtractedLinks keeps or strips each node's extractedLinks.
// With include, nodes found in links get that value and other nodes keep
// what they had. Without include, every node's links are removed.
func ProjectExtractedLinks(tree *linkmap.Tree, include bool, links map[string]*linkmap.ExtractedLinks) {
	tree.Walk(func(n *linkmap.Tree) bool {
		if !include {
			n.ExtractedLinks = nil
			return true
		}
		if l := links[n.URL]; l != nil {
			n.ExtractedLinks = l.Clone()
		}
		return true
	})
}

// CategorizeSkipped partitions skipped URLs by where they point relative to
// rootURL. Unparseable or non-HTTP URLs are other and known media
// extensions are media. URLs under the root are internal, with subdomains
// counted as under it only when subdomains is set. The rest are external.
// Returns nil when nothing was skipped.
func CategorizeSkipped(skipped []linkmap.SkippedURL, rootURL string, subdomains bool) *linkmap.SkippedLinks {
	if len(skipped) == 0 {
		return nil
	}

	out := &linkmap.SkippedLinks{}
	media := &linkmap.SkippedMedia{}
	for _, s := range skipped {
		u, err := url.Parse(s.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			out.Other = append(out.Other, s)
			continue
		}
		switch linkmap.MediaTypeOf(s.URL) {
		case linkmap.MediaImage:
			media.Images = append(media.Images, s)
			continue
		case linkmap.MediaVideo:
			media.Videos = append(media.Videos, s)
			continue
		case linkmap.MediaDocument:
			media.Documents = append(media.Documents, s)
			continue
		}
		if linkmap.IsUnderRoot(rootURL, s.URL, subdomains) {
			out.Internal = append(out.Internal, s)
		} else {
			out.External = append(out.External, s)
		}
	}
	if len(media.Images)+len(media.Videos)+len(media.Documents) > 0 {
		out.Media = media
	}
	return out
}

// MergeVisited unions previously known visits with this request's visits.
// Timestamps from current win. Previous order is kept; URLs new in current
// follow, sorted by URL.
func MergeVisited(previous []linkmap.VisitedURL, current map[string]time.Time) []linkmap.VisitedURL {
	merged := make([]linkmap.VisitedURL, 0, len(previous)+len(current))
	seen := make(map[string]bool, len(previous)+len(current))
	for _, v := range previous {
		if seen[v.URL] {
			continue
		}
		seen[v.URL] = true
		if t, ok := current[v.URL]; ok {
			v.LastVisited = t
		}
		merged = append(merged, v)
	}

	var added []string
	for u := range current {
		if !seen[u] {
			added = append(added, u)
		}
	}
	sort.Strings(added)
	for _, u := range added {
		merged = append(merged, linkmap.VisitedURL{URL: u, LastVisited: current[u]})
	}
	return merged
}

// VisitedFromTree returns every node of tree that records a visit.
func VisitedFromTree(tree *linkmap.Tree) []linkmap.VisitedURL {
	var visited []linkmap.VisitedURL
	tree.Walk(func(n *linkmap.Tree) bool {
		if n.LastVisited != nil {
			visited = append(visited, linkmap.VisitedURL{URL: n.URL, LastVisited: *n.LastVisited})
		}
		return true
	})
	return visited
}

// VisitedMap indexes visits by URL.
func VisitedMap(visited []linkmap.VisitedURL) map[string]time.Time {
	m := make(map[string]time.Time, len(visited))
	for _, v := range visited {
		m[v.URL] = v.LastVisited
	}
	return m
}

// StripCleanedHTML removes cleanedHtml from every node.
func StripCleanedHTML(tree *linkmap.Tree) {
	tree.Walk(func(n *linkmap.Tree) bool {
		n.CleanedHTML = ""
		return true
	})
}
