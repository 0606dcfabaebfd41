// Package sitetree reduces a flat set of discovered URLs into a
// hierarchical linkmap.Tree, or merges new URLs into an existing one.
//
// Node identity is the URL. Each path segment below the root becomes one
// tree level. When subdomains belong to the site, URLs on a subdomain of
// the root host are grouped under a first-level node for their origin.
// Query strings stay on the leaf.
package sitetree

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/linkmap"
)

// BuildInput carries everything needed to build or merge a tree.
// All maps are keyed by normalized URL and may be nil.
type BuildInput struct {
	RootURL string

	// URLs are the discovered URLs in first-seen order. URLs that are not
	// under RootURL are ignored.
	URLs []string

	// Subdomains places URLs on subdomains of the root host in the tree.
	// Otherwise only the root host itself is under RootURL.
	Subdomains bool

	// Visited holds the last fetch time of each URL.
	Visited map[string]time.Time

	// Touched marks existing nodes whose lastUpdated is refreshed on merge.
	// Newly inserted nodes are always refreshed.
	Touched map[string]bool

	Metadata       map[string]*linkmap.PageMetadata
	CleanedHTML    map[string]string
	ExtractedLinks map[string]*linkmap.ExtractedLinks
	Errors         map[string]string

	FolderFirst bool
	Order       linkmap.LinksOrder
	Now         time.Time
}

// Build returns a new tree rooted at in.RootURL containing in.URLs.
// Returns EINVALID if the root URL cannot be parsed.
func Build(in BuildInput) (*linkmap.Tree, error) {
	b, err := newBuilder(in, nil)
	if err != nil {
		return nil, err
	}
	return b.finish(), nil
}

// Merge returns a copy of existing with in.URLs grafted on. Nodes already
// present are updated in place in the copy; existing is never modified.
func Merge(existing *linkmap.Tree, in BuildInput) (*linkmap.Tree, error) {
	if existing == nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "existing tree required")
	}
	b, err := newBuilder(in, existing.Clone())
	if err != nil {
		return nil, err
	}
	return b.finish(), nil
}

type builder struct {
	in       BuildInput
	root     *linkmap.Tree
	index    map[string]*linkmap.Tree
	inserted map[string]bool
	base     *url.URL
	basePath string
}

func newBuilder(in BuildInput, root *linkmap.Tree) (*builder, error) {
	rootURL := in.RootURL
	if root != nil {
		rootURL = root.URL
	}
	normalized, err := linkmap.NormalizeURL(rootURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "invalid root URL %q: %v", rootURL, err)
	}

	b := &builder{
		in:       in,
		index:    make(map[string]*linkmap.Tree),
		inserted: make(map[string]bool),
		base:     base,
		basePath: strings.TrimRight(base.Path, "/"),
	}

	if root == nil {
		root = &linkmap.Tree{
			URL:         normalized,
			RootURL:     normalized,
			Name:        base.Host + b.basePath,
			LastUpdated: in.Now,
		}
		b.inserted[normalized] = true
	}
	b.root = root
	root.Walk(func(n *linkmap.Tree) bool {
		b.index[n.URL] = n
		return true
	})

	for _, u := range in.URLs {
		b.insert(u)
	}
	return b, nil
}

func (b *builder) finish() *linkmap.Tree {
	b.root.Walk(func(n *linkmap.Tree) bool {
		b.enrich(n)
		return true
	})
	b.arrange(b.root)
	count(b.root)
	return b.root
}

type step struct {
	url  string
	name string
}

// steps returns the chain of nodes from just below the root down to raw.
func (b *builder) steps(raw string) []step {
	if raw == b.root.URL || !linkmap.IsUnderRoot(b.root.URL, raw, b.in.Subdomains) {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	var chain []step
	prefix := b.base.Scheme + "://" + b.base.Host + b.basePath
	p := strings.TrimRight(u.Path, "/")
	if !strings.EqualFold(u.Host, b.base.Host) {
		prefix = u.Scheme + "://" + u.Host
		chain = append(chain, step{url: prefix, name: u.Host})
	} else {
		p = strings.TrimPrefix(p, b.basePath)
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		prefix += "/" + seg
		chain = append(chain, step{url: prefix, name: seg})
	}

	if u.RawQuery != "" {
		if len(chain) == 0 {
			chain = append(chain, step{url: raw, name: "?" + u.RawQuery})
		} else {
			last := &chain[len(chain)-1]
			last.url = raw
			last.name += "?" + u.RawQuery
		}
	}
	return chain
}

func (b *builder) insert(raw string) {
	parent := b.root
	for _, s := range b.steps(raw) {
		node, ok := b.index[s.url]
		if !ok {
			node = &linkmap.Tree{URL: s.url, Name: s.name, LastUpdated: b.in.Now}
			parent.Children = append(parent.Children, node)
			b.index[s.url] = node
			b.inserted[s.url] = true
		}
		parent = node
	}
}

func (b *builder) enrich(n *linkmap.Tree) {
	touched := b.inserted[n.URL] || b.in.Touched[n.URL]
	if touched {
		n.LastUpdated = b.in.Now
	}
	if t, ok := b.in.Visited[n.URL]; ok {
		n.LastVisited = &t
	}
	if m := b.in.Metadata[n.URL]; m != nil {
		c := *m
		n.Metadata = &c
	}
	if h := b.in.CleanedHTML[n.URL]; h != "" {
		n.CleanedHTML = h
	}
	if l := b.in.ExtractedLinks[n.URL]; l != nil {
		n.ExtractedLinks = l.Clone()
	}
	if e, ok := b.in.Errors[n.URL]; ok {
		n.Error = e
	} else if touched {
		n.Error = ""
	}
}

func (b *builder) arrange(n *linkmap.Tree) {
	for _, c := range n.Children {
		b.arrange(c)
	}
	if b.in.Order == linkmap.LinksOrderAlphabetical {
		sort.SliceStable(n.Children, func(i, j int) bool {
			return n.Children[i].URL < n.Children[j].URL
		})
	}
	if b.in.FolderFirst {
		sort.SliceStable(n.Children, func(i, j int) bool {
			return len(n.Children[i].Children) > 0 && len(n.Children[j].Children) == 0
		})
	}
}

func count(n *linkmap.Tree) int {
	total := 1
	for _, c := range n.Children {
		total += count(c)
	}
	n.TotalURLs = total
	return total
}
