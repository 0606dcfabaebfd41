// Package goquery extracts links and metadata from HTML using goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/linkmap"
)

var _ linkmap.LinkExtractor = (*LinkExtractor)(nil)

// Skip reasons recorded for links that are found but not kept.
const (
	ReasonExcluded    = "excluded by pattern"
	ReasonExternal    = "external link"
	ReasonMedia       = "media link"
	ReasonUnsupported = "unsupported scheme"
	ReasonUnparseable = "unparseable URL"
)

// mediaSelectors find embedded media. They are only used when media links
// are requested; anchors pointing at media files are always classified.
var mediaSelectors = []struct {
	selector string
	attr     string
}{
	{"img[src]", "src"},
	{"video[src]", "src"},
	{"video source[src]", "src"},
	{"audio source[src]", "src"},
	{"object[data]", "data"},
	{"embed[src]", "src"},
}

// LinkExtractor implements linkmap.LinkExtractor.
type LinkExtractor struct{}

// NewLinkExtractor returns a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks returns the page's links categorized relative to rootURL.
// Links are normalized and deduplicated, keeping document order.
// Self-references and javascript: links are dropped silently.
func (e *LinkExtractor) ExtractLinks(html, baseURL, rootURL string, opts linkmap.LinkOptions, skipped linkmap.SkipRecorder) (*linkmap.ExtractedLinks, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "invalid base URL: %v", err)
	}
	self, err := linkmap.NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "failed to parse HTML: %v", err)
	}

	// <base href> changes how relative links resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	c := &collector{
		self:    self,
		rootURL: rootURL,
		opts:    opts,
		skipped: skipped,
		seen:    make(map[string]struct{}),
		links:   &linkmap.ExtractedLinks{},
	}

	doc.Find("a[href], area[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		c.add(base, href, false)
	})

	if opts.IncludeMedia {
		for _, m := range mediaSelectors {
			doc.Find(m.selector).Each(func(_ int, sel *goquery.Selection) {
				src, _ := sel.Attr(m.attr)
				c.add(base, src, true)
			})
		}
	}

	return c.links, nil
}

type collector struct {
	self    string
	rootURL string
	opts    linkmap.LinkOptions
	skipped linkmap.SkipRecorder
	seen    map[string]struct{}
	links   *linkmap.ExtractedLinks
}

func (c *collector) add(base *url.URL, href string, embedded bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
		return
	}

	resolved := resolveURL(base, href)
	if resolved == "" {
		c.skip(href, ReasonUnparseable)
		return
	}
	if !isHTTP(resolved) {
		c.skip(resolved, ReasonUnsupported)
		return
	}

	normalized, err := linkmap.NormalizeURL(resolved)
	if err != nil {
		c.skip(resolved, ReasonUnparseable)
		return
	}
	if c.opts.RemoveQueryParams {
		normalized = linkmap.StripQuery(normalized)
	}
	if normalized == c.self || normalized == linkmap.StripQuery(c.self) {
		return
	}
	if _, ok := c.seen[normalized]; ok {
		return
	}
	c.seen[normalized] = struct{}{}

	if !c.opts.Filter.Match(normalized) {
		c.skip(normalized, ReasonExcluded)
		return
	}

	if kind := linkmap.MediaTypeOf(normalized); kind != linkmap.MediaNone {
		if !c.opts.IncludeMedia {
			c.skip(normalized, ReasonMedia)
			return
		}
		c.addMedia(kind, normalized)
		return
	}
	if embedded {
		// Embedded resources without a known media extension are not pages.
		return
	}

	if linkmap.IsUnderRoot(c.rootURL, normalized, c.opts.Subdomains) {
		c.links.Internal = append(c.links.Internal, normalized)
		return
	}
	if !c.opts.IncludeExternal {
		c.skip(normalized, ReasonExternal)
		return
	}
	c.links.External = append(c.links.External, normalized)
}

func (c *collector) addMedia(kind linkmap.MediaType, u string) {
	if c.links.Media == nil {
		c.links.Media = &linkmap.MediaLinks{}
	}
	switch kind {
	case linkmap.MediaImage:
		c.links.Media.Images = append(c.links.Media.Images, u)
	case linkmap.MediaVideo:
		c.links.Media.Videos = append(c.links.Media.Videos, u)
	case linkmap.MediaDocument:
		c.links.Media.Documents = append(c.links.Media.Documents, u)
	}
}

func (c *collector) skip(u, reason string) {
	if c.skipped != nil {
		c.skipped.RecordSkip(u, reason)
	}
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed.
// Fragments are stripped from the resolved URL for deduplication purposes.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	return resolved.String()
}

func isHTTP(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
