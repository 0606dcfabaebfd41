package linkmap

import "sync"

// ExtractedLinks holds categorized links, either for a single page or for
// a whole crawl.
type ExtractedLinks struct {
	Internal []string    `json:"internal,omitempty"`
	External []string    `json:"external,omitempty"`
	Media    *MediaLinks `json:"media,omitempty"`
}

// MediaLinks groups media links by kind.
type MediaLinks struct {
	Images    []string `json:"images,omitempty"`
	Videos    []string `json:"videos,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// IsEmpty reports whether no links are present.
func (l *ExtractedLinks) IsEmpty() bool {
	if l == nil {
		return true
	}
	if len(l.Internal) > 0 || len(l.External) > 0 {
		return false
	}
	return l.Media == nil || len(l.Media.Images)+len(l.Media.Videos)+len(l.Media.Documents) == 0
}

// Clone returns a deep copy.
func (l *ExtractedLinks) Clone() *ExtractedLinks {
	if l == nil {
		return nil
	}
	c := &ExtractedLinks{
		Internal: append([]string(nil), l.Internal...),
		External: append([]string(nil), l.External...),
	}
	if l.Media != nil {
		c.Media = &MediaLinks{
			Images:    append([]string(nil), l.Media.Images...),
			Videos:    append([]string(nil), l.Media.Videos...),
			Documents: append([]string(nil), l.Media.Documents...),
		}
	}
	return c
}

// LinkSet accumulates categorized links across a crawl.
// Sets only grow and keep first-seen order. LinkSet is safe for
// concurrent use by multiple goroutines.
type LinkSet struct {
	mu        sync.Mutex
	internal  orderedSet
	external  orderedSet
	images    orderedSet
	videos    orderedSet
	documents orderedSet
}

// NewLinkSet returns an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{}
}

// Merge adds a page's links to the set and returns how many were new.
func (s *LinkSet) Merge(links *ExtractedLinks) int {
	if links == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.internal.addAll(links.Internal) + s.external.addAll(links.External)
	if links.Media != nil {
		added += s.images.addAll(links.Media.Images)
		added += s.videos.addAll(links.Media.Videos)
		added += s.documents.addAll(links.Media.Documents)
	}
	return added
}

// Internal returns a copy of the internal links in first-seen order.
func (s *LinkSet) Internal() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internal.list()
}

// Len returns the total number of links across all categories.
func (s *LinkSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.internal.items) + len(s.external.items) +
		len(s.images.items) + len(s.videos.items) + len(s.documents.items)
}

// Snapshot returns a copy of the current contents.
func (s *LinkSet) Snapshot() *ExtractedLinks {
	s.mu.Lock()
	defer s.mu.Unlock()

	links := &ExtractedLinks{
		Internal: s.internal.list(),
		External: s.external.list(),
	}
	if len(s.images.items)+len(s.videos.items)+len(s.documents.items) > 0 {
		links.Media = &MediaLinks{
			Images:    s.images.list(),
			Videos:    s.videos.list(),
			Documents: s.documents.list(),
		}
	}
	return links
}

// orderedSet is an insertion-ordered string set. Not safe for concurrent use.
type orderedSet struct {
	index map[string]struct{}
	items []string
}

func (s *orderedSet) addAll(values []string) int {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	added := 0
	for _, v := range values {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.items = append(s.items, v)
		added++
	}
	return added
}

func (s *orderedSet) list() []string {
	if len(s.items) == 0 {
		return nil
	}
	return append([]string(nil), s.items...)
}

// LinkOptions controls per-page link extraction.
type LinkOptions struct {
	IncludeExternal   bool
	IncludeMedia      bool
	RemoveQueryParams bool

	// Subdomains counts hosts beneath the root host as part of the site.
	// Set when the root is the registrable domain.
	Subdomains bool

	// Filter drops URLs it does not match. Dropped URLs are reported as
	// skipped.
	Filter *URLFilter
}

// SkipRecorder receives URLs that were considered but not kept.
type SkipRecorder interface {
	RecordSkip(url, reason string)
}

// LinkExtractor extracts categorized links from a single page.
type LinkExtractor interface {
	// ExtractLinks parses html fetched from baseURL and categorizes every
	// link relative to rootURL. Links dropped by opts are reported to skipped,
	// which may be nil.
	ExtractLinks(html, baseURL, rootURL string, opts LinkOptions, skipped SkipRecorder) (*ExtractedLinks, error)
}
