package linkmap

import "time"

// Tree is a node in a site tree. Each node represents one URL and the
// URLs discovered beneath it. The root node additionally carries request
// level data such as skipped URLs and the execution time.
type Tree struct {
	URL            string          `json:"url"`
	RootURL        string          `json:"rootUrl,omitempty"`
	Name           string          `json:"name"`
	TotalURLs      int             `json:"totalUrls"`
	LastUpdated    time.Time       `json:"lastUpdated"`
	LastVisited    *time.Time      `json:"lastVisited"`
	Error          string          `json:"error,omitempty"`
	Metadata       *PageMetadata   `json:"metadata,omitempty"`
	CleanedHTML    string          `json:"cleanedHtml,omitempty"`
	ExtractedLinks *ExtractedLinks `json:"extractedLinks,omitempty"`
	SkippedURLs    *SkippedLinks   `json:"skippedUrls,omitempty"`
	ExecutionTime  string          `json:"executionTime,omitempty"`
	Children       []*Tree         `json:"children,omitempty"`
}

// Walk calls fn for t and every descendant in pre-order.
// Returning false from fn stops descent into that node's children.
func (t *Tree) Walk(fn func(node *Tree) bool) {
	if t == nil {
		return
	}
	if !fn(t) {
		return
	}
	for _, child := range t.Children {
		child.Walk(fn)
	}
}

// Find returns the node with the given URL, or nil.
func (t *Tree) Find(url string) *Tree {
	var found *Tree
	t.Walk(func(node *Tree) bool {
		if found != nil {
			return false
		}
		if node.URL == url {
			found = node
			return false
		}
		return true
	})
	return found
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := *t
	if t.LastVisited != nil {
		v := *t.LastVisited
		c.LastVisited = &v
	}
	if t.Metadata != nil {
		m := *t.Metadata
		c.Metadata = &m
	}
	c.ExtractedLinks = t.ExtractedLinks.Clone()
	c.SkippedURLs = t.SkippedURLs.Clone()
	if t.Children != nil {
		c.Children = make([]*Tree, len(t.Children))
		for i, child := range t.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// VisitedURL records the last time a URL was actually fetched.
type VisitedURL struct {
	URL         string    `json:"url"`
	LastVisited time.Time `json:"lastVisited"`
}

// SkippedURL is a URL that was considered but not fetched or processed.
type SkippedURL struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// SkippedLinks groups skipped URLs by where they point.
type SkippedLinks struct {
	Internal []SkippedURL `json:"internal,omitempty"`
	External []SkippedURL `json:"external,omitempty"`
	Media    *SkippedMedia `json:"media,omitempty"`
	Other    []SkippedURL `json:"other,omitempty"`
}

// SkippedMedia groups skipped media URLs by kind.
type SkippedMedia struct {
	Images    []SkippedURL `json:"images,omitempty"`
	Videos    []SkippedURL `json:"videos,omitempty"`
	Documents []SkippedURL `json:"documents,omitempty"`
}

// Len returns the total number of skipped URLs.
func (s *SkippedLinks) Len() int {
	if s == nil {
		return 0
	}
	n := len(s.Internal) + len(s.External) + len(s.Other)
	if s.Media != nil {
		n += len(s.Media.Images) + len(s.Media.Videos) + len(s.Media.Documents)
	}
	return n
}

// Clone returns a deep copy.
func (s *SkippedLinks) Clone() *SkippedLinks {
	if s == nil {
		return nil
	}
	c := &SkippedLinks{
		Internal: append([]SkippedURL(nil), s.Internal...),
		External: append([]SkippedURL(nil), s.External...),
		Other:    append([]SkippedURL(nil), s.Other...),
	}
	if s.Media != nil {
		c.Media = &SkippedMedia{
			Images:    append([]SkippedURL(nil), s.Media.Images...),
			Videos:    append([]SkippedURL(nil), s.Media.Videos...),
			Documents: append([]SkippedURL(nil), s.Media.Documents...),
		}
	}
	return c
}
