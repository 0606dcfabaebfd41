package linkmap

import (
	"context"
	"encoding/json"
	"time"
)

// LinksOrder controls how sibling nodes are ordered in a tree.
type LinksOrder string

// Supported orderings.
const (
	LinksOrderPage         LinksOrder = "page"
	LinksOrderAlphabetical LinksOrder = "alphabetical"
)

// LinksRequest asks for the link map of a URL. Nil option fields are unset
// and resolve to their defaults through the accessor methods.
type LinksRequest struct {
	URL                string                 `json:"url"`
	Tree               *bool                  `json:"tree,omitempty"`
	Metadata           *bool                  `json:"metadata,omitempty"`
	CleanedHTML        *bool                  `json:"cleanedHtml,omitempty"`
	Robots             *bool                  `json:"robots,omitempty"`
	SitemapXML         *bool                  `json:"sitemapXML,omitempty"`
	SubdomainAsRootURL *bool                  `json:"subdomainAsRootUrl,omitempty"`
	FolderFirst        *bool                  `json:"folderFirst,omitempty"`
	LinksOrder         *LinksOrder            `json:"linksOrder,omitempty"`
	ExtractedLinks     *bool                  `json:"extractedLinks,omitempty"`
	LinkExtraction     *LinkExtractionOptions `json:"linkExtractionOptions,omitempty"`
}

// LinkExtractionOptions are the nested link extraction options of a request.
type LinkExtractionOptions struct {
	IncludeExternal   *bool    `json:"includeExternal,omitempty"`
	IncludeMedia      *bool    `json:"includeMedia,omitempty"`
	RemoveQueryParams *bool    `json:"removeQueryParams,omitempty"`
	IncludePatterns   []string `json:"includePatterns,omitempty"`
	ExcludePatterns   []string `json:"excludePatterns,omitempty"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// WantTree reports whether the response is tree shaped. Defaults to true.
func (r *LinksRequest) WantTree() bool { return boolOr(r.Tree, true) }

// WantMetadata defaults to true.
func (r *LinksRequest) WantMetadata() bool { return boolOr(r.Metadata, true) }

// WantCleanedHTML defaults to false.
func (r *LinksRequest) WantCleanedHTML() bool { return boolOr(r.CleanedHTML, false) }

// WantRobots defaults to false.
func (r *LinksRequest) WantRobots() bool { return boolOr(r.Robots, false) }

// WantSitemapXML defaults to false.
func (r *LinksRequest) WantSitemapXML() bool { return boolOr(r.SitemapXML, false) }

// SubdomainAsRoot reports whether a subdomain is its own root. Defaults to true.
func (r *LinksRequest) SubdomainAsRoot() bool { return boolOr(r.SubdomainAsRootURL, true) }

// WantFolderFirst defaults to true.
func (r *LinksRequest) WantFolderFirst() bool { return boolOr(r.FolderFirst, true) }

// WantExtractedLinks reports whether per-node links are kept. Defaults to true.
func (r *LinksRequest) WantExtractedLinks() bool { return boolOr(r.ExtractedLinks, true) }

// Order returns the sibling ordering. Defaults to LinksOrderPage.
func (r *LinksRequest) Order() LinksOrder {
	if r.LinksOrder == nil || *r.LinksOrder == "" {
		return LinksOrderPage
	}
	return *r.LinksOrder
}

// LinkOptions resolves the nested extraction options, compiling include and
// exclude patterns. Returns EINVALID if a pattern does not compile.
func (r *LinksRequest) LinkOptions() (LinkOptions, error) {
	o := r.LinkExtraction
	if o == nil {
		o = &LinkExtractionOptions{}
	}
	filter, err := NewURLFilter(o.IncludePatterns, o.ExcludePatterns)
	if err != nil {
		return LinkOptions{}, err
	}
	return LinkOptions{
		IncludeExternal:   boolOr(o.IncludeExternal, false),
		IncludeMedia:      boolOr(o.IncludeMedia, false),
		RemoveQueryParams: boolOr(o.RemoveQueryParams, true),
		Subdomains:        !r.SubdomainAsRoot(),
		Filter:            filter,
	}, nil
}

// Validate returns EINVALID if the request cannot be processed.
func (r *LinksRequest) Validate() error {
	if r == nil {
		return Errorf(EINVALID, "request required")
	}
	if _, err := NormalizeURL(r.URL); err != nil {
		return err
	}
	switch r.Order() {
	case LinksOrderPage, LinksOrderAlphabetical:
	default:
		return Errorf(EINVALID, "unknown linksOrder %q", *r.LinksOrder)
	}
	if _, err := r.LinkOptions(); err != nil {
		return err
	}
	return nil
}

// LinksResponse is a successful link map. In tree mode the page content
// lives on Tree and the content fields here are empty.
type LinksResponse struct {
	Success        bool            `json:"success"`
	TargetURL      string          `json:"targetUrl"`
	Timestamp      time.Time       `json:"timestamp"`
	Title          string          `json:"title,omitempty"`
	Description    string          `json:"description,omitempty"`
	Metadata       *PageMetadata   `json:"metadata,omitempty"`
	CleanedHTML    string          `json:"cleanedHtml,omitempty"`
	ExtractedLinks *ExtractedLinks `json:"extractedLinks,omitempty"`
	SkippedURLs    *SkippedLinks   `json:"skippedUrls,omitempty"`
	MetaFiles      *MetaFiles      `json:"metaFiles,omitempty"`
	ExecutionTime  string          `json:"executionTime,omitempty"`
	Tree           *Tree           `json:"tree,omitempty"`
}

// LinksError is returned when the target URL itself could not be processed.
// Tree carries the cached tree for the root, if one was available.
type LinksError struct {
	TargetURL string
	Message   string
	Tree      *Tree
	Timestamp time.Time
}

// Error implements the error interface.
func (e *LinksError) Error() string {
	return "links request failed for " + e.TargetURL + ": " + e.Message
}

// MarshalJSON encodes the error as a failed response.
func (e *LinksError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success   bool      `json:"success"`
		TargetURL string    `json:"targetUrl"`
		Error     string    `json:"error"`
		Tree      *Tree     `json:"tree,omitempty"`
		Timestamp time.Time `json:"timestamp"`
	}{
		TargetURL: e.TargetURL,
		Error:     e.Message,
		Tree:      e.Tree,
		Timestamp: e.Timestamp,
	})
}

// LinksService builds link maps.
type LinksService interface {
	// ProcessLinksRequest crawls around req.URL and returns its link map.
	// A failure on the target URL is returned as a *LinksError. Invalid
	// requests return EINVALID.
	ProcessLinksRequest(ctx context.Context, req *LinksRequest) (*LinksResponse, error)
}
