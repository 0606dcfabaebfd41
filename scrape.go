package linkmap

import "context"

// ScrapeOptions selects the optional parts of a scrape.
// Raw HTML, title and description are always returned.
type ScrapeOptions struct {
	Metadata    bool
	CleanedHTML bool
	Robots      bool
	SitemapXML  bool
}

// ScrapedPage is the result of scraping a single URL.
type ScrapedPage struct {
	URL         string
	RawHTML     string
	Title       string
	Description string
	Metadata    *PageMetadata
	CleanedHTML string
	MetaFiles   *MetaFiles
}

// PageMetadata holds descriptive metadata read from a page's head.
type PageMetadata struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Language      string `json:"language,omitempty"`
	Canonical     string `json:"canonical,omitempty"`
	Favicon       string `json:"favicon,omitempty"`
	Author        string `json:"author,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	OGTitle       string `json:"ogTitle,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
	OGImage       string `json:"ogImage,omitempty"`
	OGSiteName    string `json:"ogSiteName,omitempty"`
}

// MetaFiles holds site-level files fetched alongside the root page.
type MetaFiles struct {
	Robots     string `json:"robots,omitempty"`
	SitemapXML string `json:"sitemapXml,omitempty"`
}

// IsEmpty reports whether neither file was found.
func (m *MetaFiles) IsEmpty() bool {
	return m == nil || (m.Robots == "" && m.SitemapXML == "")
}

// Scraper fetches a URL and extracts the requested content from it.
type Scraper interface {
	// Scrape fetches url and returns its content. A page that cannot be
	// fetched or parsed results in an error.
	Scrape(ctx context.Context, url string, opts ScrapeOptions) (*ScrapedPage, error)
}

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the HTML for url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// ExtractResult holds the main content extracted from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// MetadataExtractor reads page metadata from raw HTML.
type MetadataExtractor interface {
	// ExtractMetadata parses html and returns its metadata. Relative URLs
	// such as the favicon are resolved against baseURL.
	ExtractMetadata(html, baseURL string) (*PageMetadata, error)
}

// MetaFileOptions selects which site-level files to fetch.
type MetaFileOptions struct {
	Robots     bool
	SitemapXML bool
}

// MetaFileService fetches robots.txt and sitemap.xml for a site.
type MetaFileService interface {
	// FetchMetaFiles fetches the requested files for the site of url.
	// Missing files are left empty and are not an error.
	FetchMetaFiles(ctx context.Context, url string, opts MetaFileOptions) (*MetaFiles, error)
}
