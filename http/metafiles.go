package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/linkmap"
	"github.com/temoto/robotstxt"
)

// maxMetaFileBytes caps robots.txt and sitemap.xml downloads.
const maxMetaFileBytes = 10 << 20

var _ linkmap.MetaFileService = (*MetaFileService)(nil)

// MetaFileService fetches robots.txt and sitemap.xml over HTTP.
type MetaFileService struct {
	client *http.Client
}

// NewMetaFileService creates a new MetaFileService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewMetaFileService(client *http.Client) *MetaFileService {
	if client == nil {
		client = http.DefaultClient
	}
	return &MetaFileService{client: client}
}

// FetchMetaFiles fetches the requested files for the origin of rawURL.
// The sitemap location is taken from robots.txt Sitemap directives, falling
// back to /sitemap.xml. Only documents whose root element is urlset or
// sitemapindex are accepted as sitemaps. Missing files are left empty.
func (s *MetaFileService) FetchMetaFiles(ctx context.Context, rawURL string, opts linkmap.MetaFileOptions) (*linkmap.MetaFiles, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}

	files := &linkmap.MetaFiles{}
	if !opts.Robots && !opts.SitemapXML {
		return files, nil
	}

	robotsURL := origin.ResolveReference(&url.URL{Path: "/robots.txt"})
	robots, err := s.fetch(ctx, robotsURL.String())
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if opts.Robots {
		files.Robots = string(robots)
	}
	if !opts.SitemapXML {
		return files, nil
	}

	candidates := sitemapsFromRobots(robots)
	candidates = append(candidates, origin.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String())

	seen := make(map[string]bool)
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		body, err := s.fetch(ctx, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if isSitemap(body) {
			files.SitemapXML = string(body)
			break
		}
	}

	return files, nil
}

// sitemapsFromRobots extracts Sitemap: directives from robots.txt.
func sitemapsFromRobots(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data.Sitemaps
}

// isSitemap reports whether body is a urlset or sitemapindex document.
func isSitemap(body []byte) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return false
	}
	root := doc.Root()
	if root == nil {
		return false
	}
	return root.Tag == "urlset" || root.Tag == "sitemapindex"
}

// fetch returns the body of a 200 response.
func (s *MetaFileService) fetch(ctx context.Context, targetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	body, err := readBody(resp, maxMetaFileBytes)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, fmt.Errorf("empty body for %s", targetURL)
	}
	return body, nil
}
