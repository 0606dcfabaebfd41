package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/linkmap"
)

var _ linkmap.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor implements linkmap.MetadataExtractor by reading the
// document head.
type MetadataExtractor struct{}

// NewMetadataExtractor returns a new MetadataExtractor.
func NewMetadataExtractor() *MetadataExtractor {
	return &MetadataExtractor{}
}

// ExtractMetadata reads title, description, language, canonical link,
// favicon, author, keywords and Open Graph properties from html.
func (e *MetadataExtractor) ExtractMetadata(html, baseURL string) (*linkmap.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, linkmap.Errorf(linkmap.EINVALID, "failed to parse HTML: %v", err)
	}
	base, _ := url.Parse(baseURL)

	meta := &linkmap.PageMetadata{
		Title:         strings.TrimSpace(doc.Find("head title").First().Text()),
		Description:   metaContent(doc, "name", "description"),
		Language:      strings.TrimSpace(doc.Find("html").AttrOr("lang", "")),
		Author:        metaContent(doc, "name", "author"),
		Keywords:      metaContent(doc, "name", "keywords"),
		OGTitle:       metaContent(doc, "property", "og:title"),
		OGDescription: metaContent(doc, "property", "og:description"),
		OGImage:       resolve(base, metaContent(doc, "property", "og:image")),
		OGSiteName:    metaContent(doc, "property", "og:site_name"),
	}
	if meta.Title == "" {
		meta.Title = meta.OGTitle
	}
	if meta.Description == "" {
		meta.Description = meta.OGDescription
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		meta.Canonical = resolve(base, href)
	}

	doc.Find("link[rel][href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, rel := range strings.Fields(strings.ToLower(sel.AttrOr("rel", ""))) {
			if rel == "icon" {
				meta.Favicon = resolve(base, sel.AttrOr("href", ""))
				return false
			}
		}
		return true
	})
	if meta.Favicon == "" && base != nil && base.Host != "" {
		meta.Favicon = base.Scheme + "://" + base.Host + "/favicon.ico"
	}

	return meta, nil
}

func metaContent(doc *goquery.Document, attr, name string) string {
	var content string
	doc.Find("meta[" + attr + "][content]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(sel.AttrOr(attr, ""), name) {
			content = strings.TrimSpace(sel.AttrOr("content", ""))
			return false
		}
		return true
	})
	return content
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
