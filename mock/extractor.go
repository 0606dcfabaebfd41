package mock

import "github.com/fwojciec/linkmap"

var _ linkmap.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of linkmap.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*linkmap.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*linkmap.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ linkmap.MetadataExtractor = (*MetadataExtractor)(nil)

// MetadataExtractor is a mock implementation of linkmap.MetadataExtractor.
type MetadataExtractor struct {
	ExtractMetadataFn func(html, baseURL string) (*linkmap.PageMetadata, error)
}

func (e *MetadataExtractor) ExtractMetadata(html, baseURL string) (*linkmap.PageMetadata, error) {
	return e.ExtractMetadataFn(html, baseURL)
}

var _ linkmap.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of linkmap.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html, baseURL, rootURL string, opts linkmap.LinkOptions, skipped linkmap.SkipRecorder) (*linkmap.ExtractedLinks, error)
}

func (e *LinkExtractor) ExtractLinks(html, baseURL, rootURL string, opts linkmap.LinkOptions, skipped linkmap.SkipRecorder) (*linkmap.ExtractedLinks, error) {
	return e.ExtractLinksFn(html, baseURL, rootURL, opts, skipped)
}
