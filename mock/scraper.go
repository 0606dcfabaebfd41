package mock

import (
	"context"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.Scraper = (*Scraper)(nil)

// Scraper is a mock implementation of linkmap.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, url string, opts linkmap.ScrapeOptions) (*linkmap.ScrapedPage, error)
}

func (s *Scraper) Scrape(ctx context.Context, url string, opts linkmap.ScrapeOptions) (*linkmap.ScrapedPage, error) {
	return s.ScrapeFn(ctx, url, opts)
}

var _ linkmap.MetaFileService = (*MetaFileService)(nil)

// MetaFileService is a mock implementation of linkmap.MetaFileService.
type MetaFileService struct {
	FetchMetaFilesFn func(ctx context.Context, url string, opts linkmap.MetaFileOptions) (*linkmap.MetaFiles, error)
}

func (s *MetaFileService) FetchMetaFiles(ctx context.Context, url string, opts linkmap.MetaFileOptions) (*linkmap.MetaFiles, error) {
	return s.FetchMetaFilesFn(ctx, url, opts)
}
