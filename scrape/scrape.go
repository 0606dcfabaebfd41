// Package scrape composes a Fetcher with extractors into a linkmap.Scraper.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.Scraper = (*Scraper)(nil)

// Scraper implements linkmap.Scraper.
type Scraper struct {
	Fetcher   linkmap.Fetcher
	Metadata  linkmap.MetadataExtractor
	Content   linkmap.Extractor
	MetaFiles linkmap.MetaFileService

	// RetryDelays are the waits between fetch attempts. Nil disables retries.
	RetryDelays []time.Duration

	// Logger receives retry and degraded-extraction messages. Optional.
	Logger *slog.Logger
}

// Scrape fetches url and extracts what opts asks for. Only the fetch and
// an empty page are errors: failures extracting cleaned HTML or fetching
// meta files leave those fields empty.
func (s *Scraper) Scrape(ctx context.Context, url string, opts linkmap.ScrapeOptions) (*linkmap.ScrapedPage, error) {
	var html string
	err := linkmap.Retry(ctx, s.RetryDelays, func(ctx context.Context) error {
		var err error
		html, err = s.Fetcher.Fetch(ctx, url)
		return err
	}, func(attempt int, err error) {
		s.logger().Debug("retry fetch", "url", url, "attempt", attempt, "err", err)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("fetch %s: empty response", url)
	}

	page := &linkmap.ScrapedPage{URL: url, RawHTML: html}

	if s.Metadata != nil {
		meta, err := s.Metadata.ExtractMetadata(html, url)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", url, err)
		}
		page.Title = meta.Title
		page.Description = meta.Description
		if opts.Metadata {
			page.Metadata = meta
		}
	}

	if opts.CleanedHTML && s.Content != nil {
		result, err := s.Content.Extract(html)
		if err != nil {
			s.logger().Warn("cleaned html extraction failed", "url", url, "err", err)
		} else {
			page.CleanedHTML = result.ContentHTML
			if page.Title == "" {
				page.Title = result.Title
			}
		}
	}

	if (opts.Robots || opts.SitemapXML) && s.MetaFiles != nil {
		files, err := s.MetaFiles.FetchMetaFiles(ctx, url, linkmap.MetaFileOptions{
			Robots:     opts.Robots,
			SitemapXML: opts.SitemapXML,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger().Warn("meta files fetch failed", "url", url, "err", err)
		} else if !files.IsEmpty() {
			page.MetaFiles = files
		}
	}

	return page, nil
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
