package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/linkmap"
)

// Ensure LoggingScraper implements linkmap.Scraper.
var _ linkmap.Scraper = (*LoggingScraper)(nil)

// LoggingScraper wraps a Scraper with logging.
type LoggingScraper struct {
	next   linkmap.Scraper
	logger *slog.Logger
}

// NewLoggingScraper creates a new LoggingScraper.
func NewLoggingScraper(next linkmap.Scraper, logger *slog.Logger) *LoggingScraper {
	return &LoggingScraper{next: next, logger: logger}
}

// Scrape delegates to the wrapped scraper and logs the outcome.
func (s *LoggingScraper) Scrape(ctx context.Context, url string, opts linkmap.ScrapeOptions) (page *linkmap.ScrapedPage, err error) {
	defer func(begin time.Time) {
		var bytes int
		if page != nil {
			bytes = len(page.RawHTML)
		}
		s.logger.Debug("scrape",
			"url", url,
			"bytes", bytes,
			"cleaned", opts.CleanedHTML,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Scrape(ctx, url, opts)
}
