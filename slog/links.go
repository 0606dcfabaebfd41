package slog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/linkmap"
)

// Ensure LoggingLinksService implements linkmap.LinksService.
var _ linkmap.LinksService = (*LoggingLinksService)(nil)

// LoggingLinksService wraps a LinksService with one log line per request.
type LoggingLinksService struct {
	next   linkmap.LinksService
	logger *slog.Logger
}

// NewLoggingLinksService creates a new LoggingLinksService.
func NewLoggingLinksService(next linkmap.LinksService, logger *slog.Logger) *LoggingLinksService {
	return &LoggingLinksService{next: next, logger: logger}
}

// ProcessLinksRequest delegates to the wrapped service and logs the outcome.
func (s *LoggingLinksService) ProcessLinksRequest(ctx context.Context, req *linkmap.LinksRequest) (resp *linkmap.LinksResponse, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin)}
		if req != nil {
			attrs = append(attrs, "url", req.URL, "tree", req.WantTree())
		}
		if resp != nil {
			skipped := resp.SkippedURLs
			if resp.Tree != nil {
				attrs = append(attrs, "urls", resp.Tree.TotalURLs)
				skipped = resp.Tree.SkippedURLs
			}
			attrs = append(attrs, "skipped", skipped.Len())
		}

		var lerr *linkmap.LinksError
		switch {
		case err == nil:
			s.logger.Info("links", attrs...)
		case errors.As(err, &lerr):
			s.logger.Warn("links target failed", append(attrs, "err", lerr.Message)...)
		default:
			s.logger.Error("links", append(attrs, "err", err)...)
		}
	}(time.Now())
	return s.next.ProcessLinksRequest(ctx, req)
}
