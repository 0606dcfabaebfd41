package scrape_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/mock"
	"github.com/fwojciec/linkmap/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(html string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(context.Context, string) (string, error) { return html, nil },
		CloseFn: func() error { return nil },
	}
}

func metadataFor(title string) *mock.MetadataExtractor {
	return &mock.MetadataExtractor{
		ExtractMetadataFn: func(string, string) (*linkmap.PageMetadata, error) {
			return &linkmap.PageMetadata{Title: title, Description: "desc"}, nil
		},
	}
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("returns raw html with title and description", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{Fetcher: staticFetcher("<html>page</html>"), Metadata: metadataFor("Page")}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{})

		require.NoError(t, err)
		assert.Equal(t, "<html>page</html>", page.RawHTML)
		assert.Equal(t, "Page", page.Title)
		assert.Equal(t, "desc", page.Description)
		assert.Nil(t, page.Metadata)
		assert.Empty(t, page.CleanedHTML)
		assert.Nil(t, page.MetaFiles)
	})

	t.Run("attaches metadata when requested", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{Fetcher: staticFetcher("<html></html>"), Metadata: metadataFor("Page")}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{Metadata: true})

		require.NoError(t, err)
		require.NotNil(t, page.Metadata)
		assert.Equal(t, "Page", page.Metadata.Title)
	})

	t.Run("extracts cleaned html when requested", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Fetcher: staticFetcher("<html>raw</html>"),
			Content: &mock.Extractor{ExtractFn: func(string) (*linkmap.ExtractResult, error) {
				return &linkmap.ExtractResult{ContentHTML: "<p>clean</p>"}, nil
			}},
		}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{CleanedHTML: true})

		require.NoError(t, err)
		assert.Equal(t, "<p>clean</p>", page.CleanedHTML)
	})

	t.Run("extraction failure leaves cleaned html empty", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{
			Fetcher: staticFetcher("<html>raw</html>"),
			Content: &mock.Extractor{ExtractFn: func(string) (*linkmap.ExtractResult, error) {
				return nil, errors.New("no content")
			}},
		}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{CleanedHTML: true})

		require.NoError(t, err)
		assert.Empty(t, page.CleanedHTML)
	})

	t.Run("fetches meta files only when requested", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		s := &scrape.Scraper{
			Fetcher: staticFetcher("<html></html>"),
			MetaFiles: &mock.MetaFileService{FetchMetaFilesFn: func(_ context.Context, _ string, opts linkmap.MetaFileOptions) (*linkmap.MetaFiles, error) {
				calls.Add(1)
				assert.True(t, opts.Robots)
				assert.False(t, opts.SitemapXML)
				return &linkmap.MetaFiles{Robots: "User-agent: *"}, nil
			}},
		}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{})
		require.NoError(t, err)
		assert.Nil(t, page.MetaFiles)

		page, err = s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{Robots: true})
		require.NoError(t, err)
		require.NotNil(t, page.MetaFiles)
		assert.Equal(t, "User-agent: *", page.MetaFiles.Robots)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries failed fetches", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		s := &scrape.Scraper{
			Fetcher: &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
				if calls.Add(1) < 3 {
					return "", errors.New("temporary")
				}
				return "<html>ok</html>", nil
			}},
			RetryDelays: []time.Duration{time.Millisecond, time.Millisecond},
		}

		page, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{})

		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", page.RawHTML)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("fetch failure is an error", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{Fetcher: &mock.Fetcher{FetchFn: func(context.Context, string) (string, error) {
			return "", errors.New("connection refused")
		}}}

		_, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("empty page is an error", func(t *testing.T) {
		t.Parallel()

		s := &scrape.Scraper{Fetcher: staticFetcher("   ")}

		_, err := s.Scrape(context.Background(), "https://example.com", linkmap.ScrapeOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty response")
	})
}

func TestChain_Extract(t *testing.T) {
	t.Parallel()

	empty := &mock.Extractor{ExtractFn: func(string) (*linkmap.ExtractResult, error) {
		return &linkmap.ExtractResult{Title: "t"}, nil
	}}
	failing := &mock.Extractor{ExtractFn: func(string) (*linkmap.ExtractResult, error) {
		return nil, errors.New("failed")
	}}
	good := &mock.Extractor{ExtractFn: func(string) (*linkmap.ExtractResult, error) {
		return &linkmap.ExtractResult{ContentHTML: "<p>x</p>"}, nil
	}}

	t.Run("returns first non-empty result", func(t *testing.T) {
		t.Parallel()

		result, err := scrape.Chain{failing, empty, good}.Extract("<html></html>")

		require.NoError(t, err)
		assert.Equal(t, "<p>x</p>", result.ContentHTML)
	})

	t.Run("returns last empty result when nothing has content", func(t *testing.T) {
		t.Parallel()

		result, err := scrape.Chain{failing, empty}.Extract("<html></html>")

		require.NoError(t, err)
		assert.Equal(t, "t", result.Title)
	})

	t.Run("joins errors when all fail", func(t *testing.T) {
		t.Parallel()

		_, err := scrape.Chain{failing}.Extract("<html></html>")

		assert.EqualError(t, err, "failed")
	})
}
