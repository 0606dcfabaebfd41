package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	main "github.com/fwojciec/linkmap/cmd/linkmap"
	"github.com/fwojciec/linkmap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestMain returns a Main that skips wiring and uses links.
func newTestMain(links linkmap.LinksService) *main.Main {
	m := main.NewMain()
	cfg := main.DefaultConfig()
	cfg.Store = main.StoreNone
	m.Config = &cfg
	m.Links = links
	return m
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(&mock.LinksService{}).Run(context.Background(), []string{"--help"}, stdout, stderr)

	require.NoError(t, err)
	help := stdout.String()
	assert.Contains(t, help, "Usage:")
	assert.Contains(t, help, "map")
	assert.Contains(t, help, "serve")
}

func TestMain_Run_NoCommand(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := newTestMain(&mock.LinksService{}).Run(context.Background(), nil, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestCmdMap(t *testing.T) {
	t.Parallel()

	t.Run("passes flags as request options and prints JSON", func(t *testing.T) {
		t.Parallel()

		var got *linkmap.LinksRequest
		links := &mock.LinksService{
			ProcessLinksRequestFn: func(_ context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
				got = req
				return &linkmap.LinksResponse{Success: true, TargetURL: req.URL, Timestamp: testTime}, nil
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(links).Run(context.Background(), []string{
			"map", "https://example.com/docs",
			"--no-tree", "--no-metadata", "--cleaned-html", "--robots",
			"--order", "alphabetical", "--keep-query", "-x", `\.pdf$`, "-i", "/docs",
		}, stdout, stderr)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "https://example.com/docs", got.URL)
		assert.False(t, got.WantTree())
		assert.False(t, got.WantMetadata())
		assert.True(t, got.WantCleanedHTML())
		assert.True(t, got.WantRobots())
		assert.False(t, got.WantSitemapXML())
		assert.True(t, got.SubdomainAsRoot())
		assert.True(t, got.WantFolderFirst())
		assert.True(t, got.WantExtractedLinks())
		assert.Equal(t, linkmap.LinksOrderAlphabetical, got.Order())

		opts, err := got.LinkOptions()
		require.NoError(t, err)
		assert.False(t, opts.RemoveQueryParams)
		assert.False(t, opts.IncludeExternal)
		assert.Equal(t, []string{`\.pdf$`}, got.LinkExtraction.ExcludePatterns)
		assert.Equal(t, []string{"/docs"}, got.LinkExtraction.IncludePatterns)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
		assert.Equal(t, true, resp["success"])
	})

	t.Run("target failure prints the failure body and errors", func(t *testing.T) {
		t.Parallel()

		links := &mock.LinksService{
			ProcessLinksRequestFn: func(_ context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
				return nil, &linkmap.LinksError{TargetURL: req.URL, Message: "HTTP 404", Timestamp: testTime}
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(links).Run(context.Background(), []string{"map", "https://example.com/gone"}, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, stdout.String(), `"success": false`)
		assert.Contains(t, stderr.String(), "error: HTTP 404")
	})

	t.Run("invalid request reports message", func(t *testing.T) {
		t.Parallel()

		links := &mock.LinksService{
			ProcessLinksRequestFn: func(context.Context, *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
				return nil, linkmap.Errorf(linkmap.EINVALID, "unsupported scheme %q", "ftp")
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(links).Run(context.Background(), []string{"map", "ftp://example.com"}, stdout, stderr)

		require.Error(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), `error: unsupported scheme "ftp"`)
	})

	t.Run("writes to output file", func(t *testing.T) {
		t.Parallel()

		links := &mock.LinksService{
			ProcessLinksRequestFn: func(_ context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
				return &linkmap.LinksResponse{Success: true, TargetURL: req.URL, Timestamp: testTime}, nil
			},
		}
		out := filepath.Join(t.TempDir(), "map.json")
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(links).Run(context.Background(), []string{"map", "https://example.com", "-o", out}, stdout, stderr)

		require.NoError(t, err)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "wrote "+out)
		content, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"targetUrl": "https://example.com"`)
	})

	t.Run("writes under output directory", func(t *testing.T) {
		t.Parallel()

		links := &mock.LinksService{
			ProcessLinksRequestFn: func(_ context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
				return &linkmap.LinksResponse{Success: true, TargetURL: req.URL, Timestamp: testTime}, nil
			},
		}
		dir := t.TempDir()
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(links).Run(context.Background(), []string{"map", "https://example.com/docs/api", "-o", dir + "/"}, stdout, stderr)

		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "example.com", "docs", "api.json"))
		assert.NoError(t, err)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newTestMain(&mock.LinksService{}).Run(context.Background(), []string{"map", "https://example.com", "--order", "random"}, stdout, stderr)

		require.Error(t, err)
	})
}

func TestMain_Run_WiresNoCacheCrawler(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	cfg := main.DefaultConfig()
	cfg.Store = main.StoreNone
	m.Config = &cfg
	defer m.Close()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	// Validation fails before any fetch, so no network is needed.
	err := m.Run(context.Background(), []string{"map", "ftp://example.com"}, stdout, stderr)

	require.Error(t, err)
	assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	assert.NotNil(t, m.Links)
}
