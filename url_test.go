package linkmap_test

import (
	"testing"

	"github.com/fwojciec/linkmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	t.Run("lowercases scheme and host", func(t *testing.T) {
		t.Parallel()

		got, err := linkmap.NormalizeURL("HTTPS://Example.COM/Docs")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/Docs", got)
	})

	t.Run("drops fragment and trailing slash", func(t *testing.T) {
		t.Parallel()

		got, err := linkmap.NormalizeURL("https://example.com/docs/#intro")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/docs", got)
	})

	t.Run("bare origin has no trailing slash", func(t *testing.T) {
		t.Parallel()

		got, err := linkmap.NormalizeURL("https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("keeps query", func(t *testing.T) {
		t.Parallel()

		got, err := linkmap.NormalizeURL("https://example.com/search?q=go")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/search?q=go", got)
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		t.Parallel()

		_, err := linkmap.NormalizeURL("ftp://example.com/file")

		assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	})

	t.Run("rejects relative URLs", func(t *testing.T) {
		t.Parallel()

		_, err := linkmap.NormalizeURL("/docs")

		assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := linkmap.NormalizeURL("  ")

		assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	})
}

func TestStripQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a", linkmap.StripQuery("https://example.com/a?b=c"))
	assert.Equal(t, "https://example.com/a", linkmap.StripQuery("https://example.com/a"))
}

func TestMediaTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, linkmap.MediaImage, linkmap.MediaTypeOf("https://example.com/logo.PNG"))
	assert.Equal(t, linkmap.MediaVideo, linkmap.MediaTypeOf("https://example.com/intro.mp4?t=3"))
	assert.Equal(t, linkmap.MediaDocument, linkmap.MediaTypeOf("https://example.com/paper.pdf"))
	assert.Equal(t, linkmap.MediaNone, linkmap.MediaTypeOf("https://example.com/docs"))
	assert.Equal(t, linkmap.MediaNone, linkmap.MediaTypeOf("https://example.com/page.html"))
}

func TestIsUnderRoot(t *testing.T) {
	t.Parallel()

	t.Run("same host", func(t *testing.T) {
		t.Parallel()

		assert.True(t, linkmap.IsUnderRoot("https://example.com", "https://example.com/a/b", false))
		assert.True(t, linkmap.IsUnderRoot("https://example.com", "https://example.com", false))
	})

	t.Run("subdomain is a separate site by default", func(t *testing.T) {
		t.Parallel()

		assert.False(t, linkmap.IsUnderRoot("https://example.com", "https://blog.example.com/post", false))
		assert.False(t, linkmap.IsUnderRoot("https://docs.example.com", "https://example.com/a", false))
	})

	t.Run("subdomain of registrable domain root", func(t *testing.T) {
		t.Parallel()

		assert.True(t, linkmap.IsUnderRoot("https://example.com", "https://docs.example.com/a", true))
		assert.False(t, linkmap.IsUnderRoot("https://docs.example.com", "https://example.com/a", true))
	})

	t.Run("root with path", func(t *testing.T) {
		t.Parallel()

		assert.True(t, linkmap.IsUnderRoot("https://github.com/owner", "https://github.com/owner/repo", false))
		assert.True(t, linkmap.IsUnderRoot("https://github.com/owner", "https://github.com/owner", false))
		assert.False(t, linkmap.IsUnderRoot("https://github.com/owner", "https://github.com/ownerx", false))
		assert.False(t, linkmap.IsUnderRoot("https://github.com/owner", "https://github.com/other/repo", false))
	})

	t.Run("lookalike host", func(t *testing.T) {
		t.Parallel()

		assert.False(t, linkmap.IsUnderRoot("https://example.com", "https://notexample.com/a", true))
	})
}

func TestSameSite(t *testing.T) {
	t.Parallel()

	assert.True(t, linkmap.SameSite("Example.com", "example.COM", false))
	assert.False(t, linkmap.SameSite("example.com", "blog.example.com", false))
	assert.True(t, linkmap.SameSite("example.com", "blog.example.com", true))
}
