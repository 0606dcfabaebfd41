package readability_test

import (
	"testing"

	"github.com/fwojciec/linkmap"
	"github.com/fwojciec/linkmap/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts article content", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Site Trees</title></head>
<body>
<nav><a href="/">Home</a></nav>
<article>
<h1>Site Trees</h1>
<p>A site tree groups every discovered URL under its parent path, so a crawl of a documentation site reads like its table of contents.</p>
<p>Each node records when it was last visited, which lets later crawls skip pages that were fetched recently and are still fresh.</p>
<p>Nodes also count how many URLs live beneath them, which makes large sections easy to spot at a glance.</p>
</article>
<footer>Footer links</footer>
</body>
</html>`

		result, err := readability.NewExtractor().Extract(html)

		require.NoError(t, err)
		assert.Equal(t, "Site Trees", result.Title)
		assert.Contains(t, result.ContentHTML, "table of contents")
	})

	t.Run("short article yields no content", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Stub</title></head><body><p>Hi.</p></body></html>`

		result, err := readability.NewExtractor(readability.WithMinTextLength(100)).Extract(html)

		require.NoError(t, err)
		assert.Empty(t, result.ContentHTML)
	})

	t.Run("returns EINVALID for empty input", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewExtractor().Extract("")

		assert.Equal(t, linkmap.EINVALID, linkmap.ErrorCode(err))
	})
}
