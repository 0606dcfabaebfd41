package linkmap_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fwojciec/linkmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *linkmap.Tree {
	visited := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &linkmap.Tree{
		URL:         "https://example.com",
		RootURL:     "https://example.com",
		Name:        "example.com",
		TotalURLs:   3,
		LastVisited: &visited,
		Metadata:    &linkmap.PageMetadata{Title: "Home"},
		Children: []*linkmap.Tree{
			{
				URL:       "https://example.com/docs",
				Name:      "docs",
				TotalURLs: 2,
				Children: []*linkmap.Tree{
					{URL: "https://example.com/docs/intro", Name: "intro", TotalURLs: 1},
				},
			},
		},
	}
}

func TestTree_Walk(t *testing.T) {
	t.Parallel()

	t.Run("visits nodes in pre-order", func(t *testing.T) {
		t.Parallel()

		var urls []string
		sampleTree().Walk(func(n *linkmap.Tree) bool {
			urls = append(urls, n.URL)
			return true
		})

		assert.Equal(t, []string{
			"https://example.com",
			"https://example.com/docs",
			"https://example.com/docs/intro",
		}, urls)
	})

	t.Run("returning false prunes children", func(t *testing.T) {
		t.Parallel()

		var urls []string
		sampleTree().Walk(func(n *linkmap.Tree) bool {
			urls = append(urls, n.URL)
			return n.URL != "https://example.com/docs"
		})

		assert.Len(t, urls, 2)
	})
}

func TestTree_Find(t *testing.T) {
	t.Parallel()

	tree := sampleTree()

	assert.Equal(t, "intro", tree.Find("https://example.com/docs/intro").Name)
	assert.Nil(t, tree.Find("https://example.com/missing"))
}

func TestTree_Clone(t *testing.T) {
	t.Parallel()

	orig := sampleTree()
	c := orig.Clone()

	c.Children[0].Children[0].Name = "changed"
	c.Metadata.Title = "changed"
	*c.LastVisited = time.Time{}

	assert.Equal(t, "intro", orig.Children[0].Children[0].Name)
	assert.Equal(t, "Home", orig.Metadata.Title)
	assert.False(t, orig.LastVisited.IsZero())
}

func TestTree_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sampleTree().Children[0])
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Contains(t, m, "lastVisited")
	assert.Nil(t, m["lastVisited"])
	assert.NotContains(t, m, "rootUrl")
	assert.NotContains(t, m, "cleanedHtml")
	assert.NotContains(t, m, "skippedUrls")
}

func TestSkippedLinks_Len(t *testing.T) {
	t.Parallel()

	s := &linkmap.SkippedLinks{
		Internal: []linkmap.SkippedURL{{URL: "a", Reason: "x"}},
		Media:    &linkmap.SkippedMedia{Images: []linkmap.SkippedURL{{URL: "b"}}},
		Other:    []linkmap.SkippedURL{{URL: "c"}},
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, (*linkmap.SkippedLinks)(nil).Len())
}
