// Package trafilatura extracts cleaned main-content HTML using go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/linkmap"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ linkmap.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
// Links and images are kept in the cleaned output so the content still
// describes the page's outgoing references.
type Extractor struct {
	includeImages bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithoutImages drops images from the cleaned output.
func WithoutImages() Option {
	return func(e *Extractor) {
		e.includeImages = false
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{includeImages: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes raw HTML and returns the main content.
// Returns EINVALID for empty input.
func (e *Extractor) Extract(rawHTML string) (*linkmap.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, linkmap.Errorf(linkmap.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
		IncludeLinks:   true,
		IncludeImages:  e.includeImages,
	})
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &linkmap.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
