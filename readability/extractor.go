// Package readability extracts cleaned main-content HTML using go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/linkmap"
	"github.com/go-shiori/go-readability"
)

// DefaultMinTextLength is the shortest article text treated as content.
const DefaultMinTextLength = 25

var _ linkmap.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
// It is the fallback after trafilatura in the cleaned-HTML chain.
type Extractor struct {
	minText int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinTextLength sets the shortest article text, in bytes, reported as
// content. Shorter articles yield empty ContentHTML.
func WithMinTextLength(n int) Option {
	return func(e *Extractor) {
		e.minText = n
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{minText: DefaultMinTextLength}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes raw HTML and returns the main content. Pages whose
// article is shorter than the minimum keep their title but no content, so a
// chain can move on.
func (e *Extractor) Extract(rawHTML string) (*linkmap.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, linkmap.Errorf(linkmap.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	result := &linkmap.ExtractResult{Title: strings.TrimSpace(article.Title)}
	if len(strings.TrimSpace(article.TextContent)) >= e.minText {
		result.ContentHTML = article.Content
	}
	return result, nil
}
