// Package bluemonday sanitizes cleaned HTML with a bluemonday policy.
package bluemonday

import (
	"github.com/fwojciec/linkmap"
	"github.com/microcosm-cc/bluemonday"
)

var _ linkmap.Extractor = (*Sanitizer)(nil)

// Sanitizer wraps an Extractor and strips scripts, event handlers and
// other unsafe markup from the extracted content.
type Sanitizer struct {
	next   linkmap.Extractor
	policy *bluemonday.Policy
}

// NewSanitizer wraps next with the user-generated-content policy, which
// keeps formatting, links and images.
func NewSanitizer(next linkmap.Extractor) *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(false)
	return &Sanitizer{next: next, policy: policy}
}

// Extract implements linkmap.Extractor.
func (s *Sanitizer) Extract(html string) (*linkmap.ExtractResult, error) {
	result, err := s.next.Extract(html)
	if err != nil {
		return nil, err
	}
	return &linkmap.ExtractResult{
		Title:       result.Title,
		ContentHTML: s.policy.Sanitize(result.ContentHTML),
	}, nil
}
