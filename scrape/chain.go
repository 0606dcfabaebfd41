package scrape

import (
	"errors"
	"strings"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.Extractor = (Chain)(nil)

// Chain tries each extractor in order and returns the first result with
// non-empty content. If none produce content, the last result or the
// joined errors are returned.
type Chain []linkmap.Extractor

// Extract implements linkmap.Extractor.
func (c Chain) Extract(html string) (*linkmap.ExtractResult, error) {
	var errs []error
	var last *linkmap.ExtractResult
	for _, e := range c {
		result, err := e.Extract(html)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if strings.TrimSpace(result.ContentHTML) != "" {
			return result, nil
		}
		last = result
	}
	if last != nil {
		return last, nil
	}
	if len(errs) == 0 {
		return nil, linkmap.Errorf(linkmap.EINVALID, "no extractors configured")
	}
	return nil, errors.Join(errs...)
}
