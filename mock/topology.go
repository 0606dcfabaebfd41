package mock

import "github.com/fwojciec/linkmap"

var _ linkmap.LinkTopology = (*LinkTopology)(nil)

// LinkTopology is a mock implementation of linkmap.LinkTopology.
type LinkTopology struct {
	RootURLFn         func(rawURL string, subdomainAsRoot bool) (string, error)
	AncestorPathsFn   func(rawURL string) []string
	DescendantPathsFn func(baseURL string, known []string) []string
	IsPlatformFn      func(rawURL string) bool
	PlatformRootURLFn func(rawURL string) string
}

func (t *LinkTopology) RootURL(rawURL string, subdomainAsRoot bool) (string, error) {
	return t.RootURLFn(rawURL, subdomainAsRoot)
}

func (t *LinkTopology) AncestorPaths(rawURL string) []string {
	return t.AncestorPathsFn(rawURL)
}

func (t *LinkTopology) DescendantPaths(baseURL string, known []string) []string {
	return t.DescendantPathsFn(baseURL, known)
}

func (t *LinkTopology) IsPlatform(rawURL string) bool {
	return t.IsPlatformFn(rawURL)
}

func (t *LinkTopology) PlatformRootURL(rawURL string) string {
	return t.PlatformRootURLFn(rawURL)
}
