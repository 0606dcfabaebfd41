package linkmap

// LinkTopology computes the structural relations between URLs of a site.
// All returned URLs are normalized.
type LinkTopology interface {
	// RootURL returns the root a tree for rawURL is built under. With
	// subdomainAsRoot the root is the URL's own origin, otherwise it is the
	// origin of the registrable domain.
	RootURL(rawURL string, subdomainAsRoot bool) (string, error)

	// AncestorPaths returns every path prefix of rawURL, root first,
	// excluding rawURL itself.
	AncestorPaths(rawURL string) []string

	// DescendantPaths returns the immediate children of baseURL implied by
	// the known URLs, in first-seen order.
	DescendantPaths(baseURL string, known []string) []string

	// IsPlatform reports whether rawURL is hosted on a shared platform
	// where the first path segment identifies the logical site.
	IsPlatform(rawURL string) bool

	// PlatformRootURL returns the origin plus the first path segment of
	// rawURL, or the origin when rawURL has no path.
	PlatformRootURL(rawURL string) string
}
