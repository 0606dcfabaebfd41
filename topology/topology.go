// Package topology computes root, ancestor and descendant URLs for a site.
package topology

import (
	"net"
	"net/url"
	"strings"

	"github.com/fwojciec/linkmap"
	"golang.org/x/net/publicsuffix"
)

var _ linkmap.LinkTopology = (*Topology)(nil)

// DefaultPlatforms lists shared hosting platforms where the first path
// segment (a user or organization) identifies the logical site.
var DefaultPlatforms = []string{
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"codeberg.org",
	"huggingface.co",
	"medium.com",
	"dev.to",
}

// Topology implements linkmap.LinkTopology.
type Topology struct {
	platforms map[string]struct{}
}

// New returns a Topology recognizing the given platform hosts.
// A nil list uses DefaultPlatforms.
func New(platforms []string) *Topology {
	if platforms == nil {
		platforms = DefaultPlatforms
	}
	t := &Topology{platforms: make(map[string]struct{}, len(platforms))}
	for _, p := range platforms {
		t.platforms[strings.ToLower(strings.TrimPrefix(p, "www."))] = struct{}{}
	}
	return t
}

// RootURL returns the origin of rawURL, or with subdomainAsRoot false the
// origin of its registrable domain (eTLD+1). Hosts without a registrable
// domain, such as IP addresses, are their own root.
func (t *Topology) RootURL(rawURL string, subdomainAsRoot bool) (string, error) {
	u, err := parse(rawURL)
	if err != nil {
		return "", err
	}
	if subdomainAsRoot {
		return origin(u), nil
	}

	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return origin(u), nil
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || domain == "" {
		return origin(u), nil
	}
	if port := u.Port(); port != "" {
		domain += ":" + port
	}
	return u.Scheme + "://" + domain, nil
}

// AncestorPaths returns the origin followed by every path prefix of rawURL,
// excluding rawURL itself.
func (t *Topology) AncestorPaths(rawURL string) []string {
	u, err := parse(rawURL)
	if err != nil {
		return nil
	}
	segs := segments(u.Path)
	if len(segs) == 0 {
		return nil
	}

	base := origin(u)
	paths := make([]string, 0, len(segs))
	paths = append(paths, base)
	for _, seg := range segs[:len(segs)-1] {
		base += "/" + seg
		paths = append(paths, base)
	}
	return paths
}

// DescendantPaths returns the distinct immediate children of baseURL
// implied by known, in first-seen order. Only URLs on the same host as
// baseURL are considered.
func (t *Topology) DescendantPaths(baseURL string, known []string) []string {
	base, err := parse(baseURL)
	if err != nil {
		return nil
	}
	prefix := origin(base)
	basePath := strings.TrimRight(base.Path, "/")

	seen := make(map[string]struct{})
	var paths []string
	for _, k := range known {
		u, err := url.Parse(k)
		if err != nil || !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		p := strings.TrimRight(u.Path, "/")
		if basePath != "" {
			if !strings.HasPrefix(p, basePath+"/") {
				continue
			}
			p = strings.TrimPrefix(p, basePath)
		}
		segs := segments(p)
		if len(segs) == 0 {
			continue
		}
		child := prefix + basePath + "/" + segs[0]
		if _, ok := seen[child]; ok {
			continue
		}
		seen[child] = struct{}{}
		paths = append(paths, child)
	}
	return paths
}

// IsPlatform reports whether rawURL is hosted on a known platform.
func (t *Topology) IsPlatform(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	_, ok := t.platforms[strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")]
	return ok
}

// PlatformRootURL returns the origin of rawURL plus its first path segment.
func (t *Topology) PlatformRootURL(rawURL string) string {
	u, err := parse(rawURL)
	if err != nil {
		return ""
	}
	segs := segments(u.Path)
	if len(segs) == 0 {
		return origin(u)
	}
	return origin(u) + "/" + segs[0]
}

func parse(rawURL string) (*url.URL, error) {
	normalized, err := linkmap.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	return url.Parse(normalized)
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func segments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
