package linkmap

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeURL returns the canonical form used for URL identity:
// lowercase scheme and host, no fragment, no trailing slash.
// Only absolute http and https URLs are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Errorf(EINVALID, "empty URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", Errorf(EINVALID, "invalid URL %q: %v", raw, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", raw)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	if u.RawQuery == "" {
		u.ForceQuery = false
	}
	return u.String(), nil
}

// StripQuery removes the query string from an already normalized URL.
func StripQuery(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx != -1 {
		return raw[:idx]
	}
	return raw
}

// MediaType classifies a URL by the kind of media it points to.
type MediaType int

// Media types recognized by file extension.
const (
	MediaNone MediaType = iota
	MediaImage
	MediaVideo
	MediaDocument
)

var mediaExtensions = map[string]MediaType{
	".jpg": MediaImage, ".jpeg": MediaImage, ".png": MediaImage, ".gif": MediaImage,
	".webp": MediaImage, ".svg": MediaImage, ".bmp": MediaImage, ".ico": MediaImage,
	".avif": MediaImage, ".tif": MediaImage, ".tiff": MediaImage,

	".mp4": MediaVideo, ".webm": MediaVideo, ".mov": MediaVideo, ".avi": MediaVideo,
	".mkv": MediaVideo, ".m4v": MediaVideo, ".ogv": MediaVideo, ".mpeg": MediaVideo,
	".mpg": MediaVideo,

	".pdf": MediaDocument, ".doc": MediaDocument, ".docx": MediaDocument,
	".xls": MediaDocument, ".xlsx": MediaDocument, ".ppt": MediaDocument,
	".pptx": MediaDocument, ".odt": MediaDocument, ".ods": MediaDocument,
	".odp": MediaDocument, ".rtf": MediaDocument, ".csv": MediaDocument,
	".epub": MediaDocument,
}

// MediaTypeOf returns the media type implied by the URL's path extension.
func MediaTypeOf(raw string) MediaType {
	u, err := url.Parse(raw)
	if err != nil {
		return MediaNone
	}
	return mediaExtensions[strings.ToLower(path.Ext(u.Path))]
}

// IsUnderRoot reports whether raw belongs to the site rooted at rootURL:
// its host matches the root host per SameSite, and its path is the root
// path or lies beneath it.
func IsUnderRoot(rootURL, raw string, subdomains bool) bool {
	root, err := url.Parse(rootURL)
	if err != nil {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !SameSite(root.Hostname(), u.Hostname(), subdomains) {
		return false
	}
	rootPath := strings.TrimRight(root.Path, "/")
	if rootPath == "" {
		return true
	}
	p := strings.TrimRight(u.Path, "/")
	return p == rootPath || strings.HasPrefix(p, rootPath+"/")
}

// SameSite reports whether host equals rootHost. With subdomains, hosts
// beneath rootHost also match.
func SameSite(rootHost, host string, subdomains bool) bool {
	rootHost = strings.ToLower(rootHost)
	host = strings.ToLower(host)
	if host == rootHost {
		return true
	}
	return subdomains && strings.HasSuffix(host, "."+rootHost)
}
