package utils

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot be parsed or lacks a scheme or host.
var ErrInvalidURL = errors.New("invalid URL")

// nonHTMLExtensions lists path extensions that never hold crawlable HTML.
var nonHTMLExtensions = map[string]bool{
	// images
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".ico": true, ".webp": true, ".bmp": true,
	// documents
	".pdf": true,
	// stylesheets and scripts
	".css": true, ".js": true,
	// fonts
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	// archives
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	// media
	".mp4": true, ".mp3": true, ".avi": true, ".mov": true, ".webm": true,
	".wav": true, ".ogg": true,
}

// Normalize canonicalizes a URL for consistent comparison.
// Scheme and host are lower-cased, the query and fragment are dropped and
// trailing slashes are trimmed from the path, so "https://Example.com/a/?x=1#top"
// and "https://example.com/a" normalize to the same value.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q must be absolute", ErrInvalidURL, raw)
	}

	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) +
		strings.TrimRight(u.EscapedPath(), "/"), nil
}

// IsInScope reports whether candidate belongs to the same site as root and
// looks like an HTML page.
func IsInScope(candidate, root string) bool {
	c, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	r, err := url.Parse(root)
	if err != nil {
		return false
	}

	if !strings.EqualFold(c.Host, r.Host) {
		return false
	}
	scheme := strings.ToLower(c.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return !HasNonHTMLExtension(c.Path)
}

// HasNonHTMLExtension reports whether the path ends in a known asset extension.
// A query suffix, if present, is ignored.
func HasNonHTMLExtension(p string) bool {
	if idx := strings.IndexByte(p, '?'); idx >= 0 {
		p = p[:idx]
	}
	return nonHTMLExtensions[strings.ToLower(path.Ext(p))]
}
