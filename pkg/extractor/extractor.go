package extractor

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ignoredSchemes are href prefixes that never point at a page.
var ignoredSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// Extractor pulls hyperlink targets out of HTML documents
type Extractor struct {
	honorBase bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBaseElement makes a document's <base href> override the page URL when
// resolving relative links.
func WithBaseElement(enabled bool) Option {
	return func(e *Extractor) {
		e.honorBase = enabled
	}
}

// New creates a new Extractor instance
func New(opts ...Option) *Extractor {
	e := &Extractor{honorBase: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractLinks parses an HTML document and returns the absolute URL of every
// <a href>, resolved against baseURL. Results are de-duplicated and keep
// document order.
func (e *Extractor) ExtractLinks(r io.Reader, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.A:
				if href, ok := attr(n, "href"); ok {
					hrefs = append(hrefs, href)
				}
			case atom.Base:
				if href, ok := attr(n, "href"); ok && e.honorBase {
					if ref, err := url.Parse(href); err == nil {
						base = base.ResolveReference(ref)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	seen := make(map[string]bool, len(hrefs))
	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		abs, ok := resolve(base, href)
		if !ok || seen[abs] {
			continue
		}
		seen[abs] = true
		links = append(links, abs)
	}
	return links, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			v := strings.TrimSpace(a.Val)
			return v, v != ""
		}
	}
	return "", false
}

func resolve(base *url.URL, href string) (string, bool) {
	lower := strings.ToLower(href)
	for _, scheme := range ignoredSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}
	if strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
