// Package classifier assigns sitemap priority and change frequency to URLs
// using an ordered, first-match-wins rule table.
package classifier

import (
	"net/url"
	"strings"

	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

// Sitemap priorities.
const (
	PriorityTop      = "1.0"
	PriorityCategory = "0.9"
	PriorityProduct  = "0.8"
	PriorityDefault  = "0.6"
)

// Sitemap change frequencies.
const (
	ChangeFreqDaily  = "daily"
	ChangeFreqWeekly = "weekly"
)

// MatchKind tags how a Rule matches a URL.
type MatchKind int

const (
	// MatchExact matches when the normalized URL equals one of the rule's
	// values resolved against the root URL. The root itself always matches.
	MatchExact MatchKind = iota
	// MatchPathContains matches when the URL path contains one of the rule's
	// values, compared case-insensitively.
	MatchPathContains
)

// Classification is the sitemap metadata for one URL.
type Classification struct {
	Priority   string
	ChangeFreq string
}

// Rule pairs a predicate with the classification it yields.
type Rule struct {
	Name   string
	Kind   MatchKind
	Values []string
	Result Classification
}

// Classifier evaluates rules in order and falls back to a default.
type Classifier struct {
	rules    []Rule
	fallback Classification
}

// Options lists the values for the built-in rule table.
type Options struct {
	TopPriorityPaths []string
	CategoryMarkers  []string
	ProductMarkers   []string
}

// DefaultOptions returns the markers used when none are configured.
func DefaultOptions() Options {
	return Options{
		CategoryMarkers: []string{"/sub-category/", "/category/"},
		ProductMarkers:  []string{"/product/", "/item/"},
	}
}

// New builds the standard rule table: top-priority pages, then category
// pages, then product pages.
func New(opts Options) *Classifier {
	defaults := DefaultOptions()
	if len(opts.CategoryMarkers) == 0 {
		opts.CategoryMarkers = defaults.CategoryMarkers
	}
	if len(opts.ProductMarkers) == 0 {
		opts.ProductMarkers = defaults.ProductMarkers
	}

	return NewWithRules([]Rule{
		{
			Name:   "top",
			Kind:   MatchExact,
			Values: opts.TopPriorityPaths,
			Result: Classification{Priority: PriorityTop, ChangeFreq: ChangeFreqDaily},
		},
		{
			Name:   "category",
			Kind:   MatchPathContains,
			Values: opts.CategoryMarkers,
			Result: Classification{Priority: PriorityCategory, ChangeFreq: ChangeFreqWeekly},
		},
		{
			Name:   "product",
			Kind:   MatchPathContains,
			Values: opts.ProductMarkers,
			Result: Classification{Priority: PriorityProduct, ChangeFreq: ChangeFreqWeekly},
		},
	}, Classification{Priority: PriorityDefault, ChangeFreq: ChangeFreqWeekly})
}

// NewWithRules builds a Classifier from an explicit rule table.
func NewWithRules(rules []Rule, fallback Classification) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied, fallback: fallback}
}

// Rules returns the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the classification of the first rule matching rawURL.
func (c *Classifier) Classify(rawURL, rootURL string) Classification {
	for _, rule := range c.rules {
		if rule.matches(rawURL, rootURL) {
			return rule.Result
		}
	}
	return c.fallback
}

func (r Rule) matches(rawURL, rootURL string) bool {
	switch r.Kind {
	case MatchExact:
		return matchExact(rawURL, rootURL, r.Values)
	case MatchPathContains:
		return matchPathContains(rawURL, r.Values)
	default:
		return false
	}
}

func matchExact(rawURL, rootURL string, values []string) bool {
	target, err := utils.Normalize(rawURL)
	if err != nil {
		return false
	}
	root, err := url.Parse(rootURL)
	if err != nil {
		return false
	}

	if normalizedRoot, err := utils.Normalize(rootURL); err == nil && target == normalizedRoot {
		return true
	}
	for _, v := range values {
		ref, err := url.Parse(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		candidate, err := utils.Normalize(root.ResolveReference(ref).String())
		if err != nil {
			continue
		}
		if candidate == target {
			return true
		}
	}
	return false
}

func matchPathContains(rawURL string, markers []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, m := range markers {
		if m != "" && strings.Contains(p, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
