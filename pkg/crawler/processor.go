package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

// Outcome classifies what happened to a dispatched target.
type Outcome int

const (
	// OutcomeFetched means the page was in scope and fetched successfully.
	OutcomeFetched Outcome = iota
	// OutcomeDisallowed means robots.txt denied the fetch.
	OutcomeDisallowed
	// OutcomeFailed means the fetch hit a transport error or non-2xx status.
	OutcomeFailed
	// OutcomeOutOfScope means the target is not a crawlable page of the site.
	OutcomeOutOfScope
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeDisallowed:
		return "disallowed"
	case OutcomeFailed:
		return "failed"
	case OutcomeOutOfScope:
		return "out_of_scope"
	default:
		return "unknown"
	}
}

// Result is what processing one target produced. Links are normalized and
// in scope. Err is set only for OutcomeFailed.
type Result struct {
	Target  string
	Outcome Outcome
	Links   []string
	Err     error
}

// Processor fetches one target and returns its in-scope outbound links.
// It is safe for concurrent use when its collaborators are.
type Processor struct {
	root      string
	userAgent string
	fetcher   Fetcher
	robots    RobotsChecker
	extractor LinkExtractor
	logger    *slog.Logger
}

// NewProcessor wires a Processor for the site rooted at root.
func NewProcessor(root, userAgent string, fetcher Fetcher, robots RobotsChecker, extractor LinkExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		root:      root,
		userAgent: userAgent,
		fetcher:   fetcher,
		robots:    robots,
		extractor: extractor,
		logger:    logger,
	}
}

// Process checks robots.txt, fetches target and extracts its links. A single
// failing page never returns an error to the caller; it yields OutcomeFailed.
func (p *Processor) Process(ctx context.Context, target string) Result {
	if !utils.IsInScope(target, p.root) {
		return Result{Target: target, Outcome: OutcomeOutOfScope}
	}

	if p.robots != nil && !p.robots.CanFetch(ctx, target, p.userAgent) {
		p.logger.Info("skipping, disallowed by robots.txt", "url", target)
		return Result{Target: target, Outcome: OutcomeDisallowed}
	}

	page, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		p.logger.Warn("failed to fetch", "url", target, "error", err)
		return Result{Target: target, Outcome: OutcomeFailed, Err: err}
	}

	if !isWebpageMIME(page.ContentType) {
		p.logger.Debug("not extracting links from non-HTML page",
			"url", target,
			"content_type", page.ContentType,
		)
		return Result{Target: target, Outcome: OutcomeFetched}
	}

	raw, err := p.extractor.ExtractLinks(bytes.NewReader(page.Body), linkBase(target, page.URL))
	if err != nil {
		p.logger.Warn("failed to extract links", "url", target, "error", err)
		return Result{Target: target, Outcome: OutcomeFetched}
	}

	return Result{Target: target, Outcome: OutcomeFetched, Links: p.filterLinks(raw)}
}

// linkBase picks the URL relative links resolve against. Redirects within
// the host (such as /docs to /docs/) use the final URL; a redirect to another
// host keeps the requested URL so links stay on the crawled site.
func linkBase(target, final string) string {
	if final == "" {
		return target
	}
	t, err := url.Parse(target)
	if err != nil {
		return final
	}
	f, err := url.Parse(final)
	if err != nil || !strings.EqualFold(t.Host, f.Host) {
		return target
	}
	return final
}

func (p *Processor) filterLinks(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	links := make([]string, 0, len(raw))
	for _, link := range raw {
		normalized, err := utils.Normalize(link)
		if err != nil || seen[normalized] {
			continue
		}
		seen[normalized] = true
		if !utils.IsInScope(normalized, p.root) {
			continue
		}
		links = append(links, normalized)
	}
	return links
}
