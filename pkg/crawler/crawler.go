package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/amosWeiskopf/sitemapsmith/internal/models"
	"github.com/amosWeiskopf/sitemapsmith/pkg/extractor"
	"github.com/amosWeiskopf/sitemapsmith/pkg/robots"
	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

// Crawler discovers the pages of a single site. It owns the frontier for the
// duration of Crawl; workers only report results back over a channel.
type Crawler struct {
	opts      Options
	root      string
	client    *http.Client
	fetcher   Fetcher
	robots    RobotsChecker
	extractor LinkExtractor
	observer  Observer
	logger    *slog.Logger
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithHTTPClient sets the client used by the default fetcher and robots checker.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Crawler) {
		c.client = client
	}
}

// WithFetcher replaces the HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithRobots replaces the robots.txt checker.
func WithRobots(r RobotsChecker) Option {
	return func(c *Crawler) {
		c.robots = r
	}
}

// WithExtractor replaces the link extractor.
func WithExtractor(e LinkExtractor) Option {
	return func(c *Crawler) {
		c.extractor = e
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates opts and builds a Crawler. Collaborators not supplied through
// setters get HTTP-backed defaults sharing one client.
func New(opts Options, setters ...Option) (*Crawler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	root, err := utils.Normalize(opts.RootURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRootURL, err)
	}

	c := &Crawler{
		opts:     opts,
		root:     root,
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, set := range setters {
		set(c)
	}

	if c.client == nil {
		c.client = newHTTPClient(opts.Timeout)
	}
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(c.client, FetcherOptions{
			UserAgent:         opts.UserAgent,
			Timeout:           opts.Timeout,
			MaxBodySize:       opts.MaxBodySize,
			RequestsPerSecond: opts.RequestsPerSecond,
		})
	}
	if c.robots == nil {
		c.robots = robots.NewChecker(c.client,
			robots.WithTimeout(opts.Timeout),
			robots.WithLogger(c.logger),
		)
	}
	if c.extractor == nil {
		c.extractor = extractor.New()
	}
	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     30 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout, Jar: jar}
}

// Root returns the normalized root URL.
func (c *Crawler) Root() string { return c.root }

// Crawl runs the crawl to completion. The returned URLs are sorted and hold
// at most MaxURLs entries. If ctx is done mid-crawl, the partial result is
// returned together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context) (*models.CrawlResult, error) {
	result := &models.CrawlResult{RootURL: c.root, StartedAt: time.Now()}
	frontier := NewFrontier()
	frontier.Add(c.root)
	processor := NewProcessor(c.root, c.opts.UserAgent, c.fetcher, c.robots, c.extractor, c.logger)

	c.logger.Info("starting crawl",
		"root", c.root,
		"max_urls", c.opts.MaxURLs,
		"max_workers", c.opts.MaxWorkers,
		"delay", c.opts.Delay,
	)

	var crawlErr error
	for frontier.Pending() > 0 && frontier.Crawled() < c.opts.MaxURLs {
		if err := ctx.Err(); err != nil {
			crawlErr = err
			break
		}

		started := time.Now()
		batch := frontier.NextBatch(frontier.Pending())
		result.Stats.Batches++
		c.runBatch(ctx, processor, frontier, batch, &result.Stats)

		report := BatchReport{
			Batch:   result.Stats.Batches,
			Size:    len(batch),
			Crawled: frontier.Crawled(),
			Visited: frontier.Visited(),
			Pending: frontier.Pending(),
			Elapsed: time.Since(started),
		}
		c.logger.Debug("batch complete",
			"batch", report.Batch,
			"size", report.Size,
			"crawled", report.Crawled,
			"pending", report.Pending,
			"elapsed", report.Elapsed,
		)
		c.observer.BatchCompleted(report)

		if frontier.Pending() == 0 || frontier.Crawled() >= c.opts.MaxURLs {
			break
		}
		if err := sleepContext(ctx, c.opts.Delay); err != nil {
			crawlErr = err
			break
		}
	}
	if crawlErr == nil {
		crawlErr = ctx.Err()
	}

	urls := frontier.CrawledURLs()
	if len(urls) > c.opts.MaxURLs {
		result.Stats.Truncated = len(urls) - c.opts.MaxURLs
		urls = urls[:c.opts.MaxURLs]
	}
	result.URLs = urls
	result.Stats.Visited = frontier.Visited()
	result.Stats.Crawled = frontier.Crawled()
	result.Stats.Rejected = frontier.Rejected()
	result.FinishedAt = time.Now()

	if crawlErr != nil {
		c.logger.Warn("crawl interrupted",
			"root", c.root,
			"crawled", result.Stats.Crawled,
			"error", crawlErr,
		)
		return result, crawlErr
	}

	c.logger.Info("crawl finished",
		"root", c.root,
		"urls", len(result.URLs),
		"visited", result.Stats.Visited,
		"batches", result.Stats.Batches,
		"duration", result.Duration(),
	)
	return result, nil
}

// runBatch fans the batch out to at most MaxWorkers goroutines and merges
// results as they arrive. Only this goroutine touches the frontier.
func (c *Crawler) runBatch(ctx context.Context, p *Processor, frontier *Frontier, batch []TargetID, stats *models.CrawlStats) {
	targets := make([]string, len(batch))
	for i, id := range batch {
		targets[i] = frontier.URL(id)
	}

	type indexed struct {
		id  TargetID
		res Result
	}
	results := make(chan indexed, len(batch))

	go func() {
		var g errgroup.Group
		g.SetLimit(c.opts.MaxWorkers)
		for i, target := range targets {
			id := batch[i]
			g.Go(func() error {
				results <- indexed{id: id, res: p.Process(ctx, target)}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	for r := range results {
		c.merge(frontier, r.id, r.res, stats)
	}
}

func (c *Crawler) merge(frontier *Frontier, id TargetID, res Result, stats *models.CrawlStats) {
	var err error
	switch res.Outcome {
	case OutcomeFetched:
		err = frontier.MarkCrawled(id)
		if err == nil {
			crawled := frontier.Crawled()
			c.logger.Info("crawled", "url", res.Target, "count", crawled)
			c.observer.URLCrawled(res.Target, crawled)
		}
	case OutcomeDisallowed:
		stats.Disallowed++
		err = frontier.MarkRejected(id)
	case OutcomeFailed:
		stats.Failed++
		err = frontier.MarkRejected(id)
	default:
		err = frontier.MarkRejected(id)
	}
	if err != nil {
		c.logger.Error("frontier update failed", "url", res.Target, "error", err)
		return
	}

	for _, link := range res.Links {
		frontier.Add(link)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsInputError reports whether err stems from invalid crawl options.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
