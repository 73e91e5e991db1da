package crawler

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// RobotsChecker answers robots.txt allow/deny questions.
type RobotsChecker interface {
	CanFetch(ctx context.Context, target, userAgent string) bool
}

// LinkExtractor returns the absolute URLs linked from an HTML document.
type LinkExtractor interface {
	ExtractLinks(r io.Reader, baseURL string) ([]string, error)
}

// Observer receives crawl progress. Calls are made from the goroutine running
// Crawl, one at a time.
type Observer interface {
	// URLCrawled is called each time a URL is added to the crawled set.
	URLCrawled(pageURL string, crawled int)
	// BatchCompleted is called after a batch has been merged into the frontier.
	BatchCompleted(report BatchReport)
}

// BatchReport summarizes one dispatched batch.
type BatchReport struct {
	Batch   int
	Size    int
	Crawled int
	Visited int
	Pending int
	Elapsed time.Duration
}

// NopObserver ignores all progress.
type NopObserver struct{}

func (NopObserver) URLCrawled(string, int)     {}
func (NopObserver) BatchCompleted(BatchReport) {}

// Page is a fetched response.
type Page struct {
	URL         string // final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte
}

// Default crawl settings.
const (
	DefaultMaxURLs     = 1000
	DefaultDelay       = time.Second
	DefaultUserAgent   = "CustomCrawler/1.0"
	DefaultMaxWorkers  = 5
	DefaultTimeout     = 10 * time.Second
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// Options contains configuration for the crawler
type Options struct {
	RootURL           string        // Site to crawl; only its host is followed
	MaxURLs           int           // Crawled URL budget
	Delay             time.Duration // Pause between batches
	UserAgent         string        // User agent for pages and robots.txt
	MaxWorkers        int           // Concurrent fetches per batch
	Timeout           time.Duration // Per-request timeout
	RequestsPerSecond float64       // Optional per-request rate limit, 0 disables
	MaxBodySize       int64         // Response body cap in bytes
}

// DefaultOptions returns Options populated with the defaults for rootURL.
func DefaultOptions(rootURL string) Options {
	return Options{
		RootURL:     rootURL,
		MaxURLs:     DefaultMaxURLs,
		Delay:       DefaultDelay,
		UserAgent:   DefaultUserAgent,
		MaxWorkers:  DefaultMaxWorkers,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// Validate checks the options before any crawling starts.
func (o Options) Validate() error {
	if strings.TrimSpace(o.RootURL) == "" {
		return fmt.Errorf("%w: root URL is required", ErrInvalidRootURL)
	}
	if _, err := utils.Normalize(o.RootURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRootURL, err)
	}
	u, _ := url.Parse(strings.TrimSpace(o.RootURL))
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRootURL, u.Scheme)
	}
	if o.MaxURLs <= 0 {
		return ErrInvalidMaxURLs
	}
	if o.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if o.Delay < 0 {
		return ErrInvalidDelay
	}
	if o.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if o.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}
	if o.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
