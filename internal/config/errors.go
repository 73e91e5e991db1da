package config

import "errors"

// Configuration validation errors returned by Config.Validate. Callers can
// match them with errors.Is.
var (
	// ErrInvalidMaxURLs is returned when crawler.max_urls is not positive.
	ErrInvalidMaxURLs = errors.New("invalid crawler.max_urls: must be positive")

	// ErrInvalidMaxWorkers is returned when crawler.max_workers is not positive.
	ErrInvalidMaxWorkers = errors.New("invalid crawler.max_workers: must be positive")

	// ErrInvalidDelay is returned when crawler.delay is negative. Use 0 to
	// run batches back to back.
	ErrInvalidDelay = errors.New("invalid crawler.delay: must be non-negative")

	// ErrInvalidTimeout is returned when crawler.timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid crawler.timeout: must be positive")

	ErrInvalidRequestRate = errors.New("invalid crawler.requests_per_second: must be non-negative")

	ErrInvalidMaxBodySize = errors.New("invalid crawler.max_body_size: must be non-negative")

	// ErrInvalidFormat is returned for a sitemap.format other than xml or txt.
	ErrInvalidFormat = errors.New("invalid sitemap.format: must be xml or txt")

	// ErrNoOutputDir is returned when sitemap.output_dir is empty.
	ErrNoOutputDir = errors.New("sitemap.output_dir is required")

	ErrInvalidPort = errors.New("invalid server.port: must be between 1 and 65535")

	// ErrInvalidCrawlTimeout is returned when server.crawl_timeout is negative.
	// Zero means requests are bounded only by the client.
	ErrInvalidCrawlTimeout = errors.New("invalid server.crawl_timeout: must be non-negative")

	// ErrInvalidLogFormat is returned for a logging.format other than json or text.
	ErrInvalidLogFormat = errors.New("invalid logging.format: must be json or text")

	ErrInvalidLogLevel = errors.New("invalid logging.level: must be debug, info, warn or error")
)
