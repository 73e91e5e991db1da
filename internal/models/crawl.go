package models

import "time"

// CrawlResult contains the results of a crawl operation
type CrawlResult struct {
	RootURL    string     `json:"root_url"`
	URLs       []string   `json:"urls"`
	Stats      CrawlStats `json:"stats"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// CrawlStats aggregates crawl level counters.
type CrawlStats struct {
	Visited    int `json:"visited"`
	Crawled    int `json:"crawled"`
	Rejected   int `json:"rejected"`
	Disallowed int `json:"disallowed"`
	Failed     int `json:"failed"`
	Batches    int `json:"batches"`
	Truncated  int `json:"truncated"`
}

// Duration returns how long the crawl ran.
func (r *CrawlResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Generation describes a sitemap file produced from a crawl
type Generation struct {
	ID         int64     `json:"id,omitempty"`
	RootURL    string    `json:"root_url"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	URLCount   int       `json:"url_count"`
	Compressed bool      `json:"compressed"`
	CreatedAt  time.Time `json:"created_at"`
}
