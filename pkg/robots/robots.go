package robots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout = 10 * time.Second
	maxRobotsSize  = 512 * 1024
)

// Checker evaluates robots.txt rules, fetching each host's file at most once
// per crawl run. Failures to fetch or parse a file allow everything.
type Checker struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData // nil value means allow all

	group singleflight.Group
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds each robots.txt fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChecker constructs a Checker that fetches robots.txt with client.
func NewChecker(client *http.Client, opts ...Option) *Checker {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	c := &Checker{
		client:  client,
		timeout: defaultTimeout,
		logger:  slog.Default(),
		cache:   make(map[string]*robotstxt.RobotsData),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CanFetch reports whether userAgent may fetch target.
func (c *Checker) CanFetch(ctx context.Context, target, userAgent string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return true
	}

	rules := c.rules(ctx, u, userAgent)
	if rules == nil {
		return true
	}

	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return rules.TestAgent(p, userAgent)
}

// Cached reports how many hosts have a cached policy.
func (c *Checker) Cached() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Checker) rules(ctx context.Context, u *url.URL, userAgent string) *robotstxt.RobotsData {
	key := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)

	c.mu.RLock()
	rules, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return rules
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		data, err := c.fetch(ctx, key+"/robots.txt", userAgent)
		if err != nil {
			c.logger.Warn("could not use robots.txt, allowing all",
				"robots_url", key+"/robots.txt",
				"error", err,
			)
			data = nil
		}
		// Overwrites are idempotent; a racing fetch stores an equal policy.
		c.mu.Lock()
		c.cache[key] = data
		c.mu.Unlock()
		return data, nil
	})
	data, _ := v.(*robotstxt.RobotsData)
	return data
}

func (c *Checker) fetch(ctx context.Context, robotsURL, userAgent string) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
