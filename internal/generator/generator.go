// Package generator turns a crawl into a sitemap file: crawl, classify,
// write, then record the result in the history store.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/amosWeiskopf/sitemapsmith/internal/models"
	"github.com/amosWeiskopf/sitemapsmith/pkg/crawler"
	"github.com/amosWeiskopf/sitemapsmith/pkg/sitemap"
	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

// ErrNoURLsFound is returned when a crawl completes without a single page.
var ErrNoURLsFound = errors.New("no URLs found during crawling")

// Recorder persists generation history.
type Recorder interface {
	Record(ctx context.Context, g *models.Generation) error
}

// Request describes one sitemap generation.
type Request struct {
	Crawl    crawler.Options
	Format   sitemap.Format
	Compress bool
}

// Generator runs sitemap generations into a single output directory.
type Generator struct {
	outputDir  string
	classifier sitemap.Classifier
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
	crawlOpts  []crawler.Option
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder records every generated sitemap.
func WithRecorder(r Recorder) Option {
	return func(g *Generator) {
		g.recorder = r
	}
}

// WithLogger sets the logger passed down to the crawler as well.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock overrides the time source used for filenames and lastmod.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithCrawlerOptions adds options applied to every crawler the generator builds.
func WithCrawlerOptions(opts ...crawler.Option) Option {
	return func(g *Generator) {
		g.crawlOpts = append(g.crawlOpts, opts...)
	}
}

// New creates a Generator writing to outputDir.
func New(outputDir string, c sitemap.Classifier, opts ...Option) *Generator {
	g := &Generator{
		outputDir:  outputDir,
		classifier: c,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OutputDir returns the directory sitemaps are written to.
func (g *Generator) OutputDir() string { return g.outputDir }

// Filename returns the sitemap file name for a generation started at t.
func Filename(t time.Time, format sitemap.Format, compress bool) string {
	name := fmt.Sprintf("sitemap_%s.%s", t.Format(utils.StampLayout), format.Extension())
	if compress {
		name += ".gz"
	}
	return name
}

// Generate crawls req.Crawl.RootURL and writes the sitemap. Invalid options
// are reported before any request is made and match crawler.ErrInvalidInput.
// A crawl cut short by a deadline still produces a sitemap from the pages
// crawled so far; cancellation does not.
func (g *Generator) Generate(ctx context.Context, req Request, extra ...crawler.Option) (*models.Generation, error) {
	format, err := sitemap.ParseFormat(string(req.Format))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crawler.ErrInvalidInput, err)
	}

	opts := append([]crawler.Option{crawler.WithLogger(g.logger)}, g.crawlOpts...)
	opts = append(opts, extra...)
	c, err := crawler.New(req.Crawl, opts...)
	if err != nil {
		return nil, err
	}

	result, err := c.Crawl(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) && result != nil && len(result.URLs) > 0:
		g.logger.Warn("crawl deadline reached, writing partial sitemap",
			"root", c.Root(),
			"urls", len(result.URLs),
		)
	case errors.Is(err, context.DeadlineExceeded):
		g.logger.Error("crawl deadline reached before any page was crawled", "root", c.Root())
		return nil, ErrNoURLsFound
	default:
		return nil, fmt.Errorf("crawl failed: %w", err)
	}

	if len(result.URLs) == 0 {
		g.logger.Error("no URLs found during crawling", "root", c.Root())
		return nil, ErrNoURLsFound
	}

	now := g.now()
	set, err := sitemap.Build(result.URLs, c.Root(), g.classifier, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build sitemap: %w", err)
	}

	filename := Filename(now, format, req.Compress)
	path := filepath.Join(g.outputDir, filename)
	g.logger.Info("generating sitemap", "filename", filename)
	if err := sitemap.WriteFile(path, set, format, req.Compress); err != nil {
		return nil, fmt.Errorf("failed to write sitemap: %w", err)
	}

	gen := &models.Generation{
		RootURL:    c.Root(),
		Filename:   filename,
		Path:       path,
		URLCount:   len(set.URLs),
		Compressed: req.Compress,
		CreatedAt:  now,
	}
	if g.recorder != nil {
		// the crawl deadline may already have passed
		if err := g.recorder.Record(context.WithoutCancel(ctx), gen); err != nil {
			g.logger.Warn("failed to record sitemap history", "filename", filename, "error", err)
		}
	}

	g.logger.Info("sitemap generated", "filename", filename, "url_count", gen.URLCount)
	return gen, nil
}
