package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitemapsmith/internal/generator"
	"github.com/amosWeiskopf/sitemapsmith/pkg/classifier"
	"github.com/amosWeiskopf/sitemapsmith/pkg/sitemap"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [URL]",
		Short: "Crawl a website and write its sitemap",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}

	cmd.Flags().Int("max-urls", 0, "Maximum number of URLs in the sitemap")
	cmd.Flags().Duration("delay", 0, "Pause between crawl batches")
	cmd.Flags().String("user-agent", "", "User agent for page and robots.txt requests")
	cmd.Flags().Int("max-workers", 0, "Concurrent requests per batch")
	cmd.Flags().Duration("timeout", 0, "Per-request timeout")
	cmd.Flags().Float64("rps", 0, "Optional per-request rate limit (requests per second)")
	cmd.Flags().String("format", "", "Sitemap format (xml, txt)")
	cmd.Flags().Bool("compress", false, "Gzip the sitemap")
	cmd.Flags().String("output-dir", "", "Directory to write the sitemap to")
	cmd.Flags().StringSlice("top", nil, "Extra top-priority paths or URLs")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("max-urls") {
		cfg.Crawler.MaxURLs, _ = flags.GetInt("max-urls")
	}
	if flags.Changed("delay") {
		cfg.Crawler.Delay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("user-agent") {
		cfg.Crawler.UserAgent, _ = flags.GetString("user-agent")
	}
	if flags.Changed("max-workers") {
		cfg.Crawler.MaxWorkers, _ = flags.GetInt("max-workers")
	}
	if flags.Changed("timeout") {
		cfg.Crawler.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("rps") {
		cfg.Crawler.RequestsPerSecond, _ = flags.GetFloat64("rps")
	}
	if flags.Changed("format") {
		cfg.Sitemap.Format, _ = flags.GetString("format")
	}
	if flags.Changed("compress") {
		cfg.Sitemap.Compress, _ = flags.GetBool("compress")
	}
	if flags.Changed("output-dir") {
		cfg.Sitemap.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("top") {
		top, _ := flags.GetStringSlice("top")
		cfg.Sitemap.TopPriorityPaths = append(cfg.Sitemap.TopPriorityPaths, top...)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []generator.Option{generator.WithLogger(logger)}
	if st := openHistory(cfg, logger); st != nil {
		defer st.Close()
		opts = append(opts, generator.WithRecorder(st))
	}
	gen := generator.New(cfg.Sitemap.OutputDir, classifier.New(cfg.ClassifierOptions()), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := gen.Generate(ctx, generator.Request{
		Crawl:    cfg.CrawlOptions(args[0]),
		Format:   sitemap.Format(cfg.Sitemap.Format),
		Compress: cfg.Sitemap.Compress,
	})
	if err != nil {
		return fmt.Errorf("sitemap generation failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Sitemap generated with %d URLs in %s\n%s\n",
		result.URLCount, time.Since(started).Round(time.Millisecond), result.Path)
	return nil
}
