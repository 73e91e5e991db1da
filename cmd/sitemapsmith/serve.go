package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/sitemapsmith/internal/generator"
	"github.com/amosWeiskopf/sitemapsmith/internal/server"
	"github.com/amosWeiskopf/sitemapsmith/pkg/classifier"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sitemap generation web server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().String("host", "", "Address to listen on")
	cmd.Flags().Int("port", 0, "Port to listen on")
	cmd.Flags().String("output-dir", "", "Directory to write sitemaps to")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("output-dir") {
		cfg.Sitemap.OutputDir, _ = flags.GetString("output-dir")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// log lines are also streamed to /generate-log subscribers
	hub := server.NewHub(256)
	logger, closeLog, err := newLogger(cfg, hub)
	if err != nil {
		return err
	}
	defer closeLog()

	genOpts := []generator.Option{generator.WithLogger(logger)}
	srvOpts := []server.Option{server.WithLogger(logger), server.WithHub(hub)}
	if st := openHistory(cfg, logger); st != nil {
		defer st.Close()
		genOpts = append(genOpts, generator.WithRecorder(st))
		srvOpts = append(srvOpts, server.WithHistory(st))
	}

	gen := generator.New(cfg.Sitemap.OutputDir, classifier.New(cfg.ClassifierOptions()), genOpts...)
	srv := server.New(cfg, gen, srvOpts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
