// Package server exposes sitemap generation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/amosWeiskopf/sitemapsmith/internal/config"
	"github.com/amosWeiskopf/sitemapsmith/internal/generator"
	"github.com/amosWeiskopf/sitemapsmith/internal/models"
	"github.com/amosWeiskopf/sitemapsmith/pkg/crawler"
	"github.com/amosWeiskopf/sitemapsmith/pkg/sitemap"
	"github.com/amosWeiskopf/sitemapsmith/pkg/utils"
)

const historyLimit = 100

// History lists previously generated sitemaps.
type History interface {
	List(ctx context.Context, limit int) ([]models.Generation, error)
}

// Server handles the HTTP API.
type Server struct {
	cfg       *config.Config
	generator *generator.Generator
	history   History
	hub       *Hub
	logger    *slog.Logger
	now       func() time.Time
	keepAlive time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithHistory lists sitemaps from h instead of scanning the output directory.
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithHub sets the event hub behind /generate-log.
func WithHub(h *Hub) Option {
	return func(s *Server) {
		if h != nil {
			s.hub = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for humanized dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a Server. cfg supplies request defaults and limits.
func New(cfg *config.Config, gen *generator.Generator, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		generator: gen,
		hub:       NewHub(0),
		logger:    slog.Default(),
		now:       time.Now,
		keepAlive: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	mux.HandleFunc("GET /sitemaps", s.handleSitemaps)
	mux.HandleFunc("GET /generate-log", s.handleGenerateLog)
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// generateRequest is the POST /generate body. Omitted fields fall back to
// the configured defaults. Delay is in seconds.
type generateRequest struct {
	RootURL    string   `json:"root_url"`
	MaxURLs    *int     `json:"max_urls"`
	Delay      *float64 `json:"delay"`
	UserAgent  *string  `json:"user_agent"`
	MaxWorkers *int     `json:"max_workers"`
	Compress   *bool    `json:"compress"`
	Format     *string  `json:"format"`
}

type generateResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	URLCount int    `json:"url_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) buildRequest(body generateRequest) generator.Request {
	opts := s.cfg.CrawlOptions(strings.TrimSpace(body.RootURL))
	if body.MaxURLs != nil {
		opts.MaxURLs = *body.MaxURLs
	}
	if body.Delay != nil {
		opts.Delay = time.Duration(*body.Delay * float64(time.Second))
	}
	if body.UserAgent != nil && strings.TrimSpace(*body.UserAgent) != "" {
		opts.UserAgent = *body.UserAgent
	}
	if body.MaxWorkers != nil {
		opts.MaxWorkers = *body.MaxWorkers
	}

	req := generator.Request{
		Crawl:    opts,
		Format:   sitemap.Format(s.cfg.Sitemap.Format),
		Compress: s.cfg.Sitemap.Compress,
	}
	if body.Compress != nil {
		req.Compress = *body.Compress
	}
	if body.Format != nil {
		req.Format = sitemap.Format(*body.Format)
	}
	return req
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(body.RootURL) == "" {
		writeError(w, http.StatusBadRequest, "root_url is required")
		return
	}
	s.logger.Info("received request to generate sitemap", "root_url", body.RootURL)

	ctx := r.Context()
	if d := s.cfg.Server.CrawlTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	gen, err := s.generator.Generate(ctx, s.buildRequest(body), crawler.WithObserver(s.hub))
	if err != nil {
		s.logger.Error("error generating sitemap", "root_url", body.RootURL, "error", err)
		s.hub.Publish(Event{Name: "error", Data: err.Error()})
		status := http.StatusInternalServerError
		if crawler.IsInputError(err) || errors.Is(err, generator.ErrNoURLsFound) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	s.hub.Publish(Event{Name: "done", Data: gen.Filename})
	writeJSON(w, http.StatusOK, generateResponse{
		Message:  "Sitemap generated successfully",
		Filename: gen.Filename,
		URLCount: gen.URLCount,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(utils.SanitizeFilename(r.PathValue("filename")))
	path := filepath.Join(s.generator.OutputDir(), name)

	f, err := os.Open(path)
	if err != nil {
		s.logger.Error("download failed: file not found", "filename", name)
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	s.logger.Info("downloading file", "filename", name)
	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(name, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/xml"
	}
}

// sitemapEntry is one row of GET /sitemaps.
type sitemapEntry struct {
	Filename    string    `json:"filename"`
	RootURL     string    `json:"root_url,omitempty"`
	URLCount    int       `json:"url_count,omitempty"`
	Compressed  bool      `json:"compressed"`
	Created     string    `json:"created"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	DownloadURL string    `json:"download_url"`
}

func (s *Server) handleSitemaps(w http.ResponseWriter, r *http.Request) {
	entries, err := s.listSitemaps(r.Context())
	if err != nil {
		s.logger.Error("failed to list sitemaps", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) listSitemaps(ctx context.Context) ([]sitemapEntry, error) {
	now := s.now()
	entries := []sitemapEntry{}

	if s.history != nil {
		gens, err := s.history.List(ctx, historyLimit)
		if err != nil {
			return nil, err
		}
		for _, g := range gens {
			entries = append(entries, sitemapEntry{
				Filename:    g.Filename,
				RootURL:     g.RootURL,
				URLCount:    g.URLCount,
				Compressed:  g.Compressed,
				Created:     utils.FormatCreationDate(utils.StampFromFilename(g.Filename), now),
				CreatedAt:   g.CreatedAt,
				DownloadURL: "/download/" + g.Filename,
			})
		}
		return entries, nil
	}

	files, err := os.ReadDir(s.generator.OutputDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasPrefix(f.Name(), "sitemap_") {
			continue
		}
		entries = append(entries, sitemapEntry{
			Filename:    f.Name(),
			Compressed:  strings.HasSuffix(f.Name(), ".gz"),
			Created:     utils.FormatCreationDate(utils.StampFromFilename(f.Name()), now),
			DownloadURL: "/download/" + f.Name(),
		})
	}
	// stamps sort lexically, newest first
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename > entries[j].Filename })
	if len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}
	return entries, nil
}

func (s *Server) handleGenerateLog(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(map[string]string{"type": e.Name, "log": e.Data})
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
