package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/amosWeiskopf/sitemapsmith/pkg/classifier"
	"github.com/amosWeiskopf/sitemapsmith/pkg/crawler"
)

// AppName names the config file, env prefix and XDG directories.
const AppName = "sitemapsmith"

// Config holds all application configuration
type Config struct {
	// Crawler configuration
	Crawler CrawlerConfig `mapstructure:"crawler"`

	// Sitemap output configuration
	Sitemap SitemapConfig `mapstructure:"sitemap"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Storage configuration
	Storage StorageConfig `mapstructure:"storage"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig holds crawler-specific configuration
type CrawlerConfig struct {
	MaxURLs           int           `mapstructure:"max_urls"`
	Delay             time.Duration `mapstructure:"delay"`
	UserAgent         string        `mapstructure:"user_agent"`
	MaxWorkers        int           `mapstructure:"max_workers"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
}

// SitemapConfig holds sitemap output configuration
type SitemapConfig struct {
	OutputDir        string   `mapstructure:"output_dir"`
	Format           string   `mapstructure:"format"` // "xml" or "txt"
	Compress         bool     `mapstructure:"compress"`
	TopPriorityPaths []string `mapstructure:"top_priority_paths"`
	CategoryMarkers  []string `mapstructure:"category_markers"`
	ProductMarkers   []string `mapstructure:"product_markers"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CrawlTimeout time.Duration `mapstructure:"crawl_timeout"`
}

// StorageConfig holds the generation history database location
type StorageConfig struct {
	Path string `mapstructure:"path"` // empty disables history
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // "json" or "text"
	OutputPath string `mapstructure:"output_path"` // "stdout", "stderr" or a file
}

// XDGDataDir returns the per-user data directory, e.g.
// ~/.local/share/sitemapsmith on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user config directory, e.g.
// ~/.config/sitemapsmith on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load reads configuration from the given file, or from config.yaml in the
// usual search paths when configPath is empty. Environment variables prefixed
// with SITEMAPSMITH_ override both, e.g. SITEMAPSMITH_CRAWLER_MAX_URLS.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(XDGConfigDir())
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error, we'll use defaults and env
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Crawler defaults
	v.SetDefault("crawler.max_urls", crawler.DefaultMaxURLs)
	v.SetDefault("crawler.delay", crawler.DefaultDelay.String())
	v.SetDefault("crawler.user_agent", crawler.DefaultUserAgent)
	v.SetDefault("crawler.max_workers", crawler.DefaultMaxWorkers)
	v.SetDefault("crawler.timeout", crawler.DefaultTimeout.String())
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("crawler.max_body_size", crawler.DefaultMaxBodySize)

	// Sitemap defaults
	classes := classifier.DefaultOptions()
	v.SetDefault("sitemap.output_dir", filepath.Join(XDGDataDir(), "sitemaps"))
	v.SetDefault("sitemap.format", "xml")
	v.SetDefault("sitemap.compress", false)
	v.SetDefault("sitemap.top_priority_paths", []string{})
	v.SetDefault("sitemap.category_markers", classes.CategoryMarkers)
	v.SetDefault("sitemap.product_markers", classes.ProductMarkers)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.crawl_timeout", "10m")

	// Storage defaults
	v.SetDefault("storage.path", filepath.Join(XDGDataDir(), "history.db"))

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stderr")
}

// bindEnvVars binds environment variables
func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Crawler.MaxURLs <= 0 {
		return ErrInvalidMaxURLs
	}
	if c.Crawler.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if c.Crawler.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Crawler.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}
	if c.Crawler.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	switch strings.ToLower(c.Sitemap.Format) {
	case "xml", "txt":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, c.Sitemap.Format)
	}
	if strings.TrimSpace(c.Sitemap.OutputDir) == "" {
		return ErrNoOutputDir
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Server.CrawlTimeout < 0 {
		return ErrInvalidCrawlTimeout
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	return nil
}

// CrawlOptions maps the crawler section onto crawler.Options for root.
func (c *Config) CrawlOptions(root string) crawler.Options {
	return crawler.Options{
		RootURL:           root,
		MaxURLs:           c.Crawler.MaxURLs,
		Delay:             c.Crawler.Delay,
		UserAgent:         c.Crawler.UserAgent,
		MaxWorkers:        c.Crawler.MaxWorkers,
		Timeout:           c.Crawler.Timeout,
		RequestsPerSecond: c.Crawler.RequestsPerSecond,
		MaxBodySize:       c.Crawler.MaxBodySize,
	}
}

// ClassifierOptions maps the sitemap section onto classifier.Options.
func (c *Config) ClassifierOptions() classifier.Options {
	return classifier.Options{
		TopPriorityPaths: c.Sitemap.TopPriorityPaths,
		CategoryMarkers:  c.Sitemap.CategoryMarkers,
		ProductMarkers:   c.Sitemap.ProductMarkers,
	}
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
