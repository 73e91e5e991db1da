package sitemap

import (
	"bufio"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amosWeiskopf/sitemapsmith/pkg/classifier"
)

// Namespace is the sitemaps.org schema every urlset declares.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// DateLayout is the lastmod format.
const DateLayout = "2006-01-02"

// Format selects how a sitemap is serialized.
type Format string

const (
	FormatXML Format = "xml"
	FormatTXT Format = "txt"
)

// ErrEmpty is returned when asked to build a sitemap with no URLs.
var ErrEmpty = errors.New("no URLs provided for sitemap generation")

// ErrUnsupportedFormat is returned for unknown output formats.
var ErrUnsupportedFormat = errors.New("unsupported sitemap format")

// ParseFormat maps a config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXML, FormatTXT:
		return f, nil
	case "":
		return FormatXML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == FormatTXT {
		return "txt"
	}
	return "xml"
}

// Classifier assigns sitemap hints to a URL.
type Classifier interface {
	Classify(rawURL, rootURL string) classifier.Classification
}

// URLSet is the <urlset> document.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is one <url> entry.
type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Build classifies every URL and stamps it with now as lastmod. The input
// order is kept.
func Build(urls []string, root string, c Classifier, now time.Time) (*URLSet, error) {
	if len(urls) == 0 {
		return nil, ErrEmpty
	}

	lastmod := now.Format(DateLayout)
	set := &URLSet{XMLNS: Namespace, URLs: make([]URL, 0, len(urls))}
	for _, u := range urls {
		class := c.Classify(u, root)
		set.URLs = append(set.URLs, URL{
			Loc:        u,
			LastMod:    lastmod,
			ChangeFreq: class.ChangeFreq,
			Priority:   class.Priority,
		})
	}
	return set, nil
}

// Encode writes set to w in the given format.
func Encode(w io.Writer, set *URLSet, format Format) error {
	switch format {
	case FormatXML, "":
		return encodeXML(w, set)
	case FormatTXT:
		return encodeTXT(w, set)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func encodeXML(w io.Writer, set *URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write xml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("failed to encode sitemap: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush sitemap: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeTXT(w io.Writer, set *URLSet) error {
	bw := bufio.NewWriter(w)
	for _, u := range set.URLs {
		if _, err := bw.WriteString(u.Loc + "\n"); err != nil {
			return fmt.Errorf("failed to write url: %w", err)
		}
	}
	return bw.Flush()
}

// WriteFile encodes set to path, gzip-compressing the stream when compress is
// set. The file is written to a temporary name and renamed into place so a
// failed write never leaves a truncated sitemap behind.
func WriteFile(path string, set *URLSet, format Format, compress bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sitemap-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	var zw *gzip.Writer
	if compress {
		zw = gzip.NewWriter(tmp)
		zw.Name = strings.TrimSuffix(filepath.Base(path), ".gz")
		w = zw
	}

	if err = Encode(w, set, format); err != nil {
		return err
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return fmt.Errorf("failed to finish gzip stream: %w", err)
		}
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close sitemap: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set sitemap permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move sitemap into place: %w", err)
	}
	return nil
}
