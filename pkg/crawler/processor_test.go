package crawler

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/sitemapsmith/pkg/extractor"
)

type stubFetcher struct {
	page  *Page
	err   error
	calls int
}

func (s *stubFetcher) Fetch(context.Context, string) (*Page, error) {
	s.calls++
	return s.page, s.err
}

type failingExtractor struct{}

func (failingExtractor) ExtractLinks(io.Reader, string) ([]string, error) {
	return nil, errors.New("broken document")
}

func htmlPage(url, body string) *Page {
	return &Page{URL: url, StatusCode: 200, ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}

func TestProcessFiltersLinks(t *testing.T) {
	fetcher := &stubFetcher{page: htmlPage(siteRoot+"/dir/page", strings.Join([]string{
		`<a href="sibling">rel</a>`,
		`<a href="/dir/sibling/">dup</a>`,
		`<a href="../top?x=1#frag">up</a>`,
		`<a href="https://elsewhere.test/">ext</a>`,
		`<a href="/img/banner.JPG">img</a>`,
		`<a href="#section">anchor</a>`,
		`<a href="tel:+123">call</a>`,
	}, ""))}
	p := NewProcessor(siteRoot, DefaultUserAgent, fetcher, denyRobots{}, extractor.New(), testLogger())

	res := p.Process(context.Background(), siteRoot+"/dir/page")
	require.Equal(t, OutcomeFetched, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{siteRoot + "/dir/sibling", siteRoot + "/top"}, res.Links)
}

func TestProcessResolvesAgainstFinalURL(t *testing.T) {
	fetcher := &stubFetcher{page: htmlPage(siteRoot+"/moved/here", `<a href="next">n</a>`)}
	p := NewProcessor(siteRoot, DefaultUserAgent, fetcher, denyRobots{}, extractor.New(), testLogger())

	res := p.Process(context.Background(), siteRoot+"/old")
	assert.Equal(t, []string{siteRoot + "/moved/next"}, res.Links)
}

func TestProcessKeepsRequestedHostAfterCrossHostRedirect(t *testing.T) {
	fetcher := &stubFetcher{page: htmlPage("https://www.site.test/start", `<a href="next">n</a><a href="/top">t</a>`)}
	p := NewProcessor(siteRoot, DefaultUserAgent, fetcher, denyRobots{}, extractor.New(), testLogger())

	res := p.Process(context.Background(), siteRoot+"/start")
	assert.Equal(t, []string{siteRoot + "/next", siteRoot + "/top"}, res.Links)
}

func TestLinkBase(t *testing.T) {
	tests := []struct {
		name   string
		target string
		final  string
		want   string
	}{
		{"no final url", siteRoot + "/a", "", siteRoot + "/a"},
		{"same host redirect", siteRoot + "/docs", siteRoot + "/docs/", siteRoot + "/docs/"},
		{"host case differs", siteRoot + "/a", "https://SITE.test/b", "https://SITE.test/b"},
		{"other host", siteRoot + "/a", "https://www.site.test/a", siteRoot + "/a"},
		{"other port", "http://127.0.0.1:8000/", "http://127.0.0.1:9000/", "http://127.0.0.1:8000/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linkBase(tt.target, tt.final))
		})
	}
}

func TestProcessOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		fetcher   *stubFetcher
		robots    RobotsChecker
		extractor LinkExtractor
		want      Outcome
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "disallowed",
			target:    siteRoot + "/private",
			fetcher:   &stubFetcher{page: htmlPage(siteRoot+"/private", "")},
			robots:    denyRobots{denied: map[string]bool{siteRoot + "/private": true}},
			want:      OutcomeDisallowed,
			wantCalls: 0,
		},
		{
			name:      "fetch failure",
			target:    siteRoot + "/down",
			fetcher:   &stubFetcher{err: &StatusError{URL: siteRoot + "/down", StatusCode: 503}},
			want:      OutcomeFailed,
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "other host",
			target:    "https://other.test/page",
			fetcher:   &stubFetcher{},
			want:      OutcomeOutOfScope,
			wantCalls: 0,
		},
		{
			name:   "non-html content",
			target: siteRoot + "/feed",
			fetcher: &stubFetcher{page: &Page{
				URL: siteRoot + "/feed", StatusCode: 200, ContentType: "application/json",
				Body: []byte(`{"href": "/x"}`),
			}},
			want:      OutcomeFetched,
			wantCalls: 1,
		},
		{
			name:      "unparseable document",
			target:    siteRoot + "/odd",
			fetcher:   &stubFetcher{page: htmlPage(siteRoot+"/odd", "<a href=/x>")},
			extractor: failingExtractor{},
			want:      OutcomeFetched,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			robots := tt.robots
			if robots == nil {
				robots = denyRobots{}
			}
			ext := tt.extractor
			if ext == nil {
				ext = extractor.New()
			}
			p := NewProcessor(siteRoot, DefaultUserAgent, tt.fetcher, robots, ext, testLogger())

			res := p.Process(context.Background(), tt.target)
			assert.Equal(t, tt.want, res.Outcome, res.Outcome.String())
			assert.Empty(t, res.Links)
			assert.Equal(t, tt.wantCalls, tt.fetcher.calls)
			if tt.wantErr {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}
