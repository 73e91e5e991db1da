package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCanFetchRespectsRules(t *testing.T) {
	server := robotsServer(t, http.StatusOK, `
User-agent: *
Disallow: /private/
Allow: /public/

User-agent: BadBot
Disallow: /
`, nil)

	c := NewChecker(server.Client())
	ctx := context.Background()

	tests := []struct {
		name  string
		path  string
		agent string
		want  bool
	}{
		{name: "public page", path: "/public/page", agent: "CustomCrawler/1.0", want: true},
		{name: "private page", path: "/private/page", agent: "CustomCrawler/1.0", want: false},
		{name: "unlisted page", path: "/about", agent: "CustomCrawler/1.0", want: true},
		{name: "root", path: "", agent: "CustomCrawler/1.0", want: true},
		{name: "blocked agent", path: "/about", agent: "BadBot", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CanFetch(ctx, server.URL+tt.path, tt.agent))
		})
	}
}

func TestCanFetchDefaultsToAllow(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		server := robotsServer(t, http.StatusNotFound, "", nil)
		c := NewChecker(server.Client())
		assert.True(t, c.CanFetch(context.Background(), server.URL+"/anything", "CustomCrawler/1.0"))
	})

	t.Run("server error", func(t *testing.T) {
		server := robotsServer(t, http.StatusInternalServerError, "User-agent: *\nDisallow: /", nil)
		c := NewChecker(server.Client())
		assert.True(t, c.CanFetch(context.Background(), server.URL+"/anything", "CustomCrawler/1.0"))
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		target := server.URL + "/page"
		server.Close()

		c := NewChecker(&http.Client{Timeout: time.Second})
		assert.True(t, c.CanFetch(context.Background(), target, "CustomCrawler/1.0"))
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		c := NewChecker(server.Client(), WithTimeout(50*time.Millisecond))
		assert.True(t, c.CanFetch(context.Background(), server.URL+"/page", "CustomCrawler/1.0"))
	})
}

func TestRobotsFetchedOncePerHost(t *testing.T) {
	var hits int32
	server := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /admin", &hits)

	c := NewChecker(server.Client())
	ctx := context.Background()

	assert.True(t, c.CanFetch(ctx, server.URL+"/a", "CustomCrawler/1.0"))
	assert.False(t, c.CanFetch(ctx, server.URL+"/admin/users", "CustomCrawler/1.0"))
	assert.True(t, c.CanFetch(ctx, server.URL+"/b", "CustomCrawler/1.0"))

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 1, c.Cached())
}

func TestFailedFetchIsCached(t *testing.T) {
	var hits int32
	server := robotsServer(t, http.StatusNotFound, "", &hits)

	c := NewChecker(server.Client())
	for range 3 {
		assert.True(t, c.CanFetch(context.Background(), server.URL+"/x", "CustomCrawler/1.0"))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestConcurrentCanFetch(t *testing.T) {
	var hits int32
	server := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private", &hits)

	c := NewChecker(server.Client())

	var wg sync.WaitGroup
	results := make([]bool, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.CanFetch(context.Background(), server.URL+"/private/x", "CustomCrawler/1.0")
		}()
	}
	wg.Wait()

	for _, allowed := range results {
		assert.False(t, allowed)
	}
	require.Equal(t, 1, c.Cached())
	// singleflight collapses concurrent first lookups; a late racer may refetch
	assert.LessOrEqual(t, atomic.LoadInt32(&hits), int32(len(results)))
}

func TestCanFetchInvalidTarget(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.CanFetch(context.Background(), "::not a url", "CustomCrawler/1.0"))
	assert.True(t, c.CanFetch(context.Background(), "/relative", "CustomCrawler/1.0"))
	assert.Equal(t, 0, c.Cached())
}
