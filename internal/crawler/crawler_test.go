package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/rsnk/politecrawl/internal/config"
	"github.com/rsnk/politecrawl/internal/crawler"
	"github.com/rsnk/politecrawl/internal/index"
	"github.com/stretchr/testify/require"
)

const richParagraph = `This documentation page explains in careful detail how the
crawler walks a site, discovers new links, respects robots directives,
and avoids getting stuck revisiting pages that look identical to ones
it has already seen, which keeps the whole traversal moving forward
steadily toward pages nobody has indexed yet.`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("User-agent: *\nAllow: /"))
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><main><p>%s</p><a href="/b">next</a></main></body></html>`, richParagraph)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><main><p>%s</p></main></body></html>`, richParagraph)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestConfig(t *testing.T, server *httptest.Server, seedPath string) config.Config {
	t.Helper()
	seed, err := url.Parse(server.URL + seedPath)
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "crawl.db")
	pattern := "^https?://" + seed.Hostname() + ".*$"

	cfg, err := config.WithDefault([]url.URL{*seed}).
		WithAllowedDomainPatterns([]string{pattern}).
		WithThreadsCount(2).
		WithPolitenessDelay(time.Millisecond).
		WithJitter(0).
		WithSaveFile(dbPath).
		WithRestart(true).
		WithTimeout(5 * time.Second).
		Build()
	require.NoError(t, err)
	return cfg
}

func TestRun_CrawlsToCompletionAndPersistsDiscoveryIndex(t *testing.T) {
	server := newTestServer(t)
	cfg := newTestConfig(t, server, "/a")

	ctx := context.Background()
	require.NoError(t, crawler.Run(ctx, cfg))

	idx, err := index.Open(cfg.SaveFile(), false)
	require.NoError(t, err)
	defer idx.Close()

	total, err := idx.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total, "both /a and its outlink /b should be discovered")

	open, err := idx.IterOpen(ctx)
	require.NoError(t, err)
	require.Empty(t, open, "a clean crawl leaves nothing open in the discovery index")
}

func TestRun_RestartWipesPriorIndex(t *testing.T) {
	server := newTestServer(t)
	cfg := newTestConfig(t, server, "/a")

	ctx := context.Background()
	require.NoError(t, crawler.Run(ctx, cfg))

	restarted := cfg.WithRestart(true)
	rebuilt, err := restarted.Build()
	require.NoError(t, err)
	require.NoError(t, crawler.Run(ctx, rebuilt))

	idx, err := index.Open(rebuilt.SaveFile(), false)
	require.NoError(t, err)
	defer idx.Close()

	total, err := idx.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total, "restarting re-discovers the same pages from a clean slate")
}
