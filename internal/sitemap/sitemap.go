// Package sitemap ingests sitemap.xml / sitemap-index documents and
// returns the discovered page URLs. A fetch failure or parse error
// yields an empty list rather than an error, mirroring the frontier's
// tolerance for any single host misbehaving.
package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
)

// Ingestor fetches and recursively expands sitemap-index documents,
// visiting each sitemap URL at most once per process so pathological
// sitemap graphs (a index pointing back at itself) still terminate.
type Ingestor struct {
	client  *http.Client
	mu      sync.Mutex
	visited map[string]bool
}

// NewIngestor builds an Ingestor against client, or against a new
// http.Client with a 30-second timeout when client is nil.
func NewIngestor(client *http.Client) *Ingestor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Ingestor{client: client, visited: make(map[string]bool)}
}

// Discover fetches sitemapURL and returns every page URL it (or any
// sitemap it indexes) names. Sitemaps are visited at most once per
// process; a second reference to an already-visited sitemap URL
// contributes no further URLs.
func (in *Ingestor) Discover(ctx context.Context, sitemapURL string) []string {
	if in.alreadyVisited(sitemapURL) {
		return nil
	}

	body, err := in.fetch(ctx, sitemapURL)
	if err != nil {
		return nil
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	if root.Tag == "sitemapindex" {
		return in.discoverIndex(ctx, root)
	}
	return parseURLSet(root)
}

func (in *Ingestor) alreadyVisited(sitemapURL string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.visited[sitemapURL] {
		return true
	}
	in.visited[sitemapURL] = true
	return false
}

func (in *Ingestor) discoverIndex(ctx context.Context, root *etree.Element) []string {
	var urls []string
	for _, child := range root.SelectElements("sitemap") {
		loc := child.SelectElement("loc")
		if loc == nil {
			continue
		}
		childURL := strings.TrimSpace(loc.Text())
		if childURL == "" {
			continue
		}
		urls = append(urls, in.Discover(ctx, childURL)...)
	}
	return urls
}

func parseURLSet(root *etree.Element) []string {
	var urls []string
	for _, urlEl := range root.SelectElements("url") {
		loc := urlEl.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func (in *Ingestor) fetch(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sitemap: building request: %w", err)
	}

	resp, err := in.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("sitemap: unexpected status %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}
