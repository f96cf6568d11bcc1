// Package robots fetches, parses, caches, and enforces robots.txt
// policy. Spec §4.4 fixes the decision algorithm (see decision.go);
// this file is the public surface the frontier calls per host.
package robots

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/rsnk/politecrawl/internal/robots/cache"
)

// CachedRobot fetches robots.txt at most once per host for the life
// of a process (invariant I4) and answers allow/deny decisions from
// the cached policy.
type CachedRobot struct {
	mu             *sync.RWMutex
	policies       map[string]ruleSet
	cachedSitemaps map[string][]string
	fetcher        *RobotsFetcher
	userAgent      string
}

// NewCachedRobot constructs an uninitialized CachedRobot; call Init or
// InitWithCache before Decide.
func NewCachedRobot() CachedRobot {
	return CachedRobot{
		mu:             &sync.RWMutex{},
		policies:       make(map[string]ruleSet),
		cachedSitemaps: make(map[string][]string),
	}
}

// Init sets the user agent used both for the robots.txt HTTP request
// and for user-agent group matching, with an in-memory cache.
func (r *CachedRobot) Init(userAgent string) {
	r.InitWithCache(userAgent, cache.NewMemoryCache())
}

// InitWithCache is Init with an explicit robots.txt response cache.
func (r *CachedRobot) InitWithCache(userAgent string, c cache.Cache) {
	r.userAgent = userAgent
	r.fetcher = NewRobotsFetcher(userAgent, c)
}

// Decide fetches (or reuses the cached) policy for u's host and
// reports whether u's path may be crawled.
func (r *CachedRobot) Decide(u url.URL) (Decision, *RobotsError) {
	rs, err := r.policyFor(context.Background(), u)
	if err != nil {
		return Decision{}, err
	}

	allowed, reason := canFetch(rs, u.Path)
	return Decision{
		Url:        u,
		Allowed:    allowed,
		Reason:     reason,
		CrawlDelay: rs.CrawlDelay(),
	}, nil
}

// Sitemaps returns the sitemap URLs advertised by u's host's
// robots.txt, fetching and caching the policy if not already known.
func (r *CachedRobot) Sitemaps(u url.URL) ([]string, *RobotsError) {
	host := u.Hostname()

	r.mu.RLock()
	_, known := r.policies[host]
	r.mu.RUnlock()
	if !known {
		if _, err := r.policyFor(context.Background(), u); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cachedSitemaps[host], nil
}

func (r *CachedRobot) policyFor(ctx context.Context, u url.URL) (ruleSet, *RobotsError) {
	host := u.Hostname()

	r.mu.RLock()
	rs, known := r.policies[host]
	r.mu.RUnlock()
	if known {
		return rs, nil
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	result, fetchErr := r.fetcher.Fetch(ctx, scheme, host)
	if fetchErr != nil {
		// Network/parse failure also yields the empty policy per spec
		// §4.4; the fetcher already returns one in-band, but guard
		// here too in case a future fetcher implementation doesn't.
		result = r.fetcher.emptyResult(host, scheme+"://"+host+"/robots.txt", 0, "")
	}

	fetchedAt := result.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	rs = MapResponseToRuleSet(result.Response, r.userAgent, fetchedAt)

	r.mu.Lock()
	r.policies[host] = rs
	r.cachedSitemaps[host] = result.Response.Sitemaps
	r.mu.Unlock()

	return rs, nil
}
