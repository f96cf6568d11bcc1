// Package frontier is the exclusive owner of all shared mutable crawl
// state: host queues, the politeness clock, the robots/sitemap cache,
// and the content-similarity index. Three independent locks guard
// disjoint partitions of that state -- scheduler, robots, similarity
// -- and may only ever be acquired in that order.
package frontier

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/rsnk/politecrawl/internal/index"
	"github.com/rsnk/politecrawl/internal/logging"
	"github.com/rsnk/politecrawl/internal/robots"
	"github.com/rsnk/politecrawl/internal/simhash"
	"github.com/rsnk/politecrawl/internal/sitemap"
	"github.com/rsnk/politecrawl/internal/urlx"
	"github.com/rsnk/politecrawl/internal/validity"
	"github.com/rsnk/politecrawl/pkg/timeutil"
)

// Config holds the politeness-timing parameters the scheduler needs.
// PolitenessDelay comes straight from config.ini; Jitter and Backoff
// are ambient tuning the config format doesn't expose.
type Config struct {
	PolitenessDelay time.Duration
	Jitter          time.Duration
	Backoff         timeutil.BackoffParam
	RandomSeed      int64
}

// Frontier is the per-host FIFO + politeness scheduler described in
// spec §4.8. It is safe for concurrent use by any number of workers.
type Frontier struct {
	cfg     Config
	log     logging.Recorder
	sleeper timeutil.Sleeper

	// scheduler lock: host queues, last-request-time, backoff counts,
	// subdomains, bad-URL sets. Acquired before robots, before
	// similarity -- never the reverse.
	schedMu         sync.Mutex
	hostQueues      map[string]*FIFOQueue[CrawlToken]
	hostOrder       []string
	lastRequestTime map[string]time.Time
	backoffCount    map[string]int
	hostCrawlDelay  map[string]*time.Duration
	subdomains      map[string]Set[string]
	badURLs         map[string][]string
	rng             *rand.Rand

	hostInitMu sync.Mutex
	hostInit   map[string]*sync.Once

	idx   *index.Index
	bloom *bloom.BloomFilter

	robot           *robots.CachedRobot
	sitemapIngestor *sitemap.Ingestor
	validity        validity.Filter

	// similarity lock: content-fingerprint index only.
	simMu        sync.Mutex
	fingerprints map[simhash.Fingerprint]string

	// totalWords is a crawl-wide diagnostic counter (original_source's
	// frontier.py: add_words), not load-bearing for any invariant.
	totalWords atomic.Int64
}

// New builds a Frontier. idx must already be open; robot must already
// be Init'd with the crawler's user agent. filter gates every URL
// offered to Add against spec §4.2's allowed-domain/extension rules.
func New(cfg Config, idx *index.Index, robot *robots.CachedRobot, ingestor *sitemap.Ingestor, filter validity.Filter, log logging.Recorder) *Frontier {
	return &Frontier{
		cfg:             cfg,
		log:             log,
		sleeper:         timeutil.NewRealSleeper(),
		hostQueues:      make(map[string]*FIFOQueue[CrawlToken]),
		lastRequestTime: make(map[string]time.Time),
		backoffCount:    make(map[string]int),
		hostCrawlDelay:  make(map[string]*time.Duration),
		subdomains:      make(map[string]Set[string]),
		badURLs:         make(map[string][]string),
		rng:             rand.New(rand.NewSource(cfg.RandomSeed)),
		hostInit:        make(map[string]*sync.Once),
		idx:             idx,
		bloom:           bloom.NewWithEstimates(1_000_000, 0.001),
		robot:           robot,
		sitemapIngestor: ingestor,
		validity:        filter,
		fingerprints:    make(map[simhash.Fingerprint]string),
	}
}

// Add canonicalizes rawURL, checks the discovery index for a
// duplicate, lazily populates the host's robots policy and sitemaps
// on first contact, enforces the robots decision, and -- if
// admitted -- stores the URL in the index and appends it to its
// host's FIFO. A non-nil error here is always a discovery-index I/O
// failure and is fatal per spec §7.
func (f *Frontier) Add(ctx context.Context, rawURL string, depth int) error {
	if !f.validity.IsValid(rawURL) {
		return nil
	}

	canonical, err := urlx.Canonicalize(rawURL)
	if err != nil {
		return nil // InvalidURL: not fatal, just dropped
	}
	hash := urlx.Hash(canonical)
	host := canonical.Hostname()
	if host == "" {
		return nil
	}

	if f.bloom.Test([]byte(hash)) {
		exists, err := f.idx.Has(ctx, hash)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}

	// Scheduler lock is never held across network I/O: robots/sitemap
	// population for a new host happens here, outside schedMu, guarded
	// instead by a per-host sync.Once so concurrent first-contacts on
	// the same host block on one fetch rather than racing.
	f.ensureHostInitialized(ctx, canonical)

	decision, robotsErr := f.robot.Decide(canonical)
	if robotsErr != nil {
		f.log.RecordError("frontier", "add", logging.CausePolicyDisallow, robotsErr, map[string]string{"host": host})
		return nil
	}

	f.schedMu.Lock()
	defer f.schedMu.Unlock()

	f.recordSubdomainLocked(host, canonical.String())
	if decision.CrawlDelay != nil {
		f.hostCrawlDelay[host] = decision.CrawlDelay
	}

	if !decision.Allowed {
		return nil
	}

	exists, err := f.idx.Has(ctx, hash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := f.idx.Put(ctx, hash, canonical.String(), depth); err != nil {
		return err
	}
	f.bloom.Add([]byte(hash))

	q, ok := f.hostQueues[host]
	if !ok {
		q = NewFIFOQueue[CrawlToken]()
		f.hostQueues[host] = q
		f.hostOrder = append(f.hostOrder, host)
	}
	q.Enqueue(newCrawlToken(canonical, depth))
	return nil
}

// Requeue re-admits a record already present in the discovery index
// (a non-restart resume, per spec §4.7) straight onto its host's
// FIFO, skipping the index Put/dedup Add performs since the record is
// already durably stored there. Robots/sitemap population for the
// host still runs, since spec §4.7 only says resumed records are
// filtered through the validity filter before this call, not that
// per-host policy lookup is skipped.
func (f *Frontier) Requeue(ctx context.Context, rawURL string, depth int) {
	canonical, err := urlx.Canonicalize(rawURL)
	if err != nil {
		return
	}
	host := canonical.Hostname()
	if host == "" {
		return
	}

	f.ensureHostInitialized(ctx, canonical)

	f.schedMu.Lock()
	defer f.schedMu.Unlock()

	f.recordSubdomainLocked(host, canonical.String())
	q, ok := f.hostQueues[host]
	if !ok {
		q = NewFIFOQueue[CrawlToken]()
		f.hostQueues[host] = q
		f.hostOrder = append(f.hostOrder, host)
	}
	q.Enqueue(newCrawlToken(canonical, depth))
	f.bloom.Add([]byte(urlx.Hash(canonical)))
}

func (f *Frontier) ensureHostInitialized(ctx context.Context, u url.URL) {
	host := u.Hostname()

	f.hostInitMu.Lock()
	once, ok := f.hostInit[host]
	if !ok {
		once = &sync.Once{}
		f.hostInit[host] = once
	}
	f.hostInitMu.Unlock()

	once.Do(func() {
		sitemaps, err := f.robot.Sitemaps(u)
		if err != nil || len(sitemaps) == 0 {
			return
		}
		for _, sm := range sitemaps {
			for _, discovered := range f.sitemapIngestor.Discover(ctx, sm) {
				if err := f.Add(ctx, discovered, 1); err != nil {
					f.log.RecordFatal("frontier", "sitemap-add", err)
					return
				}
			}
		}
	})
}

// Next selects the next URL ready to fetch, honoring per-host
// politeness, or reports ⊥ (ok=false) once every host queue is empty.
func (f *Frontier) Next(ctx context.Context) (CrawlToken, bool) {
	for {
		tok, ok, drained := f.pollOnce()
		if ok {
			return tok, true
		}
		if drained {
			return CrawlToken{}, false
		}
		select {
		case <-ctx.Done():
			return CrawlToken{}, false
		default:
		}
		f.sleeper.Sleep(f.cfg.PolitenessDelay)
	}
}

func (f *Frontier) pollOnce() (tok CrawlToken, ok bool, drained bool) {
	f.schedMu.Lock()
	defer f.schedMu.Unlock()

	hosts := append([]string{}, f.hostOrder...)
	now := time.Now()

	for _, h := range hosts {
		q, exists := f.hostQueues[h]
		if !exists || q.Size() == 0 {
			f.removeHostLocked(h)
			continue
		}

		delay := f.politenessDelayLocked(h)
		last, seen := f.lastRequestTime[h]
		if !seen || now.Sub(last) >= delay {
			next, _ := q.Dequeue()
			f.lastRequestTime[h] = now
			if q.Size() == 0 {
				f.removeHostLocked(h)
			}
			return next, true, false
		}
	}

	return CrawlToken{}, false, len(f.hostQueues) == 0
}

func (f *Frontier) removeHostLocked(host string) {
	delete(f.hostQueues, host)
	for i, h := range f.hostOrder {
		if h == host {
			f.hostOrder = append(f.hostOrder[:i], f.hostOrder[i+1:]...)
			break
		}
	}
}

// politenessDelayLocked computes max(base, crawlDelay, backoffDelay) + jitter
// for host, per spec §4.8. Must be called with schedMu held.
func (f *Frontier) politenessDelayLocked(host string) time.Duration {
	delays := []time.Duration{f.cfg.PolitenessDelay}

	if cd := f.hostCrawlDelay[host]; cd != nil {
		delays = append(delays, *cd)
	}

	if count := f.backoffCount[host]; count > 0 {
		delays = append(delays, timeutil.ExponentialBackoffDelay(count, 0, *f.rng, f.cfg.Backoff))
	}

	base := timeutil.MaxDuration(delays)
	return base + timeutil.ComputeJitter(f.cfg.Jitter, *f.rng)
}

// MarkComplete sets completed=true for url's hash. An unknown hash is
// logged but not treated as an error, per spec §4.8.
func (f *Frontier) MarkComplete(ctx context.Context, rawURL string) error {
	canonical, err := urlx.Canonicalize(rawURL)
	if err != nil {
		return nil
	}
	hash := urlx.Hash(canonical)

	has, err := f.idx.Has(ctx, hash)
	if err != nil {
		return err
	}
	if !has {
		f.log.RecordError("frontier", "mark_complete", logging.CauseInvariantViolation, nil, map[string]string{"url": rawURL})
		return nil
	}
	return f.idx.SetCompleted(ctx, hash)
}

// RecordBad records rawURL under host's bad-URL set and, for
// BadURLError, bumps the host's backoff counter (BadURLLowData does
// not back the host off, since a sparse page is not a server distress
// signal).
func (f *Frontier) RecordBad(rawURL string, kind BadURLKind) {
	canonical, err := urlx.Canonicalize(rawURL)
	if err != nil {
		return
	}
	host := canonical.Hostname()

	f.schedMu.Lock()
	defer f.schedMu.Unlock()
	f.badURLs[host] = append(f.badURLs[host], canonical.String())
	if kind == BadURLError {
		f.backoffCount[host]++
	}
}

// IsSimilarToBad reports whether rawURL's Jaccard similarity to at
// least BadURLMinNeighbors members of its host's bad-URL set meets
// BadURLSimilarityThreshold.
func (f *Frontier) IsSimilarToBad(rawURL string) bool {
	canonical, err := urlx.Canonicalize(rawURL)
	if err != nil {
		return false
	}
	host := canonical.Hostname()
	tokens := jaccardTokens(canonical.String())

	f.schedMu.Lock()
	candidates := append([]string{}, f.badURLs[host]...)
	f.schedMu.Unlock()

	matches := 0
	for _, bad := range candidates {
		if jaccardSimilarity(tokens, jaccardTokens(bad)) >= BadURLSimilarityThreshold {
			matches++
			if matches >= BadURLMinNeighbors {
				return true
			}
		}
	}
	return false
}

// IsSimilarKnown reports whether fp is a near-duplicate of a
// previously recorded content fingerprint.
func (f *Frontier) IsSimilarKnown(fp simhash.Fingerprint) bool {
	f.simMu.Lock()
	defer f.simMu.Unlock()
	for known := range f.fingerprints {
		if simhash.IsNearDuplicate(fp, known) {
			return true
		}
	}
	return false
}

// RecordFingerprint stores url as fp's representative, first writer
// wins (invariant I5): a second call for an already-known fp is a
// no-op.
func (f *Frontier) RecordFingerprint(fp simhash.Fingerprint, rawURL string) {
	f.simMu.Lock()
	defer f.simMu.Unlock()
	if _, exists := f.fingerprints[fp]; exists {
		return
	}
	f.fingerprints[fp] = rawURL
}

// Subdomains returns a point-in-time page count per subdomain
// (original_source's frontier.py: add_subdomain), best-effort and
// non-load-bearing per spec §9.
func (f *Frontier) Subdomains() map[string]int {
	f.schedMu.Lock()
	defer f.schedMu.Unlock()
	out := make(map[string]int, len(f.subdomains))
	for host, set := range f.subdomains {
		out[host] = set.Size()
	}
	return out
}

// AddWords accumulates n onto the crawl-wide word count diagnostic.
func (f *Frontier) AddWords(n int) {
	f.totalWords.Add(int64(n))
}

// TotalWordCount returns the crawl-wide word count accumulated so far.
func (f *Frontier) TotalWordCount() int {
	return int(f.totalWords.Load())
}

func (f *Frontier) recordSubdomainLocked(host, rawURL string) {
	set, ok := f.subdomains[host]
	if !ok {
		set = NewSet[string]()
		f.subdomains[host] = set
	}
	set.Add(rawURL)
}

// Snapshot returns a point-in-time, best-effort copy of the auxiliary
// state the backup manager persists: subdomains, last-request-time,
// bad-URL sets, and the similarity index. It is not transactional with
// the discovery index.
func (f *Frontier) Snapshot() AuxiliarySnapshot {
	f.schedMu.Lock()
	subdomains := make(map[string][]string, len(f.subdomains))
	for host, set := range f.subdomains {
		urls := make([]string, 0, set.Size())
		for u := range set {
			urls = append(urls, u)
		}
		subdomains[host] = urls
	}
	lastRequest := make(map[string]time.Time, len(f.lastRequestTime))
	for h, t := range f.lastRequestTime {
		lastRequest[h] = t
	}
	badURLs := make(map[string][]string, len(f.badURLs))
	for h, urls := range f.badURLs {
		badURLs[h] = append([]string{}, urls...)
	}
	f.schedMu.Unlock()

	f.simMu.Lock()
	fingerprints := make(map[simhash.Fingerprint]string, len(f.fingerprints))
	for fp, u := range f.fingerprints {
		fingerprints[fp] = u
	}
	f.simMu.Unlock()

	return AuxiliarySnapshot{
		Subdomains:      subdomains,
		LastRequestTime: lastRequest,
		BadURLs:         badURLs,
		Fingerprints:    fingerprints,
	}
}

// Restore seeds the auxiliary maps from a previously-loaded snapshot.
// It must be called before workers start, since it does not
// synchronize against concurrent Add/RecordBad/RecordFingerprint.
func (f *Frontier) Restore(snap AuxiliarySnapshot) {
	for host, urls := range snap.Subdomains {
		set := NewSet[string]()
		for _, u := range urls {
			set.Add(u)
		}
		f.subdomains[host] = set
	}
	for h, t := range snap.LastRequestTime {
		f.lastRequestTime[h] = t
	}
	for h, urls := range snap.BadURLs {
		f.badURLs[h] = append([]string{}, urls...)
	}
	for fp, u := range snap.Fingerprints {
		f.fingerprints[fp] = u
	}
}

// AuxiliarySnapshot is the serializable shape of the Frontier's
// best-effort auxiliary state, persisted by internal/backup.
type AuxiliarySnapshot struct {
	Subdomains      map[string][]string          `json:"subdomains"`
	LastRequestTime map[string]time.Time         `json:"last_request_time"`
	BadURLs         map[string][]string          `json:"bad_urls"`
	Fingerprints    map[simhash.Fingerprint]string `json:"fingerprints"`
}
