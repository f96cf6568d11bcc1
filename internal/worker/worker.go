// Package worker runs the fetch -> extract -> filter -> enqueue loop
// described in spec §4.10. Each Worker is a single goroutine; the
// crawler controller spawns config.ThreadsCount() of them against a
// shared Frontier.
package worker

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rsnk/politecrawl/internal/backup"
	"github.com/rsnk/politecrawl/internal/extractor"
	"github.com/rsnk/politecrawl/internal/fetcher"
	"github.com/rsnk/politecrawl/internal/frontier"
	"github.com/rsnk/politecrawl/internal/logging"
	"github.com/rsnk/politecrawl/internal/simhash"
	"github.com/rsnk/politecrawl/internal/storage"
	"github.com/rsnk/politecrawl/internal/trap"
	"github.com/rsnk/politecrawl/internal/urlx"
	"github.com/rsnk/politecrawl/pkg/hashutil"
	"github.com/rsnk/politecrawl/pkg/retry"
)

// Constants fixed by spec §4.10.
const (
	maxDepth = 28
	minWords = 30
)

// Worker holds one goroutine's transient, local references -- a URL
// record and a response body -- and the collaborators needed to turn
// one into the other. The Frontier is the only shared state it
// touches.
type Worker struct {
	id         int
	frontier   *frontier.Frontier
	backupMgr  *backup.Manager
	fetcher    fetcher.HtmlFetcher
	extractor  extractor.DomExtractor
	storage    storage.Sink
	outputDir  string
	userAgent  string
	retryParam retry.RetryParam
	log        logging.Recorder
}

// New builds a Worker. storage may be nil and outputDir may be empty,
// in which case extracted text is never persisted (spec §1's
// content-archiving Non-goal; storage is an adapted, optional extra).
func New(
	id int,
	f *frontier.Frontier,
	backupMgr *backup.Manager,
	htmlFetcher fetcher.HtmlFetcher,
	domExtractor extractor.DomExtractor,
	sink storage.Sink,
	outputDir string,
	userAgent string,
	retryParam retry.RetryParam,
	log logging.Recorder,
) Worker {
	return Worker{
		id:         id,
		frontier:   f,
		backupMgr:  backupMgr,
		fetcher:    htmlFetcher,
		extractor:  domExtractor,
		storage:    sink,
		outputDir:  outputDir,
		userAgent:  userAgent,
		retryParam: retryParam,
		log:        log.With("worker", strconv.Itoa(id)),
	}
}

// Run drains the frontier until it reports ⊥ (drained) or ctx is
// cancelled. It never returns an error: every failure mode in spec
// §4.10's loop is handled locally by marking the URL complete and
// continuing, except discovery-index I/O failures, which are fatal
// and logged via RecordFatal before the worker exits early.
func (w Worker) Run(ctx context.Context) {
	for {
		tok, ok := w.frontier.Next(ctx)
		if w.backupMgr != nil {
			w.backupMgr.Tick(w.frontier)
		}
		if !ok {
			return
		}
		if !w.process(ctx, tok) {
			return
		}
	}
}

// process runs one iteration of spec §4.10's loop body. It returns
// false only when a discovery-index I/O failure occurred and the
// worker must stop (the error itself is already logged as fatal).
func (w Worker) process(ctx context.Context, tok frontier.CrawlToken) bool {
	u := tok.URL()
	depth := tok.Depth()
	raw := u.String()

	if depth > maxDepth {
		return w.markComplete(ctx, raw)
	}

	if w.frontier.IsSimilarToBad(raw) {
		w.frontier.RecordBad(raw, frontier.BadURLLowData)
		return w.markComplete(ctx, raw)
	}

	if trap.IsTrap(raw) {
		return w.markComplete(ctx, raw)
	}

	fetchParam := fetcher.NewFetchParam(u, w.userAgent)
	result, fetchErr := w.fetcher.Fetch(ctx, depth, fetchParam, w.retryParam)
	if fetchErr != nil {
		return w.markComplete(ctx, raw)
	}

	status := result.Code()

	if status >= 300 && status < 400 {
		if loc := result.Headers()["Location"]; loc != "" {
			if resolved, err := u.Parse(loc); err == nil {
				if err := w.frontier.Add(ctx, resolved.String(), depth); err != nil {
					w.log.RecordFatal("worker", "add-redirect", err)
					return false
				}
			}
		}
		return w.markComplete(ctx, raw)
	}

	if status != 200 {
		w.frontier.RecordBad(raw, frontier.BadURLError)
		return w.markComplete(ctx, raw)
	}

	if len(result.Body()) == 0 {
		return w.markComplete(ctx, raw)
	}

	extraction, extractErr := w.extractor.Extract(result.URL(), result.Body())
	if extractErr != nil {
		return w.markComplete(ctx, raw)
	}

	words := extraction.WordCount()
	if words < minWords {
		w.frontier.RecordBad(raw, frontier.BadURLLowData)
		return w.markComplete(ctx, raw)
	}

	text := extraction.VisibleText()
	fp := simhash.FromText(text)
	if w.frontier.IsSimilarKnown(fp) {
		return w.markComplete(ctx, raw)
	}
	w.frontier.RecordFingerprint(fp, raw)
	w.frontier.AddWords(words)

	w.persist(result.URL(), raw, text)

	for _, link := range extraction.Outlinks(result.URL()) {
		if err := w.frontier.Add(ctx, link, depth+1); err != nil {
			w.log.RecordFatal("worker", "add-outlink", err)
			return false
		}
	}

	return w.markComplete(ctx, raw)
}

// persist writes the page's visible text through the storage sink
// when one is configured. A write failure is logged and otherwise
// ignored -- storage is not part of the core per spec §1.
func (w Worker) persist(sourceURL url.URL, raw, text string) {
	if w.storage == nil || w.outputDir == "" {
		return
	}
	urlHash := urlx.Hash(urlx.CanonicalizeURL(sourceURL))
	if _, err := w.storage.Write(w.outputDir, raw, urlHash, []byte(text), hashutil.HashAlgoSHA256); err != nil {
		w.log.RecordError("worker", "storage-write", logging.CauseStorageFailure, err, map[string]string{"url": raw})
	}
}

// markComplete marks raw complete in the discovery index, returning
// false (stop the worker) only on an index I/O failure.
func (w Worker) markComplete(ctx context.Context, raw string) bool {
	if err := w.frontier.MarkComplete(ctx, raw); err != nil {
		w.log.RecordFatal("worker", "mark_complete", err)
		return false
	}
	return true
}
