// Package crawler is the controller described in spec §4.11:
// construct every collaborator from a loaded Config, spawn the worker
// pool, join it, and persist a final snapshot before exit.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rsnk/politecrawl/internal/backup"
	"github.com/rsnk/politecrawl/internal/config"
	"github.com/rsnk/politecrawl/internal/extractor"
	"github.com/rsnk/politecrawl/internal/fetcher"
	"github.com/rsnk/politecrawl/internal/frontier"
	"github.com/rsnk/politecrawl/internal/index"
	"github.com/rsnk/politecrawl/internal/logging"
	"github.com/rsnk/politecrawl/internal/metadata"
	"github.com/rsnk/politecrawl/internal/robots"
	"github.com/rsnk/politecrawl/internal/sitemap"
	"github.com/rsnk/politecrawl/internal/storage"
	"github.com/rsnk/politecrawl/internal/validity"
	"github.com/rsnk/politecrawl/internal/worker"
	"github.com/rsnk/politecrawl/pkg/retry"
	"github.com/rsnk/politecrawl/pkg/timeutil"
)

// backupInterval is the wall-clock period the Backup Manager uses
// between auxiliary-state snapshots (spec §4.9); it is a deployment
// tunable, not one of the required config.ini keys in spec §6.
const backupInterval = 30 * time.Second

// Run wires together every collaborator named in SPEC_FULL §0's module
// layout, crawls to completion, and returns nil on a clean drain.
// Anything surfaced as an error here is a discovery-index I/O failure
// (spec §7: the only fatal class), so the caller's exit code should be
// non-zero.
func Run(ctx context.Context, cfg config.Config) error {
	crawlID := uuid.NewString()
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log := logging.NewRecorder(console, crawlID)
	metadataLogger := zerolog.New(console).With().Timestamp().Str("crawl_id", crawlID).Logger()
	metadataSink := metadata.NewRecorder(metadataLogger)

	start := time.Now()

	idx, err := index.Open(cfg.SaveFile(), cfg.Restart())
	if err != nil {
		return fmt.Errorf("crawler: opening discovery index: %w", err)
	}
	defer idx.Close()

	robot := robots.NewCachedRobot()
	robot.Init(cfg.UserAgent())

	ingestor := sitemap.NewIngestor(&http.Client{Timeout: cfg.Timeout()})
	filter := validity.NewFilter(cfg.AllowedDomainPatterns())

	frontierCfg := frontier.Config{
		PolitenessDelay: cfg.PolitenessDelay(),
		Jitter:          cfg.Jitter(),
		Backoff:         timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration()),
		RandomSeed:      cfg.RandomSeed(),
	}
	f := frontier.New(frontierCfg, idx, &robot, ingestor, filter, log)

	snapshotPath := cfg.SaveFile() + ".snapshot.json"
	backupMgr := backup.NewManager(snapshotPath, backupInterval, log)

	if err := seedFrontier(ctx, cfg, f, idx, filter, snapshotPath, log); err != nil {
		return err
	}

	htmlFetcher := fetcher.NewHtmlFetcher(metadataSink)
	domExtractor := extractor.NewDomExtractor(metadataSink)

	var sink storage.Sink
	if cfg.OutputDir() != "" {
		localSink := storage.NewLocalSink(metadataSink)
		sink = &localSink
	}

	retryParam := retry.NewRetryParam(
		cfg.BackoffInitialDuration(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(cfg.BackoffInitialDuration(), cfg.BackoffMultiplier(), cfg.BackoffMaxDuration()),
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.ThreadsCount(); i++ {
		w := worker.New(i, f, backupMgr, htmlFetcher, domExtractor, sink, cfg.OutputDir(), cfg.UserAgent(), retryParam, log)
		g.Go(func() error {
			w.Run(gctx)
			return nil
		})
	}
	_ = g.Wait()

	backupMgr.Force(f)

	totalFetched, lenErr := idx.Len(ctx)
	if lenErr != nil {
		log.RecordError("crawler", "final-len", logging.CauseStorageFailure, lenErr, nil)
	}
	log.RecordCrawlSummary(totalFetched, 0, time.Since(start), f.TotalWordCount(), len(f.Subdomains()))

	return nil
}

// seedFrontier populates f either from cfg's seed URLs (a fresh run)
// or from the discovery index's still-open records plus any
// previously persisted auxiliary snapshot (a resumed run), per spec
// §4.7 and §4.9.
func seedFrontier(ctx context.Context, cfg config.Config, f *frontier.Frontier, idx *index.Index, filter validity.Filter, snapshotPath string, log logging.Recorder) error {
	if cfg.Restart() {
		for _, seed := range cfg.SeedURLs() {
			if err := f.Add(ctx, seed.String(), 0); err != nil {
				return fmt.Errorf("crawler: seeding frontier: %w", err)
			}
		}
		return nil
	}

	if snap, found, err := backup.Load(snapshotPath); err != nil {
		log.RecordError("crawler", "backup-load", logging.CauseStorageFailure, err, nil)
	} else if found {
		f.Restore(snap)
	}

	records, err := idx.IterOpen(ctx)
	if err != nil {
		return fmt.Errorf("crawler: reading open records: %w", err)
	}
	for _, r := range records {
		if !filter.IsValid(r.URL) {
			continue
		}
		f.Requeue(ctx, r.URL, r.Depth)
	}
	return nil
}
