// Package logging provides the structured event sink every other
// package writes observability through. It completes the sketch the
// teacher left behind as internal/metadata.Recorder: a struct and a
// set of doc comments describing fetch events, error records, and
// final crawl stats, with no working implementation underneath.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ErrorCause buckets an error for observability only; it must never
// drive control flow (severity/retry decisions live in pkg/failure).
type ErrorCause string

const (
	CauseNetworkFailure     ErrorCause = "network_failure"
	CauseHTTPStatus         ErrorCause = "http_status"
	CauseParseError         ErrorCause = "parse_error"
	CausePolicyDisallow     ErrorCause = "policy_disallow"
	CauseStorageFailure     ErrorCause = "storage_failure"
	CauseContentInvalid     ErrorCause = "content_invalid"
	CauseInvariantViolation ErrorCause = "invariant_violation"
	CauseUnknown            ErrorCause = "unknown"
)

// Recorder wraps a zerolog.Logger with the small vocabulary the crawl
// pipeline needs: fetch events, host-scoped errors, and the final
// summary line the controller emits at shutdown.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder builds a Recorder writing to w (os.Stderr in production,
// a buffer in tests) at the given crawl ID, attached to every line.
func NewRecorder(w io.Writer, crawlID string) Recorder {
	logger := zerolog.New(w).With().Timestamp().Str("crawl_id", crawlID).Logger()
	return Recorder{logger: logger}
}

// NewDefaultRecorder writes human-readable console output to stderr,
// the convention the CLI uses outside of tests.
func NewDefaultRecorder(crawlID string) Recorder {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return NewRecorder(console, crawlID)
}

// RecordFetch logs a completed fetch attempt, successful or not.
func (r Recorder) RecordFetch(url string, status int, duration time.Duration, host string, depth int) {
	r.logger.Info().
		Str("url", url).
		Str("host", host).
		Int("status", status).
		Int("depth", depth).
		Dur("duration", duration).
		Msg("fetch")
}

// RecordError logs a non-fatal error observed in some package/action,
// tagged with an ErrorCause for filtering.
func (r Recorder) RecordError(pkg, action string, cause ErrorCause, err error, fields map[string]string) {
	event := r.logger.Warn().
		Str("package", pkg).
		Str("action", action).
		Str("cause", string(cause))
	for k, v := range fields {
		event = event.Str(k, v)
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("error")
}

// RecordFatal logs an unrecoverable condition (discovery-index I/O
// failure) before the controller aborts the process.
func (r Recorder) RecordFatal(pkg, action string, err error) {
	r.logger.Error().Str("package", pkg).Str("action", action).Err(err).Msg("fatal")
}

// RecordCrawlSummary logs the final accounting the controller produces
// once every worker has exited and the frontier has drained.
func (r Recorder) RecordCrawlSummary(totalFetched, totalErrors int, duration time.Duration, totalWords int, hosts int) {
	r.logger.Info().
		Int("total_fetched", totalFetched).
		Int("total_errors", totalErrors).
		Int("total_words", totalWords).
		Int("hosts_seen", hosts).
		Dur("duration", duration).
		Msg("crawl complete")
}

// With returns a Recorder with an additional field attached to every
// subsequent line, useful for scoping a Recorder to one worker.
func (r Recorder) With(key, value string) Recorder {
	return Recorder{logger: r.logger.With().Str(key, value).Logger()}
}
