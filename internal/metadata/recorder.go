package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl depth

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (page ID, crawl ID)
*/

// Recorder is the zerolog-backed MetadataSink every fetch/extract/
// storage component writes through. It shares the crawl pipeline's
// structured-logging convention (internal/logging uses the same
// library for the frontier/worker/crawler side of the system) rather
// than inventing a second log format for the boundary components.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder builds a Recorder writing to logger.
func NewRecorder(logger zerolog.Logger) Recorder {
	return Recorder{logger: logger}
}

func (r Recorder) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, contentType string, retryCount int, crawlDepth int) {
	r.logger.Info().
		Str("url", fetchUrl).
		Int("status", httpStatus).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("retry_count", retryCount).
		Int("depth", crawlDepth).
		Msg("fetch")
}

func (r Recorder) RecordAssetFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
	r.logger.Info().
		Str("asset_url", fetchUrl).
		Int("status", httpStatus).
		Dur("duration", duration).
		Int("retry_count", retryCount).
		Msg("asset_fetch")
}

func (r Recorder) RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, details string, attrs []Attribute) {
	event := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String()).
		Str("details", details)
	for _, a := range attrs {
		event = event.Str(string(a.Key), a.Value)
	}
	event.Msg("error")
}

func (r Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	event := r.logger.Info().
		Str("kind", string(kind)).
		Str("path", path)
	for _, a := range attrs {
		event = event.Str(string(a.Key), a.Value)
	}
	event.Msg("artifact")
}
