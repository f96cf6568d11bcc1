// Package metadata gives the fetch/extract/storage boundary a single,
// closed vocabulary for observability events. The teacher's own
// internal/metadata was a doc-comment sketch (a bare Recorder struct,
// no methods, no MetadataSink interface defined anywhere -- every
// caller across the teacher repo, including its own tests, already
// referenced an interface that package never shipped). This file and
// recorder.go complete that sketch.
package metadata

import "time"

// ErrorCause buckets an error for observability only; it must never
// drive control flow (severity/retry decisions live in pkg/failure).
//
// Rules (carried from the teacher's doc comment verbatim):
//   - ErrorCause is for observability only.
//   - It must never be used to derive retry, continuation, or abort decisions.
//   - ErrorCause values have stable, package-agnostic semantics.
//   - If a failure does not clearly map to a category, use CauseUnknown.
type ErrorCause int

const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

// AttributeKey names one field of an error or artifact event.
type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrDepth      AttributeKey = "depth"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrAssetURL   AttributeKey = "asset_url"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)

// Attribute is one key-value pair attached to an error or artifact
// event. Values are always primitives rendered as strings -- per the
// teacher's own doc comment, metadata carries "primitive values... not
// objects with behavior".
type Attribute struct {
	Key   AttributeKey
	Value string
}

// NewAttr builds an Attribute.
func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{Key: key, Value: val}
}

// ArtifactKind classifies a persisted crawl artifact.
type ArtifactKind string

const ArtifactMarkdown ArtifactKind = "markdown"
const ArtifactText ArtifactKind = "text"

// MetadataSink is the observability boundary every fetch/extract/
// storage/robots component writes through. Implementations must treat
// every method as fire-and-forget: a sink failure is never allowed to
// affect crawl control flow.
type MetadataSink interface {
	// RecordFetch logs one completed page fetch attempt, successful or not.
	RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, contentType string, retryCount int, crawlDepth int)

	// RecordAssetFetch logs one completed non-page (asset) fetch attempt.
	RecordAssetFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int)

	// RecordError logs a non-fatal error observed at packageName/action.
	RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, details string, attrs []Attribute)

	// RecordArtifact logs a successfully persisted crawl artifact.
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// NoopSink discards every event. It is the zero-configuration sink
// used by components (and tests) that have no observability backend
// wired in, and satisfies MetadataSink by embedding.
type NoopSink struct{}

func (NoopSink) RecordFetch(string, int, time.Duration, string, int, int)       {}
func (NoopSink) RecordAssetFetch(string, int, time.Duration, int)               {}
func (NoopSink) RecordError(time.Time, string, string, ErrorCause, string, []Attribute) {}
func (NoopSink) RecordArtifact(ArtifactKind, string, []Attribute)               {}

var _ MetadataSink = NoopSink{}
var _ MetadataSink = (*Recorder)(nil)
