package extractor_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/rsnk/politecrawl/internal/extractor"
	"github.com/rsnk/politecrawl/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMetadataSink is a test spy that captures recorded errors
type mockMetadataSink struct {
	metadata.NoopSink
	errors []recordedError
}

type recordedError struct {
	PackageName string
	Action      string
	Cause       metadata.ErrorCause
	ErrorString string
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	errorString string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		PackageName: packageName,
		Action:      action,
		Cause:       cause,
		ErrorString: errorString,
	})
}

func setupExtractor() (*extractor.DomExtractor, *mockMetadataSink) {
	sink := &mockMetadataSink{}
	ext := extractor.NewDomExtractor(sink)
	return &ext, sink
}

func mustParseURL(t *testing.T, raw string) url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return *u
}

// TestExtract_OrdinaryPage_ReturnsWholePageTextAndLinks covers an
// ordinary department page with no <main>/<article> and no docs-site
// CSS classes -- the case spec's worker loop relies on every ICS/CS
// page surviving extraction regardless of markup shape.
func TestExtract_OrdinaryPage_ReturnsWholePageTextAndLinks(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://www.ics.uci.edu/~faculty/index.html")
	htmlBytes := []byte(`<html><head><title>Faculty</title></head><body>
<div class="banner">Department of Informatics</div>
<div class="row">
<p>Professor Jane Example studies distributed systems and runs the
Example Research Lab together with several graduate students.</p>
<a href="/people.html">People</a>
<a href="https://example.com/external">External site</a>
</div>
</body></html>`)

	result, err := ext.Extract(sourceURL, htmlBytes)
	require.NoError(t, err)

	assert.Contains(t, result.VisibleText(), "distributed systems")
	assert.Contains(t, result.VisibleText(), "Department of Informatics")
	assert.Greater(t, result.WordCount(), 10)

	links := result.Outlinks(sourceURL)
	assert.Contains(t, links, "https://www.ics.uci.edu/people.html")
	assert.Contains(t, links, "https://example.com/external")
}

// TestExtract_ScriptsAndStylesExcludedFromVisibleText ensures script
// and style contents never leak into the word count or SimHash input.
func TestExtract_ScriptsAndStylesExcludedFromVisibleText(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://example.ics.uci.edu/page")
	htmlBytes := []byte(`<html><body>
<style>.hidden { display: none; }</style>
<p>Visible paragraph text about research.</p>
<script>var trackingPixel = "should-not-appear-in-text";</script>
</body></html>`)

	result, err := ext.Extract(sourceURL, htmlBytes)
	require.NoError(t, err)

	assert.Contains(t, result.VisibleText(), "Visible paragraph text")
	assert.NotContains(t, result.VisibleText(), "trackingPixel")
	assert.NotContains(t, result.VisibleText(), "should-not-appear-in-text")
}

// TestExtract_NavAndChromeLinksAreStillDiscovered documents that link
// discovery is not restricted to a "main content" subset: a crawler
// needs navigation links to traverse a whole site, not just the links
// an article body happens to contain.
func TestExtract_NavAndChromeLinksAreStillDiscovered(t *testing.T) {
	ext, _ := setupExtractor()
	sourceURL := mustParseURL(t, "https://www.ics.uci.edu/index.html")
	htmlBytes := []byte(`<html><body>
<nav><a href="/courses.html">Courses</a><a href="/research.html">Research</a></nav>
<main><p>Some page content.</p></main>
</body></html>`)

	result, err := ext.Extract(sourceURL, htmlBytes)
	require.NoError(t, err)

	links := result.Outlinks(sourceURL)
	assert.Contains(t, links, "https://www.ics.uci.edu/courses.html")
	assert.Contains(t, links, "https://www.ics.uci.edu/research.html")
}
