package frontier

import "net/url"

// CrawlToken is a ready-to-fetch URL handed to a worker by Next: a
// URL plus the depth it was discovered at, with no further policy
// attached.
type CrawlToken struct {
	url   url.URL
	depth int
}

func newCrawlToken(u url.URL, depth int) CrawlToken {
	return CrawlToken{url: u, depth: depth}
}

func (c CrawlToken) URL() url.URL {
	return c.url
}

func (c CrawlToken) Depth() int {
	return c.depth
}

// BadURLKind classifies why a URL was recorded as bad (spec §4.8's
// record_bad kinds).
type BadURLKind string

const (
	BadURLLowData BadURLKind = "low_data"
	BadURLError   BadURLKind = "error"
)
