package extractor

import "golang.org/x/net/html"

// ExtractionResult holds the extraction outcome: the parsed document.
// VisibleText/Outlinks (internal/extractor/links.go) both derive from
// DocumentRoot -- the whole page, not a heuristically isolated subset
// of it (original_source's scraper.py reads soup.get_text() and
// soup.find_all("a") over the entire parsed page, and this package
// keeps that contract).
type ExtractionResult struct {
	DocumentRoot *html.Node
}
