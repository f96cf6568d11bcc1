package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

/*
Worker Contract

The worker needs two things out of an ExtractionResult beyond the raw
DOM: the page's outbound links (to feed back through frontier.Add) and
its visible text (for the min_words check, the SimHash fingerprint
input, and the optional storage sink). Both are derived from the whole
parsed document, matching original_source's scraper.py (get_text() and
find_all("a") over the entire page, not a heuristically isolated
subset of it).
*/

// Outlinks walks the whole parsed document and returns every http(s)
// href resolved against base, deduplicated in first-seen order.
func (r ExtractionResult) Outlinks(base url.URL) []string {
	if r.DocumentRoot == nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)

	goquery.NewDocumentFromNode(r.DocumentRoot).Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
			return
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		absolute := resolved.String()
		if seen[absolute] {
			return
		}
		seen[absolute] = true
		links = append(links, absolute)
	})

	return links
}

// VisibleText returns the whole page's text, scripts and styles
// excluded, whitespace-collapsed. It is empty when the document failed
// to parse.
func (r ExtractionResult) VisibleText() string {
	if r.DocumentRoot == nil {
		return ""
	}

	var b strings.Builder
	collectText(r.DocumentRoot, &b)
	return collapseWhitespace(b.String())
}

// WordCount returns the number of whitespace-delimited words in
// VisibleText, the quantity spec's min_words check is measured
// against.
func (r ExtractionResult) WordCount() int {
	return len(strings.Fields(r.VisibleText()))
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
