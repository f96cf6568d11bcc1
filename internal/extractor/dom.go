package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rsnk/politecrawl/internal/metadata"
	"github.com/rsnk/politecrawl/pkg/failure"
	"golang.org/x/net/html"
)

/*
Responsibilities
- Parse HTML into a DOM tree
- Reject input that isn't HTML at all

Extraction Strategy

There is no "main content" isolation step: spec's worker loop and
original_source's scraper.py both treat the whole parsed page as the
unit of text and link extraction (get_text()/find_all("a") over the
entire document), so every page this crawler visits -- an ordinary
academic department page as much as a generated docs site -- yields
its full visible text and every outbound link, not just the subset a
heuristic container-detector happens to recognize.
*/

type DomExtractor struct {
	metadataSink metadata.MetadataSink
}

// NewDomExtractor builds a DomExtractor.
func NewDomExtractor(metadataSink metadata.MetadataSink) DomExtractor {
	return DomExtractor{metadataSink: metadataSink}
}

func (d *DomExtractor) Extract(
	sourceUrl url.URL,
	htmlByte []byte,
) (ExtractionResult, failure.ClassifiedError) {
	result, err := d.extract(htmlByte)
	if err != nil {
		var extractionError *ExtractionError
		errors.As(err, &extractionError)
		d.metadataSink.RecordError(
			time.Now(),
			"extractor",
			"DomExtractor.Extract",
			mapExtractionErrorToMetadataCause(extractionError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fmt.Sprintf("%v", sourceUrl)),
			},
		)
		return ExtractionResult{}, extractionError
	}
	return result, nil
}

func (d *DomExtractor) extract(htmlByte []byte) (ExtractionResult, error) {
	doc, err := html.Parse(bytes.NewReader(htmlByte))
	if err != nil {
		return ExtractionResult{}, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse HTML: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	if !isValidHTML(doc) {
		return ExtractionResult{}, &ExtractionError{
			Message:   "input is not valid HTML document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	return ExtractionResult{DocumentRoot: doc}, nil
}

// isValidHTML checks if the parsed document has a proper HTML structure
func isValidHTML(doc *html.Node) bool {
	var findHTML func(*html.Node) bool
	findHTML = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "html" {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if findHTML(c) {
				return true
			}
		}
		return false
	}
	return findHTML(doc)
}
