// Package validity decides whether a URL falls within the configured
// allowed domains and does not point at a disallowed file type. Ported
// bit-for-bit from original_source/scraper.py: is_valid.
package validity

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultAllowedDomains is the reference allowed-domain set from the
// original crawl target (UCI ICS and sibling departments).
var DefaultAllowedDomains = []string{
	`^.+\.ics\.uci\.edu(/.*)?$`,
	`^.+\.cs\.uci\.edu(/.*)?$`,
	`^.+\.informatics\.uci\.edu(/.*)?$`,
	`^.+\.stat\.uci\.edu(/.*)?$`,
}

var disallowedExtensionPattern = regexp.MustCompile(
	`(?i)\.(css|js|bmp|gif|jpe?g|ico|png|tiff?|mid|mp2|mp3|mp4` +
		`|wav|avi|mov|mpeg|ram|m4v|mkv|ogg|ogv|pdf` +
		`|ps|eps|tex|ppt|pptx|doc|docx|xls|xlsx|names` +
		`|data|dat|exe|bz2|tar|msi|bin|7z|psd|dmg|iso` +
		`|epub|dll|cnf|tgz|sha1` +
		`|thmx|mso|arff|rtf|jar|csv` +
		`|rm|smil|wmv|swf|wma|zip|rar|gz)$`,
)

// Filter decides whether canonicalized URLs fall within a configured
// set of allowed-domain patterns and avoid disallowed file extensions.
type Filter struct {
	allowedDomains []*regexp.Regexp
}

// NewFilter compiles the given allowed-domain regular expressions. A
// malformed pattern is a configuration error and panics at startup,
// matching the teacher's fail-fast construction style for compiled
// pattern lists (see internal/trap for the same convention).
func NewFilter(allowedDomainPatterns []string) Filter {
	compiled := make([]*regexp.Regexp, 0, len(allowedDomainPatterns))
	for _, p := range allowedDomainPatterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return Filter{allowedDomains: compiled}
}

// NewDefaultFilter builds a Filter from DefaultAllowedDomains.
func NewDefaultFilter() Filter {
	return NewFilter(DefaultAllowedDomains)
}

// IsValid reports whether raw is a crawlable URL: http(s) scheme with
// a hostname, the URL matching at least one allowed-domain pattern, and
// a path not ending in a disallowed extension. The patterns are matched
// against the whole raw URL string, not against the hostname alone.
// Any parse failure or rule violation returns false; IsValid never
// returns an error.
func (f Filter) IsValid(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Hostname() == "" {
		return false
	}

	matched := false
	for _, pattern := range f.allowedDomains {
		if pattern.MatchString(raw) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	return !disallowedExtensionPattern.MatchString(strings.ToLower(raw))
}
