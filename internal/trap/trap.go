// Package trap rejects URLs matching known infinite-trap patterns:
// calendars, session/sort/filter query keys, oversized query strings
// or paths, and server-script extensions. The source iterations this
// spec distills from scattered these checks across several ad hoc
// regexes; this package unifies them into one disjunctive list.
package trap

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	calendarPattern = regexp.MustCompile(`/(19|20)\d{2}/(0?[1-9]|1[0-2])/(0?[1-9]|[12]\d|3[01])(/|$)`)

	sessionQueryKeys = map[string]struct{}{
		"sessionid": {}, "phpsessid": {}, "jsessionid": {}, "sid": {},
		"view": {}, "action": {}, "format": {}, "order": {},
		"sort": {}, "filter": {}, "limit": {},
	}

	socialOrNumericDirPattern = regexp.MustCompile(`/\d{5,}/`)

	scriptExtensionPattern = regexp.MustCompile(`(?i)\.(aspx|jsp|cgi)$|cgi-bin/`)
)

const maxQueryParams = 3
const maxPathLength = 400

// IsTrap reports whether raw matches any known infinite-trap pattern.
// A parse failure is not itself a trap signal (validity.Filter is
// responsible for rejecting malformed URLs); IsTrap returns false in
// that case so the caller's other filters still run.
func IsTrap(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return hasCalendarSegment(u.Path) ||
		hasTrapQueryKey(u.Query()) ||
		len(u.Query()) > maxQueryParams ||
		len(u.Path) > maxPathLength ||
		socialOrNumericDirPattern.MatchString(u.Path) ||
		scriptExtensionPattern.MatchString(u.Path)
}

func hasCalendarSegment(path string) bool {
	return calendarPattern.MatchString(path)
}

func hasTrapQueryKey(values url.Values) bool {
	for key := range values {
		if _, known := sessionQueryKeys[strings.ToLower(key)]; known {
			return true
		}
	}
	return false
}
