package frontier

import (
	"net/url"
	"sort"
	"strings"
)

// BadURLSimilarityThreshold and BadURLMinNeighbors are spec §4.10's
// bad-URL heuristic constants: a URL is treated as similar-to-bad when
// at least BadURLMinNeighbors members of the host's bad set score
// >= BadURLSimilarityThreshold against it.
const (
	BadURLSimilarityThreshold = 0.95
	BadURLMinNeighbors        = 5
)

// jaccardTokens builds the token set spec §4.10 defines: path segments
// unioned with query-key/sorted-values pairs, e.g. "seg:docs",
// "seg:2024", "q:sort=asc,name".
func jaccardTokens(raw string) map[string]struct{} {
	tokens := make(map[string]struct{})

	u, err := url.Parse(raw)
	if err != nil {
		return tokens
	}

	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		tokens["seg:"+seg] = struct{}{}
	}

	query := u.Query()
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values := append([]string{}, query[k]...)
		sort.Strings(values)
		tokens["q:"+k+"="+strings.Join(values, ",")] = struct{}{}
	}

	return tokens
}

// jaccardSimilarity computes |a∩b| / |a∪b| over two token sets. Two
// empty sets are defined as dissimilar (0), since they carry no
// signal about the URLs that produced them.
func jaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
