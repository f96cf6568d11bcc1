// Package simhash fingerprints page content for near-duplicate
// detection. Ported from original_source/crawler/simhash.py, with
// Python's randomized hash(t) replaced by xxhash.Sum64 so fingerprints
// stay identical across process runs (spec §4.6's determinism
// requirement).
package simhash

import (
	"math/bits"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Bits is the fingerprint width, B in the bit-vector accumulation.
const Bits = 64

// Fingerprint is a 64-bit SimHash value.
type Fingerprint uint64

var tokenPattern = regexp.MustCompile(`\w+`)

// stopwords mirrors the NLTK English stopword list the original
// tokenizer filtered against; it is not fetched at runtime since the
// crawler has no network dependency on a corpus download.
var stopwords = map[string]bool{
	"i": true, "me": true, "my": true, "myself": true, "we": true, "our": true,
	"ours": true, "ourselves": true, "you": true, "your": true, "yours": true,
	"yourself": true, "yourselves": true, "he": true, "him": true, "his": true,
	"himself": true, "she": true, "her": true, "hers": true, "herself": true,
	"it": true, "its": true, "itself": true, "they": true, "them": true,
	"their": true, "theirs": true, "themselves": true, "what": true, "which": true,
	"who": true, "whom": true, "this": true, "that": true, "these": true,
	"those": true, "am": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true, "had": true,
	"having": true, "do": true, "does": true, "did": true, "doing": true,
	"a": true, "an": true, "the": true, "and": true, "but": true, "if": true,
	"or": true, "because": true, "as": true, "until": true, "while": true,
	"of": true, "at": true, "by": true, "for": true, "with": true, "about": true,
	"against": true, "between": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "to": true,
	"from": true, "up": true, "down": true, "in": true, "out": true, "on": true,
	"off": true, "over": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "any": true, "both": true,
	"each": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "no": true, "nor": true, "not": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true, "very": true,
	"s": true, "t": true, "can": true, "will": true, "just": true, "don": true,
	"should": true, "now": true,
}

// TokenCounts lowercases text, extracts \w+ tokens, drops stopwords,
// and returns a frequency counter over the remainder.
func TokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if stopwords[token] {
			continue
		}
		counts[token]++
	}
	return counts
}

// Compute folds a token-frequency counter into a 64-bit fingerprint:
// for each token t with weight w, stable-hash(t) selects which bits of
// an accumulator v gain +w versus -w; the fingerprint's bit i is 1 iff
// v[i] >= 0.
func Compute(counts map[string]int) Fingerprint {
	var weights [Bits]int64
	for token, weight := range counts {
		h := xxhash.Sum64String(token)
		for i := 0; i < Bits; i++ {
			if h&(1<<uint(i)) != 0 {
				weights[i] += int64(weight)
			} else {
				weights[i] -= int64(weight)
			}
		}
	}

	var fp uint64
	for i := 0; i < Bits; i++ {
		if weights[i] >= 0 {
			fp |= 1 << uint(i)
		}
	}
	return Fingerprint(fp)
}

// FromText is Compute(TokenCounts(text)), the common entry point for
// fingerprinting an extracted page's visible text.
func FromText(text string) Fingerprint {
	return Compute(TokenCounts(text))
}

// Similarity returns the fraction of matching bits between two
// fingerprints: (Bits - popcount(a XOR b)) / Bits.
func Similarity(a, b Fingerprint) float64 {
	diff := bits.OnesCount64(uint64(a) ^ uint64(b))
	return float64(Bits-diff) / float64(Bits)
}

// NearDuplicateThreshold is the spec's near-duplicate cutoff: two
// fingerprints with Similarity strictly greater than this are
// near-duplicates.
const NearDuplicateThreshold = 0.95

// IsNearDuplicate reports whether a and b exceed NearDuplicateThreshold.
func IsNearDuplicate(a, b Fingerprint) bool {
	return Similarity(a, b) > NearDuplicateThreshold
}
