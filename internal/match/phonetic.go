package match

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/IbrahimUsmani118/versenav/internal/phrase"
)

// matchPhonetic is the optional stage between substring and Levenshtein
// matching. An entry is a candidate when at least one Double Metaphone code
// of its tokens overlaps with a code of the transcript tokens; candidates
// are ranked by Jaro-Winkler similarity on the full strings and the best
// one wins, provided it reaches the configured threshold.
func (m *Matcher) matchPhonetic(normalized string) *Result {
	transcriptCodes := metaphoneCodes(strings.Fields(normalized))
	if len(transcriptCodes) == 0 {
		return nil
	}

	var (
		best      phrase.VersePhrase
		bestScore float64
		found     bool
	)

	for _, e := range m.table.Entries() {
		entryCodes := metaphoneCodes(strings.Fields(e.Phrase))
		if !codesOverlap(transcriptCodes, entryCodes) {
			continue
		}

		score := matchr.JaroWinkler(normalized, e.Phrase, false)
		if score < m.phoneticThreshold {
			continue
		}
		if !found || score > bestScore {
			best = e
			bestScore = score
			found = true
		}
	}

	if !found {
		return nil
	}
	return resultFor(best, best.Phrase, bestScore, TypeFuzzy)
}

// metaphoneCodes returns the union of all Double Metaphone codes for the
// given tokens. Empty codes are excluded.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
