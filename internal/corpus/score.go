package corpus

import (
	"math"
	"strings"

	"github.com/antzucaro/matchr"
)

// scoreVerse computes the combined distance score of query against a verse,
// in [0, 1] with 0 best. Arabic and English fields are weighted equally:
// the better (lower) field score stands for the verse, so neither language
// is favored over the other. ok is false when no field aligns a fragment of
// at least minMatchChars characters with the query.
//
// Arabic text is compared exactly as stored — no diacritic stripping — so a
// fully vocalized query matches vocalized text and an unvocalized query
// relies on the fragment alignment plus edit distance.
func (s *Service) scoreVerse(query string, v Verse) (score float64, ok bool) {
	best := math.Inf(1)

	if sc, aligned := fieldScore(query, v.Arabic, s.minMatchChars); aligned && sc < best {
		best = sc
	}
	if sc, aligned := fieldScore(strings.ToLower(query), strings.ToLower(v.English), s.minMatchChars); aligned && sc < best {
		best = sc
	}

	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// fieldScore scores query against a single text field. Containment is a
// perfect score. Otherwise the query is slid over token windows of the
// field and the best normalized Levenshtein similarity becomes the score
// (as 1 - similarity). aligned is false when the field shares no
// minMatchChars-length fragment with the query.
func fieldScore(query, field string, minMatchChars int) (score float64, aligned bool) {
	if field == "" {
		return 0, false
	}
	if !hasAlignedFragment(query, field, minMatchChars) {
		return 0, false
	}
	if strings.Contains(field, query) {
		return 0, true
	}

	tokens := strings.Fields(field)
	queryTokens := len(strings.Fields(query))
	if queryTokens == 0 {
		return 0, false
	}

	bestSim := 0.0
	for _, width := range windowWidths(queryTokens, len(tokens)) {
		for i := 0; i+width <= len(tokens); i++ {
			window := strings.Join(tokens[i:i+width], " ")
			if sim := levenshteinSimilarity(query, window); sim > bestSim {
				bestSim = sim
			}
		}
	}

	return 1 - bestSim, true
}

// windowWidths returns the token window sizes to try: the query's own token
// count plus one either side, clamped to [1, fieldTokens].
func windowWidths(queryTokens, fieldTokens int) []int {
	var widths []int
	for w := queryTokens - 1; w <= queryTokens+1; w++ {
		if w >= 1 && w <= fieldTokens {
			widths = append(widths, w)
		}
	}
	return widths
}

// levenshteinSimilarity is the normalized Levenshtein similarity in runes,
// 1.0 for identical strings.
func levenshteinSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	return float64(longest-matchr.Levenshtein(a, b)) / float64(longest)
}

// hasAlignedFragment reports whether any n consecutive runes of query
// appear in field.
func hasAlignedFragment(query, field string, n int) bool {
	if n <= 0 {
		return true
	}
	runes := []rune(query)
	if len(runes) < n {
		return false
	}
	for i := 0; i+n <= len(runes); i++ {
		if strings.Contains(field, string(runes[i:i+n])) {
			return true
		}
	}
	return false
}

// roundTwoDecimals rounds to two decimal places, half away from zero.
func roundTwoDecimals(f float64) float64 {
	return math.Round(f*100) / 100
}
