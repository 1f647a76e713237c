package match

import "github.com/antzucaro/matchr"

// Similarity returns the normalized Levenshtein similarity between a and b:
//
//	(max(len(a), len(b)) - levenshtein(a, b)) / max(len(a), len(b))
//
// measured in runes. The result is in [0, 1]; identical strings score 1.0,
// and two empty strings are defined to score 1.0. Similarity is symmetric.
func Similarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))

	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	dist := matchr.Levenshtein(a, b)
	return float64(longest-dist) / float64(longest)
}
