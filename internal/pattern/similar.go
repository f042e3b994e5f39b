package pattern

import (
	"github.com/agnivade/levenshtein"
)

// similarityThreshold is the maximum normalized edit distance for two
// descriptions to count as similar.
const similarityThreshold = 0.4

// Similarity returns a score in [0, 1] for two descriptions, where 1 means
// identical after normalization. Both inputs are normalized before the
// edit-distance computation.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	maxLen := len(na)
	if len(nb) > maxLen {
		maxLen = len(nb)
	}
	if maxLen == 0 {
		return 1
	}

	dist := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(dist)/float64(maxLen)
}

// Similar reports whether two descriptions are close enough to be treated
// as the same merchant activity by apply-to-similar previews.
func Similar(a, b string) bool {
	return 1-Similarity(a, b) < similarityThreshold
}
