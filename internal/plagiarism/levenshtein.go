package plagiarism

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// LevenshteinSimilarity compares the normalized character forms of a and b:
// 1 - distance/max(lenA, lenB), with unit cost per insertion, deletion and
// substitution. Returns 0 when either normalized string is empty.
//
// Cost is O(len(a) * len(b)); callers comparing large files should expect
// that to dominate a run.
func LevenshteinSimilarity(textA, textB string) float64 {
	normA := NormalizeText(textA)
	normB := NormalizeText(textB)

	lenA := utf8.RuneCountInString(normA)
	lenB := utf8.RuneCountInString(normB)
	if lenA == 0 || lenB == 0 {
		return 0.0
	}

	maxLen := max(lenA, lenB)
	distance := levenshtein.ComputeDistance(normA, normB)

	return 1.0 - float64(distance)/float64(maxLen)
}
