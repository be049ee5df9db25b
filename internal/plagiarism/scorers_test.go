package plagiarism

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"a", "b"}, []string{"a", "b"}, 1},
		{"disjoint", []string{"a"}, []string{"b"}, 0},
		{"partial overlap", []string{"a", "b"}, []string{"b", "c"}, 1.0 / 3.0},
		{"duplicates collapse", []string{"a", "a", "b"}, []string{"b", "a"}, 1},
		{"left empty", nil, []string{"a"}, 0},
		{"both empty", []string{}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("identical", func(t *testing.T) {
		assert.InDelta(t, 1.0, LevenshteinSimilarity("return x", "return x"), 1e-9)
	})

	t.Run("one substitution", func(t *testing.T) {
		assert.InDelta(t, 1.0-1.0/3.0, LevenshteinSimilarity("abc", "abd"), 1e-9)
	})

	t.Run("whitespace and case ignored", func(t *testing.T) {
		assert.InDelta(t, 1.0, LevenshteinSimilarity("Return  X", "return\nx"), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "for i := range xs { sum += i }", "for j := 0; j < n; j++ {}"
		assert.Equal(t, LevenshteinSimilarity(a, b), LevenshteinSimilarity(b, a))
	})

	t.Run("empty side", func(t *testing.T) {
		assert.Equal(t, 0.0, LevenshteinSimilarity("", "abc"))
		assert.Equal(t, 0.0, LevenshteinSimilarity("// comment", "abc"))
	})
}

func TestCompareArtifact(t *testing.T) {
	t.Parallel()

	samples := []string{
		"func add(a, b int) int { return a + b }",
		"func add(x, y int) int {\n\t// sum\n\treturn x + y\n}",
		"def add(a, b):\n    return a + b",
		"",
		"print('hello')",
	}

	t.Run("identical is 100", func(t *testing.T) {
		for _, s := range samples[:3] {
			assert.Equal(t, 100, CompareArtifact(s, s))
		}
	})

	t.Run("symmetric and in range", func(t *testing.T) {
		for _, a := range samples {
			for _, b := range samples {
				score := CompareArtifact(a, b)
				assert.Equal(t, score, CompareArtifact(b, a), "%q vs %q", a, b)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	})

	t.Run("empty side scores 0", func(t *testing.T) {
		assert.Equal(t, 0, CompareArtifact("", "return 1"))
		assert.Equal(t, 0, CompareArtifact("", ""))
	})

	t.Run("comment-only changes still 100", func(t *testing.T) {
		assert.Equal(t, 100, CompareArtifact("x = 1", "x = 1 // copied"))
	})
}
