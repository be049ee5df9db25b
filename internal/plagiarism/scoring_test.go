package plagiarism

import (
	"testing"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSimilarityBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Band
	}{
		{0, BandVeryLow},
		{20, BandVeryLow},
		{21, BandLow},
		{40, BandLow},
		{41, BandMedium},
		{60, BandMedium},
		{61, BandHigh},
		{80, BandHigh},
		{81, BandVeryHigh},
		{100, BandVeryHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SimilarityBand(tt.score), "score %d", tt.score)
	}
}

func TestClassifyIntegrity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, IntegrityClear, ClassifyIntegrity(79, 0))
	assert.Equal(t, IntegrityReview, ClassifyIntegrity(80, 0))
	assert.Equal(t, IntegrityReview, ClassifyIntegrity(94, 80))
	assert.Equal(t, IntegrityViolation, ClassifyIntegrity(95, 80))
	assert.Equal(t, IntegrityClear, ClassifyIntegrity(85, 90))
}

func TestScoreAdjustment(t *testing.T) {
	t.Parallel()

	pair := func(score int) *models.ComparisonResult {
		return &models.ComparisonResult{StudentA: "a", StudentB: "b", Score: score, Comparable: true}
	}
	functions := func(n int) *models.DefaultImplementationFinding {
		f := &models.DefaultImplementationFinding{MatchedFunctions: []string{}}
		for i := 0; i < n; i++ {
			f.MatchedFunctions = append(f.MatchedFunctions, "fn")
		}
		return f
	}

	tests := []struct {
		name       string
		pair       *models.ComparisonResult
		finding    *models.DefaultImplementationFinding
		want       float64
		deductions int
	}{
		{"nothing flagged", pair(30), functions(0), 100, 0},
		{"no data", nil, nil, 100, 0},
		{"near-identical submission", pair(95), nil, 0, 1},
		{"high similarity", pair(85), nil, 80, 1},
		{"non-comparable pair ignored", &models.ComparisonResult{Score: 100}, nil, 100, 0},
		{"two functions", nil, functions(2), 80, 1},
		{"function penalty capped", nil, functions(4), 70, 1},
		{"five functions zero the grade", nil, functions(5), 0, 1},
		{"whole file", nil, &models.DefaultImplementationFinding{WholeFile: true}, 0, 1},
		{"both penalties", pair(85), functions(1), 70, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			adj := ScoreAdjustment(100, tt.pair, tt.finding, 80)
			assert.Equal(t, 100.0, adj.Base)
			assert.InDelta(t, tt.want, adj.Final, 1e-9)
			assert.Len(t, adj.Deductions, tt.deductions)
		})
	}

	t.Run("never below zero", func(t *testing.T) {
		t.Parallel()
		adj := ScoreAdjustment(25, pair(85), functions(3), 80)
		assert.Equal(t, 0.0, adj.Final)
	})
}
