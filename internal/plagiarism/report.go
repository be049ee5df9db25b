package plagiarism

import (
	"sort"
	"time"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// FilterHighSimilarity returns comparable results scoring at or above
// threshold, highest first. A threshold <= 0 uses the default of 80.
func FilterHighSimilarity(results []models.ComparisonResult, threshold int) []models.ComparisonResult {
	if threshold <= 0 {
		threshold = DefaultHighSimilarityThreshold
	}

	high := make([]models.ComparisonResult, 0)
	for _, result := range results {
		if result.Comparable && result.Score >= threshold {
			high = append(high, result)
		}
	}
	sortByScore(high)

	return high
}

// FindHighestSimilarityPerStudent picks, for every student, their highest
// scoring comparable pairing. Two students whose best match is each other
// share one row. Rows are sorted by score, highest first.
func FindHighestSimilarityPerStudent(results []models.ComparisonResult) []models.ComparisonResult {
	best := make(map[string]models.ComparisonResult)
	consider := func(student string, result models.ComparisonResult) {
		current, ok := best[student]
		if !ok || result.Score > current.Score ||
			(result.Score == current.Score && result.Key().String() < current.Key().String()) {
			best[student] = result
		}
	}

	for _, result := range results {
		if !result.Comparable {
			continue
		}
		consider(result.StudentA, result)
		consider(result.StudentB, result)
	}

	seen := make(map[models.PairKey]bool, len(best))
	rows := make([]models.ComparisonResult, 0, len(best))
	for _, result := range best {
		key := result.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, result)
	}
	sortByScore(rows)

	return rows
}

// BuildMatrix lays the results out as a square matrix indexed like ids.
// Cells for unevaluated or non-comparable pairs and the diagonal hold
// NotComparable.
func BuildMatrix(results []models.ComparisonResult, ids []string) [][]int {
	index := make(map[string]int, len(ids))
	matrix := make([][]int, len(ids))
	for i, id := range ids {
		index[id] = i
		matrix[i] = make([]int, len(ids))
		for j := range matrix[i] {
			matrix[i][j] = NotComparable
		}
	}

	for _, result := range results {
		if !result.Comparable {
			continue
		}
		i, okA := index[result.StudentA]
		j, okB := index[result.StudentB]
		if !okA || !okB || i == j {
			continue
		}
		matrix[i][j] = result.Score
		matrix[j][i] = result.Score
	}

	return matrix
}

// BuildReport turns a finished scheduling run and the reference findings
// into the report handed to the reporting layer.
func BuildReport(acc Accumulator, threshold int, findings map[string]models.DefaultImplementationFinding) *models.SimilarityReport {
	if threshold <= 0 {
		threshold = DefaultHighSimilarityThreshold
	}
	if findings == nil {
		findings = make(map[string]models.DefaultImplementationFinding)
	}

	scores := make([]float64, 0, acc.Comparable)
	for _, result := range acc.Results {
		if result.Comparable {
			scores = append(scores, float64(result.Score))
		}
	}

	stdDev := 0.0
	if len(scores) > 1 {
		stdDev = stat.StdDev(scores, nil)
	}

	var earlyExitPair *models.PairKey
	if acc.EarlyExit {
		earlyExitPair = acc.Trigger
	}

	comparisons := acc.Results
	if comparisons == nil {
		comparisons = []models.ComparisonResult{}
	}

	return &models.SimilarityReport{
		RunID:                  uuid.New().String(),
		Comparisons:            comparisons,
		HighSimilarity:         FilterHighSimilarity(acc.Results, threshold),
		Threshold:              threshold,
		AverageSimilarity:      acc.Average(),
		SimilarityStdDev:       stdDev,
		ComparableCount:        acc.Comparable,
		TotalPairs:             acc.TotalPairs,
		EvaluatedPairs:         acc.Evaluated,
		EarlyExit:              acc.EarlyExit,
		EarlyExitPair:          earlyExitPair,
		DefaultImplementations: findings,
		Status:                 string(models.StepCompleted),
		CreatedAt:              time.Now(),
	}
}

func sortByScore(results []models.ComparisonResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key().String() < results[j].Key().String()
	})
}
