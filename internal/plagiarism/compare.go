package plagiarism

import (
	"math"
	"sort"

	"github.com/RishiKendai/codesim/internal/models"
	"gonum.org/v1/gonum/floats"
)

// Scorer weights. Token-set overlap survives renaming and reordering, edit
// distance catches near-verbatim copies.
const (
	TokenWeight = 0.7
	EditWeight  = 0.3
)

// CompareArtifact scores two source texts on a 0-100 scale:
// round(100 * (0.7*jaccard + 0.3*levenshtein)).
func CompareArtifact(contentA, contentB string) int {
	jaccard := Jaccard(Normalize(contentA), Normalize(contentB))
	edit := LevenshteinSimilarity(contentA, contentB)

	return clampScore(math.Round(100 * (TokenWeight*jaccard + EditWeight*edit)))
}

// CompareFiles scores a pair of submissions across files. Each file is scored
// with CompareArtifact and the pair score is the weighted mean over files
// present on both sides; missing files are left out of the mean rather than
// counted as 0. When no weight remains the result is marked non-comparable.
//
// An empty files list compares every path found in either submission with
// weight 1.
func CompareFiles(a, b models.Submission, files []models.FileSpec) models.ComparisonResult {
	if b.ID < a.ID {
		a, b = b, a
	}
	if len(files) == 0 {
		files = unionFiles(a, b)
	}

	result := models.ComparisonResult{
		StudentA: a.ID,
		StudentB: b.ID,
		Files:    make([]models.FileScore, 0, len(files)),
	}

	scores := make([]float64, 0, len(files))
	weights := make([]float64, 0, len(files))

	for _, file := range files {
		fileScore := models.FileScore{Path: file.Path, Weight: file.Weight}

		contentA := a.Lookup(file.Path)
		contentB := b.Lookup(file.Path)
		if contentA.Present && contentB.Present {
			fileScore.Score = CompareArtifact(contentA.Text, contentB.Text)
			fileScore.Comparable = true
			if file.Weight > 0 {
				scores = append(scores, float64(fileScore.Score))
				weights = append(weights, file.Weight)
			}
		}

		result.Files = append(result.Files, fileScore)
	}

	totalWeight := floats.Sum(weights)
	if totalWeight <= 0 {
		return result
	}

	result.Score = clampScore(math.Round(floats.Dot(scores, weights) / totalWeight))
	result.Comparable = true

	return result
}

// unionFiles lists every path of either submission, sorted, with weight 1
func unionFiles(a, b models.Submission) []models.FileSpec {
	seen := make(map[string]struct{}, len(a.Files)+len(b.Files))
	for path := range a.Files {
		seen[path] = struct{}{}
	}
	for path := range b.Files {
		seen[path] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]models.FileSpec, len(paths))
	for i, path := range paths {
		files[i] = models.FileSpec{Path: path, Weight: 1}
	}
	return files
}

func clampScore(score float64) int {
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
