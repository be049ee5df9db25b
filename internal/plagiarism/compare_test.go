package plagiarism

import (
	"testing"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submission(id string, files map[string]string) models.Submission {
	return models.Submission{ID: id, Files: files}
}

func TestCompareFiles(t *testing.T) {
	t.Parallel()

	const code = "func main() {\n\tfmt.Println(\"hi\")\n}"

	t.Run("identical files", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code})
		b := submission("b", map[string]string{"main.go": code})

		result := CompareFiles(a, b, []models.FileSpec{{Path: "main.go", Weight: 1}})
		assert.True(t, result.Comparable)
		assert.Equal(t, 100, result.Score)
		require.Len(t, result.Files, 1)
		assert.True(t, result.Files[0].Comparable)
	})

	t.Run("file missing on one side", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code})
		b := submission("b", map[string]string{})

		result := CompareFiles(a, b, []models.FileSpec{{Path: "main.go", Weight: 1}})
		assert.False(t, result.Comparable)
		assert.Equal(t, 0, result.Score)
		require.Len(t, result.Files, 1)
		assert.False(t, result.Files[0].Comparable)
		assert.Equal(t, 0, result.Files[0].Score)
	})

	t.Run("empty file is present", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": ""})
		b := submission("b", map[string]string{"main.go": code})

		result := CompareFiles(a, b, []models.FileSpec{{Path: "main.go", Weight: 1}})
		assert.True(t, result.Comparable)
		assert.Equal(t, 0, result.Score)
	})

	t.Run("weighted mean over present files", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code, "util.go": "aaaa"})
		b := submission("b", map[string]string{"main.go": code, "util.go": "bbbb"})

		result := CompareFiles(a, b, []models.FileSpec{
			{Path: "main.go", Weight: 3},
			{Path: "util.go", Weight: 1},
		})
		assert.True(t, result.Comparable)
		assert.Equal(t, 75, result.Score)
	})

	t.Run("missing file left out of the mean", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code, "util.go": "aaaa"})
		b := submission("b", map[string]string{"main.go": code})

		result := CompareFiles(a, b, []models.FileSpec{
			{Path: "main.go", Weight: 1},
			{Path: "util.go", Weight: 1},
		})
		assert.True(t, result.Comparable)
		assert.Equal(t, 100, result.Score)
	})

	t.Run("zero weight files do not count", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code})
		b := submission("b", map[string]string{"main.go": code})

		result := CompareFiles(a, b, []models.FileSpec{{Path: "main.go", Weight: 0}})
		assert.False(t, result.Comparable)
		require.Len(t, result.Files, 1)
		assert.Equal(t, 100, result.Files[0].Score)
	})

	t.Run("pair ordered by id", func(t *testing.T) {
		a := submission("alice", map[string]string{"main.go": code})
		b := submission("bob", map[string]string{"main.go": code})

		result := CompareFiles(b, a, nil)
		assert.Equal(t, "alice", result.StudentA)
		assert.Equal(t, "bob", result.StudentB)
	})

	t.Run("no file list compares the union", func(t *testing.T) {
		a := submission("a", map[string]string{"main.go": code, "extra.go": "x"})
		b := submission("b", map[string]string{"main.go": code})

		result := CompareFiles(a, b, nil)
		require.Len(t, result.Files, 2)
		assert.Equal(t, "extra.go", result.Files[0].Path)
		assert.False(t, result.Files[0].Comparable)
		assert.Equal(t, "main.go", result.Files[1].Path)
		assert.Equal(t, 100, result.Score)
	})
}
