package stream

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	t.Parallel()

	fields := func(extra map[string]string) map[string]string {
		f := map[string]string{"assignmentId": "hw1", "studentId": "alice", "path": "main.go"}
		for k, v := range extra {
			f[k] = v
		}
		return f
	}

	t.Run("plain content", func(t *testing.T) {
		t.Parallel()
		file, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: fields(map[string]string{"content": "package main"})})
		require.NoError(t, err)
		assert.Equal(t, "hw1", file.AssignmentID)
		assert.Equal(t, "alice", file.StudentID)
		assert.Equal(t, "main.go", file.Path)
		assert.Equal(t, "package main", file.Content)
	})

	t.Run("empty content is valid", func(t *testing.T) {
		t.Parallel()
		file, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: fields(map[string]string{"content": ""})})
		require.NoError(t, err)
		assert.Equal(t, "", file.Content)
	})

	t.Run("base64 content", func(t *testing.T) {
		t.Parallel()
		encoded := base64.StdEncoding.EncodeToString([]byte("x := \"\\u00e9\"\n"))
		file, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: fields(map[string]string{"contentBase64": encoded})})
		require.NoError(t, err)
		assert.Equal(t, "x := \"\\u00e9\"\n", file.Content)
	})

	t.Run("bad base64", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: fields(map[string]string{"contentBase64": "!!"})})
		assert.ErrorContains(t, err, "contentBase64")
	})

	t.Run("missing content", func(t *testing.T) {
		t.Parallel()
		_, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: fields(nil)})
		assert.ErrorContains(t, err, `"content"`)
	})

	t.Run("missing student", func(t *testing.T) {
		t.Parallel()
		f := fields(map[string]string{"content": "x"})
		delete(f, "studentId")
		_, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: f})
		assert.ErrorContains(t, err, "studentId")
	})
}
