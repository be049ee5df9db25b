package stream

import (
	"encoding/base64"
	"fmt"

	"github.com/RishiKendai/codesim/internal/models"
)

// StreamMessage is a decoded stream entry
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseSubmission reads a submission file from a stream entry. The content
// is carried in "content", or base64-encoded in "contentBase64".
func ParseSubmission(msg *StreamMessage) (*models.SubmissionFile, error) {
	required := []string{"assignmentId", "studentId", "path"}
	for _, key := range required {
		if msg.Fields[key] == "" {
			return nil, fmt.Errorf("missing field %q in message %s", key, msg.ID)
		}
	}

	content, hasContent := msg.Fields["content"]
	if encoded, ok := msg.Fields["contentBase64"]; ok {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid contentBase64 in message %s: %w", msg.ID, err)
		}
		content = string(decoded)
		hasContent = true
	}
	if !hasContent {
		return nil, fmt.Errorf("missing field %q in message %s", "content", msg.ID)
	}

	return &models.SubmissionFile{
		AssignmentID: msg.Fields["assignmentId"],
		StudentID:    msg.Fields["studentId"],
		Path:         msg.Fields["path"],
		Content:      content,
	}, nil
}
