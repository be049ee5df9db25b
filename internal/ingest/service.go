package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/RishiKendai/codesim/internal/models"
	"github.com/rs/zerolog/log"
)

// MaxFileSize caps a single stored file
const MaxFileSize = 1 << 20

var ErrInvalidSubmission = errors.New("invalid submission")

// FileStore persists submission files
type FileStore interface {
	UpsertFile(ctx context.Context, file *models.SubmissionFile) error
}

type Service struct {
	store FileStore
}

func NewService(store FileStore) *Service {
	return &Service{
		store: store,
	}
}

// ProcessSubmission validates a submitted file and stores it, replacing any
// earlier version of the same path.
func (s *Service) ProcessSubmission(ctx context.Context, file *models.SubmissionFile) error {
	if err := Validate(file); err != nil {
		return err
	}

	file.Path = CleanPath(file.Path)
	if err := s.store.UpsertFile(ctx, file); err != nil {
		return fmt.Errorf("failed to store submission file: %w", err)
	}

	log.Debug().
		Str("assignmentId", file.AssignmentID).
		Str("studentId", file.StudentID).
		Str("path", file.Path).
		Int("bytes", len(file.Content)).
		Msg("Stored submission file")

	return nil
}

func Validate(file *models.SubmissionFile) error {
	if file == nil {
		return fmt.Errorf("%w: empty message", ErrInvalidSubmission)
	}
	if file.AssignmentID == "" {
		return fmt.Errorf("%w: assignmentId is required", ErrInvalidSubmission)
	}
	if file.StudentID == "" {
		return fmt.Errorf("%w: studentId is required", ErrInvalidSubmission)
	}
	if CleanPath(file.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidSubmission)
	}
	if len(file.Content) > MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrInvalidSubmission, file.Path, len(file.Content), MaxFileSize)
	}
	return nil
}

// CleanPath normalizes a submitted path to a slash-separated path relative
// to the submission root. Parent references cannot climb above the root.
func CleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
