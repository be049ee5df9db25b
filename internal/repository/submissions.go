package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/RishiKendai/codesim/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const submissionFilesCollection = "submission_files"

// SubmissionsRepository stores one document per (assignment, student, path)
type SubmissionsRepository struct {
	mongoRepo *MongoRepository
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *SubmissionsRepository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "assignmentId", Value: 1},
			{Key: "studentId", Value: 1},
			{Key: "path", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if err := r.mongoRepo.EnsureIndex(ctx, submissionFilesCollection, model); err != nil {
		return fmt.Errorf("failed to create submission index: %w", err)
	}
	return nil
}

// UpsertFile stores the file, replacing any earlier version of the same path
func (r *SubmissionsRepository) UpsertFile(ctx context.Context, file *models.SubmissionFile) error {
	file.UpdatedAt = time.Now()

	filter := bson.M{
		"assignmentId": file.AssignmentID,
		"studentId":    file.StudentID,
		"path":         file.Path,
	}
	update := bson.M{"$set": file}

	if err := r.mongoRepo.UpsertOne(ctx, submissionFilesCollection, filter, update); err != nil {
		return fmt.Errorf("failed to upsert submission file: %w", err)
	}
	return nil
}

func (r *SubmissionsRepository) GetFile(ctx context.Context, assignmentID, studentID, path string) (models.Content, error) {
	filter := bson.M{
		"assignmentId": assignmentID,
		"studentId":    studentID,
		"path":         path,
	}

	var file models.SubmissionFile
	err := r.mongoRepo.FindOne(ctx, submissionFilesCollection, filter).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Absent(), nil
	}
	if err != nil {
		return models.Absent(), fmt.Errorf("failed to find submission file: %w", err)
	}

	return models.Present(file.Content), nil
}

func (r *SubmissionsRepository) ListPaths(ctx context.Context, assignmentID, studentID string) ([]string, error) {
	filter := bson.M{"assignmentId": assignmentID, "studentId": studentID}
	return r.distinctStrings(ctx, "path", filter)
}

func (r *SubmissionsRepository) ListStudents(ctx context.Context, assignmentID string) ([]string, error) {
	filter := bson.M{"assignmentId": assignmentID}
	return r.distinctStrings(ctx, "studentId", filter)
}

func (r *SubmissionsRepository) distinctStrings(ctx context.Context, field string, filter bson.M) ([]string, error) {
	values, err := r.mongoRepo.Distinct(ctx, submissionFilesCollection, field, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", field, err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ForAssignment scopes the repository to one assignment so it can serve as
// the engine's content provider.
func (r *SubmissionsRepository) ForAssignment(assignmentID string) *AssignmentContent {
	return &AssignmentContent{repo: r, assignmentID: assignmentID}
}

type AssignmentContent struct {
	repo         *SubmissionsRepository
	assignmentID string
}

func (a *AssignmentContent) Content(ctx context.Context, studentID, path string) (models.Content, error) {
	return a.repo.GetFile(ctx, a.assignmentID, studentID, path)
}

func (a *AssignmentContent) Paths(ctx context.Context, studentID string) ([]string, error) {
	return a.repo.ListPaths(ctx, a.assignmentID, studentID)
}
