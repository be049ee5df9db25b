package models

import "time"

// Submission is one student's set of source files, keyed by relative path.
// It is read-only once loaded.
type Submission struct {
	ID    string            `bson:"studentId" json:"studentId"`
	Files map[string]string `bson:"files" json:"files"`
}

// Lookup returns the content of path, or an absent Content when the
// submission has no such file.
func (s Submission) Lookup(path string) Content {
	text, ok := s.Files[path]
	if !ok {
		return Absent()
	}
	return Present(text)
}

// Content is the result of a single file lookup. A missing file and an empty
// file are different things.
type Content struct {
	Text    string
	Present bool
}

func Present(text string) Content {
	return Content{Text: text, Present: true}
}

func Absent() Content {
	return Content{}
}

// FileSpec names a file to compare and its weight in the pair's overall score.
type FileSpec struct {
	Path   string  `json:"path" yaml:"path"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// SubmissionFile is a single stored file of a student's submission
type SubmissionFile struct {
	StudentID    string    `bson:"studentId" json:"studentId"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	Path         string    `bson:"path" json:"path"`
	Content      string    `bson:"content" json:"content"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
