package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepInitiated Step = "initiated"
	StepLoading   Step = "loading"
	StepComparing Step = "comparing"
	StepDetecting Step = "detecting"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// PairKey identifies an unordered pair of students. A is always the
// lexically smaller ID.
type PairKey struct {
	A string `json:"studentA"`
	B string `json:"studentB"`
}

// NewPairKey orders the two IDs so that {x, y} and {y, x} produce the same key.
func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

func (k PairKey) String() string {
	return k.A + ":" + k.B
}

// FileScore is the per-file part of a comparison
type FileScore struct {
	Path       string  `json:"path"`
	Score      int     `json:"score"`
	Weight     float64 `json:"weight"`
	Comparable bool    `json:"comparable"`
}

// ComparisonResult is the similarity of one unordered pair of submissions.
// A result that is not Comparable always has Score 0 and must not be
// counted as "0% similar".
type ComparisonResult struct {
	StudentA   string      `json:"studentA"`
	StudentB   string      `json:"studentB"`
	Score      int         `json:"score"`
	Comparable bool        `json:"comparable"`
	Files      []FileScore `json:"files"`
}

func (r ComparisonResult) Key() PairKey {
	return NewPairKey(r.StudentA, r.StudentB)
}

// DefaultImplementationFinding records which functions of a student's code
// are unmodified copies of the reference implementation.
type DefaultImplementationFinding struct {
	StudentID        string         `json:"studentId"`
	MatchedFunctions []string       `json:"matchedFunctions"`
	WholeFile        bool           `json:"wholeFile"`
	Score            int            `json:"score"`
	FunctionScores   map[string]int `json:"functionScores,omitempty"`
}

// SimilarityReport is the output of one analysis run. Pairs never reached
// because of an early exit are absent from Comparisons; EvaluatedPairs <
// TotalPairs tells consumers that happened.
type SimilarityReport struct {
	RunID                  string                                  `json:"runId"`
	AssignmentID           string                                  `json:"assignmentId,omitempty"`
	StudentIDs             []string                                `json:"studentIds"`
	Comparisons            []ComparisonResult                      `json:"comparisons"`
	Matrix                 [][]int                                 `json:"matrix"`
	HighSimilarity         []ComparisonResult                      `json:"highSimilarity"`
	Threshold              int                                     `json:"threshold"`
	AverageSimilarity      float64                                 `json:"averageSimilarity"`
	SimilarityStdDev       float64                                 `json:"similarityStdDev"`
	ComparableCount        int                                     `json:"comparableCount"`
	TotalPairs             int                                     `json:"totalPairs"`
	EvaluatedPairs         int                                     `json:"evaluatedPairs"`
	EarlyExit              bool                                    `json:"earlyExit"`
	EarlyExitPair          *PairKey                                `json:"earlyExitPair,omitempty"`
	DefaultImplementations map[string]DefaultImplementationFinding `json:"defaultImplementations"`
	Status                 string                                  `json:"status"`
	CreatedAt              time.Time                               `json:"createdAt"`
}

// AnalyzeRequest represents a request to analyze an assignment
type AnalyzeRequest struct {
	AssignmentID  string     `json:"assignmentId" binding:"required"`
	StudentIDs    []string   `json:"studentIds"`
	ReferenceID   string     `json:"referenceId"`
	Files         []FileSpec `json:"files"`
	ReferenceFile string     `json:"referenceFile"`
	Functions     []string   `json:"functions"`
	Threshold     int        `json:"threshold"`
}

// AnalyzeResponse wraps the report returned by the analyze endpoint
type AnalyzeResponse struct {
	Step   Step              `json:"step"`
	Report *SimilarityReport `json:"report,omitempty"`
}
