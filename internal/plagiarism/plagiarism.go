package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/RishiKendai/codesim/internal/metrics"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNothingToAnalyze is returned when a run has no submissions at all
var ErrNothingToAnalyze = errors.New("nothing to analyze: no submissions")

// ContentProvider supplies file text for a student. A missing file is
// reported as an absent Content, not an error; errors mean the lookup
// itself failed.
type ContentProvider interface {
	Content(ctx context.Context, studentID, path string) (models.Content, error)
}

// PathLister is implemented by providers that can enumerate a student's files
type PathLister interface {
	Paths(ctx context.Context, studentID string) ([]string, error)
}

// StatusFunc is told about each step of a run
type StatusFunc func(ctx context.Context, assignmentID string, step models.Step)

// Request describes one analysis run
type Request struct {
	AssignmentID string
	StudentIDs   []string
	Files        []models.FileSpec

	// ReferenceID selects the baseline submission; empty skips the
	// default-implementation check.
	ReferenceID string
	// ReferenceFile is the path compared against the baseline. Defaults to
	// the first entry of Files.
	ReferenceFile string
	Functions     []string

	Threshold int
}

// Engine loads submissions once, compares every pair and checks each
// submission against the reference implementation.
type Engine struct {
	submissions ContentProvider
	reference   ContentProvider
	pool        *WorkerPool
	scheduler   *Scheduler
	onStep      StatusFunc
}

func NewEngine(submissions, reference ContentProvider, pool *WorkerPool, batchSize int, earlyExit bool) *Engine {
	if reference == nil {
		reference = submissions
	}
	return &Engine{
		submissions: submissions,
		reference:   reference,
		pool:        pool,
		scheduler:   NewScheduler(pool, batchSize, earlyExit),
		onStep:      func(context.Context, string, models.Step) {},
	}
}

// WithStatus registers a callback for step transitions
func (e *Engine) WithStatus(fn StatusFunc) *Engine {
	if fn != nil {
		e.onStep = fn
	}
	return e
}

// Analyze runs one analysis. When the comparison phase is cancelled the
// partial report, marked failed, is returned together with the error.
func (e *Engine) Analyze(ctx context.Context, req Request) (*models.SimilarityReport, error) {
	started := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(started).Seconds())
	}()

	ids := uniqueIDs(req.StudentIDs, req.ReferenceID)
	if len(ids) == 0 {
		return nil, ErrNothingToAnalyze
	}

	e.onStep(ctx, req.AssignmentID, models.StepLoading)
	submissions, err := LoadSubmissions(ctx, e.submissions, ids, req.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	e.onStep(ctx, req.AssignmentID, models.StepComparing)
	acc, err := e.scheduler.Run(ctx, submissions, req.Files)
	if err != nil {
		// pairs finished before the cancellation are still reported
		report := e.newReport(req, ids, acc, nil)
		report.Status = string(models.StepFailed)
		return report, err
	}

	e.onStep(ctx, req.AssignmentID, models.StepDetecting)
	findings, err := e.detect(ctx, req, submissions)
	if err != nil {
		return nil, err
	}

	report := e.newReport(req, ids, acc, findings)

	log.Info().
		Str("assignmentId", req.AssignmentID).
		Str("runId", report.RunID).
		Int("submissions", len(submissions)).
		Int("evaluated", report.EvaluatedPairs).
		Int("total", report.TotalPairs).
		Int("highSimilarity", len(report.HighSimilarity)).
		Int("defaultImplementations", countFlagged(findings)).
		Bool("earlyExit", report.EarlyExit).
		Msg("Similarity analysis completed")

	return report, nil
}

func (e *Engine) newReport(req Request, ids []string, acc Accumulator, findings map[string]models.DefaultImplementationFinding) *models.SimilarityReport {
	report := BuildReport(acc, req.Threshold, findings)
	report.AssignmentID = req.AssignmentID
	report.StudentIDs = ids
	report.Matrix = BuildMatrix(acc.Results, ids)
	return report
}

// detect runs the reference check for every submission that has the
// reference file. Submissions without that file get no finding.
func (e *Engine) detect(ctx context.Context, req Request, submissions []models.Submission) (map[string]models.DefaultImplementationFinding, error) {
	findings := make(map[string]models.DefaultImplementationFinding)
	if req.ReferenceID == "" {
		return findings, nil
	}

	path := req.ReferenceFile
	if path == "" && len(req.Files) > 0 {
		path = req.Files[0].Path
	}
	if path == "" {
		log.Warn().Str("assignmentId", req.AssignmentID).Msg("No reference file configured, skipping reference check")
		return findings, nil
	}

	reference, err := e.reference.Content(ctx, req.ReferenceID, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference %s/%s: %w", req.ReferenceID, path, err)
	}
	if !reference.Present {
		log.Warn().
			Str("referenceId", req.ReferenceID).
			Str("path", path).
			Msg("Reference file missing, skipping reference check")
		return findings, nil
	}

	checked := make([]models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.Lookup(path).Present {
			checked = append(checked, submission)
		}
	}

	computations := make([]func() models.DefaultImplementationFinding, len(checked))
	for i, submission := range checked {
		computations[i] = func() models.DefaultImplementationFinding {
			finding := DetectDefaultImplementation(submission.Files[path], reference.Text, req.Functions)
			finding.StudentID = submission.ID
			return finding
		}
	}

	for _, finding := range RunBatch(e.pool, computations) {
		findings[finding.StudentID] = finding
		if finding.WholeFile || len(finding.MatchedFunctions) > 0 {
			metrics.DefaultImplementationCount.Inc()
		}
	}

	return findings, nil
}

// LoadSubmissions reads every file of every student exactly once. A lookup
// that fails is logged and treated as a missing file so one bad submission
// cannot abort the run. With no files listed, providers that implement
// PathLister are asked for each student's paths.
func LoadSubmissions(ctx context.Context, provider ContentProvider, ids []string, files []models.FileSpec) ([]models.Submission, error) {
	submissions := make([]models.Submission, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		paths, err := pathsFor(ctx, provider, id, files)
		if err != nil {
			log.Warn().Err(err).Str("studentId", id).Msg("Failed to list submission files")
		}

		submission := models.Submission{ID: id, Files: make(map[string]string, len(paths))}
		for _, path := range paths {
			content, err := provider.Content(ctx, id, path)
			if err != nil {
				log.Warn().Err(err).
					Str("studentId", id).
					Str("path", path).
					Msg("Failed to load file, treating as missing")
				continue
			}
			if content.Present {
				submission.Files[path] = content.Text
			}
		}

		submissions = append(submissions, submission)
	}

	return submissions, nil
}

func pathsFor(ctx context.Context, provider ContentProvider, id string, files []models.FileSpec) ([]string, error) {
	if len(files) > 0 {
		paths := make([]string, len(files))
		for i, file := range files {
			paths[i] = file.Path
		}
		return paths, nil
	}

	lister, ok := provider.(PathLister)
	if !ok {
		return nil, nil
	}
	return lister.Paths(ctx, id)
}

// uniqueIDs drops blanks, duplicates and the reference ID, and sorts the rest
func uniqueIDs(ids []string, exclude string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Strings(unique)
	return unique
}

func countFlagged(findings map[string]models.DefaultImplementationFinding) int {
	count := 0
	for _, finding := range findings {
		if finding.WholeFile || len(finding.MatchedFunctions) > 0 {
			count++
		}
	}
	return count
}
