package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/RishiKendai/codesim/internal/config"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/RishiKendai/codesim/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Analyzer runs one similarity analysis
type Analyzer interface {
	Analyze(ctx context.Context, req plagiarism.Request) (*models.SimilarityReport, error)
}

// AnalyzerFactory builds an Analyzer scoped to one assignment's submissions
type AnalyzerFactory func(assignmentID string) Analyzer

// StudentLister enumerates the students that submitted to an assignment
type StudentLister interface {
	ListStudents(ctx context.Context, assignmentID string) ([]string, error)
}

// StatusStore records and reports the step of an assignment's analysis
type StatusStore interface {
	Update(ctx context.Context, assignmentID string, step models.Step) error
	Get(ctx context.Context, assignmentID string) (models.Step, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	cfg            *config.Config
	analyzers      AnalyzerFactory
	students       StudentLister
	status         StatusStore
	computeSem     chan struct{} // Semaphore for bounded concurrency
	computeTimeout time.Duration
}

func NewHandler(
	cfg *config.Config,
	analyzers AnalyzerFactory,
	students StudentLister,
	status StatusStore,
) *Handler {
	// Create semaphore for bounded concurrency
	sem := make(chan struct{}, cfg.MaxConcurrentCompute)

	return &Handler{
		cfg:            cfg,
		analyzers:      analyzers,
		students:       students,
		status:         status,
		computeSem:     sem,
		computeTimeout: cfg.ComputationTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Analyze compares every submission of the assignment and returns the report
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if err := validateAnalyzeRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_REQUEST",
		})
		return
	}

	ctx := c.Request.Context()

	studentIDs := req.StudentIDs
	if len(studentIDs) == 0 {
		listed, err := h.students.ListStudents(ctx, req.AssignmentID)
		if err != nil {
			log.Error().Err(err).Str("assignmentId", req.AssignmentID).Msg("Failed to list students")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error: "Failed to list submissions",
				Code:  "INTERNAL_ERROR",
			})
			return
		}
		studentIDs = listed
	}

	// Acquire semaphore (bounded concurrency)
	select {
	case h.computeSem <- struct{}{}:
		defer func() { <-h.computeSem }()
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.computeTimeout)
	defer cancel()

	h.setStatus(ctx, req.AssignmentID, models.StepInitiated)

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = h.cfg.SimilarityThreshold
	}

	report, err := h.analyzers(req.AssignmentID).Analyze(ctx, plagiarism.Request{
		AssignmentID:  req.AssignmentID,
		StudentIDs:    studentIDs,
		Files:         req.Files,
		ReferenceID:   req.ReferenceID,
		ReferenceFile: req.ReferenceFile,
		Functions:     req.Functions,
		Threshold:     threshold,
	})
	if err != nil {
		h.failAnalysis(c, req.AssignmentID, report, err)
		return
	}

	h.setStatus(ctx, req.AssignmentID, models.StepCompleted)

	c.JSON(http.StatusOK, models.AnalyzeResponse{
		Step:   models.StepCompleted,
		Report: report,
	})
}

// failAnalysis maps an analysis error to a response. partial may be nil.
func (h *Handler) failAnalysis(c *gin.Context, assignmentID string, partial *models.SimilarityReport, err error) {
	// the request context may already be done
	h.setStatus(context.Background(), assignmentID, models.StepFailed)

	switch {
	case errors.Is(err, plagiarism.ErrNothingToAnalyze):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "NOTHING_TO_ANALYZE",
		})
	case errors.Is(err, context.DeadlineExceeded):
		event := log.Warn().Err(err).Str("assignmentId", assignmentID)
		if partial != nil {
			event = event.Int("evaluated", partial.EvaluatedPairs).Int("total", partial.TotalPairs)
		}
		event.Msg("Analysis timed out")
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error: "Analysis timed out",
			Code:  "ANALYSIS_TIMEOUT",
		})
	default:
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Analysis failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Analysis failed",
			Code:  "INTERNAL_ERROR",
		})
	}
}

// Status returns the current step of an assignment's analysis
func (h *Handler) Status(c *gin.Context) {
	assignmentID := c.Param("assignmentId")

	step, err := h.status.Get(c.Request.Context(), assignmentID)
	if err != nil {
		log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Failed to read status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to read status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.AnalyzeResponse{Step: step})
}

func (h *Handler) setStatus(ctx context.Context, assignmentID string, step models.Step) {
	if err := h.status.Update(ctx, assignmentID, step); err != nil {
		log.Warn().Err(err).
			Str("assignmentId", assignmentID).
			Str("step", string(step)).
			Msg("Failed to update status")
	}
}

func validateAnalyzeRequest(req models.AnalyzeRequest) error {
	if req.AssignmentID == "" {
		return errors.New("assignmentId is required")
	}
	if req.Threshold < 0 || req.Threshold > 100 {
		return errors.New("threshold must be between 0 and 100")
	}
	for _, file := range req.Files {
		if file.Path == "" {
			return errors.New("file path is required")
		}
		if file.Weight < 0 {
			return errors.New("file weight must not be negative")
		}
	}
	return nil
}
