package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/codesim/internal/config"
	"github.com/RishiKendai/codesim/internal/models"
	"github.com/RishiKendai/codesim/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakeAnalyzer struct {
	mu       sync.Mutex
	requests []plagiarism.Request
	report   *models.SimilarityReport
	err      error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, req plagiarism.Request) (*models.SimilarityReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	return a.report, a.err
}

type fakeStudents map[string][]string

func (s fakeStudents) ListStudents(_ context.Context, assignmentID string) ([]string, error) {
	return s[assignmentID], nil
}

type fakeStatus struct {
	mu    sync.Mutex
	steps map[string][]models.Step
}

func (s *fakeStatus) Update(_ context.Context, assignmentID string, step models.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[assignmentID] = append(s.steps[assignmentID], step)
	return nil
}

func (s *fakeStatus) Get(_ context.Context, assignmentID string) (models.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps := s.steps[assignmentID]
	if len(steps) == 0 {
		return models.StepIdle, nil
	}
	return steps[len(steps)-1], nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            testSecret,
		JWTIssuer:            "codesim",
		RateLimitRPS:         100,
		MaxConcurrentCompute: 2,
		ComputationTimeout:   time.Minute,
		SimilarityThreshold:  80,
	}
}

func testToken(t *testing.T, issuer string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":     issuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"api_key": "grader",
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type testServer struct {
	router   *gin.Engine
	analyzer *fakeAnalyzer
	status   *fakeStatus
	token    string
}

func newTestServer(t *testing.T, analyzer *fakeAnalyzer) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	status := &fakeStatus{steps: map[string][]models.Step{}}
	students := fakeStudents{"hw1": {"alice", "bob"}}
	router := SetupRoutes(t.Context(), testConfig(), func(string) Analyzer { return analyzer }, students, status)

	return &testServer{router: router, analyzer: analyzer, status: status, token: testToken(t, "codesim")}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})
	rec := srv.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong issuer", testToken(t, "someone-else")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(http.MethodGet, "/api/v1/status/hw1", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
		})
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("returns the report", func(t *testing.T) {
		report := &models.SimilarityReport{RunID: "run-1", TotalPairs: 1, Threshold: 80}
		srv := newTestServer(t, &fakeAnalyzer{report: report})

		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{
			AssignmentID: "hw1",
			ReferenceID:  "starter",
			Files:        []models.FileSpec{{Path: "main.go", Weight: 1}},
			Functions:    []string{"solve"},
		}, srv.token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.AnalyzeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, models.StepCompleted, resp.Step)
		require.NotNil(t, resp.Report)
		assert.Equal(t, "run-1", resp.Report.RunID)

		require.Len(t, srv.analyzer.requests, 1)
		req := srv.analyzer.requests[0]
		assert.Equal(t, []string{"alice", "bob"}, req.StudentIDs)
		assert.Equal(t, "starter", req.ReferenceID)
		assert.Equal(t, 80, req.Threshold)

		assert.Equal(t, []models.Step{models.StepInitiated, models.StepCompleted}, srv.status.steps["hw1"])
	})

	t.Run("explicit students and threshold", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{report: &models.SimilarityReport{}})

		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{
			AssignmentID: "hw1",
			StudentIDs:   []string{"carol"},
			Threshold:    60,
		}, srv.token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"carol"}, srv.analyzer.requests[0].StudentIDs)
		assert.Equal(t, 60, srv.analyzer.requests[0].Threshold)
	})

	t.Run("invalid body", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{})
		rec := srv.do(http.MethodPost, "/api/v1/analyze", map[string]string{"studentIds": "x"}, srv.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)
	})

	t.Run("negative weight", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{})
		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{
			AssignmentID: "hw1",
			Files:        []models.FileSpec{{Path: "main.go", Weight: -1}},
		}, srv.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, srv.analyzer.requests)
	})

	t.Run("nothing to analyze", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{err: plagiarism.ErrNothingToAnalyze})
		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{AssignmentID: "empty"}, srv.token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "NOTHING_TO_ANALYZE", decodeError(t, rec).Code)
		assert.Equal(t, []models.Step{models.StepInitiated, models.StepFailed}, srv.status.steps["empty"])
	})

	t.Run("analysis failure", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{err: errors.New("boom")})
		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{AssignmentID: "hw1"}, srv.token)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := newTestServer(t, &fakeAnalyzer{err: context.DeadlineExceeded})
		rec := srv.do(http.MethodPost, "/api/v1/analyze", models.AnalyzeRequest{AssignmentID: "hw1"}, srv.token)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, "ANALYSIS_TIMEOUT", decodeError(t, rec).Code)
	})
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{})

	rec := srv.do(http.MethodGet, "/api/v1/status/hw1", nil, srv.token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"step":"idle"}`, rec.Body.String())

	require.NoError(t, srv.status.Update(context.Background(), "hw1", models.StepComparing))
	rec = srv.do(http.MethodGet, "/api/v1/status/hw1", nil, srv.token)
	assert.JSONEq(t, `{"step":"comparing"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(NewRateLimiter(1, 1)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimiterSweep(t *testing.T) {
	t.Parallel()

	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return clock }

	for i := range 100 {
		limiter.GetLimiter(fmt.Sprintf("10.0.0.%d", i))
	}
	require.Equal(t, 100, limiter.Size())

	clock = clock.Add(DefaultLimiterIdleTTL / 2)
	active := limiter.GetLimiter("10.0.0.7")
	assert.Equal(t, 0, limiter.Sweep())

	clock = clock.Add(DefaultLimiterIdleTTL/2 + time.Second)
	assert.Equal(t, 99, limiter.Sweep())
	assert.Equal(t, 1, limiter.Size())
	assert.Same(t, active, limiter.GetLimiter("10.0.0.7"))
}

func TestRateLimiterRunStopsWithContext(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		limiter.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop")
	}
}
