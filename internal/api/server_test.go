package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/azure/brand-visibility-bot/internal/analysis"
	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

type testServer struct {
	server    *Server
	store     *MockStore
	analyzer  *MockAnalyzer
	generator *MockGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		HistoryLimit:    30,
		AnalysisTimeout: time.Minute,
		CronSecret:      "cron-secret",
	}

	ts := &testServer{
		store:     new(MockStore),
		analyzer:  new(MockAnalyzer),
		generator: new(MockGenerator),
	}
	ts.server = NewServer(cfg, ts.store, ts.analyzer, ts.generator, nil, nil)
	ts.server.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		ts.store.AssertExpectations(t)
		ts.analyzer.AssertExpectations(t)
		ts.generator.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target))
}

func sampleProject() *models.Project {
	return &models.Project{
		ID:          "p1",
		Name:        "Outdoor",
		Brand:       "Salomon",
		Competitors: []string{"Nike"},
		Brands:      []string{"Salomon", "Nike"},
	}
}

func sampleRun(id string, timestamp time.Time, response string) models.AnalysisResult {
	return models.AnalysisResult{
		ID:        id,
		ProjectID: "p1",
		Timestamp: timestamp,
		Results: map[string]models.TopicResult{
			"trail-running": {Queries: []models.QueryResult{{
				Query:         "best trail shoes",
				Response:      response,
				BrandMentions: visibility.DetectMentions(response, []string{"Salomon", "Nike"}),
			}}},
		},
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "Missing record", err: fmt.Errorf("project p1: %w", store.ErrNotFound), expected: http.StatusNotFound},
		{name: "Missing archive blob", err: storage.ErrNotFound, expected: http.StatusNotFound},
		{name: "Duplicate topic", err: store.ErrConflict, expected: http.StatusConflict},
		{name: "Nothing to run", err: analysis.ErrNoQueries, expected: http.StatusBadRequest},
		{name: "Bad generator input", err: querygen.ErrInvalidInput, expected: http.StatusBadRequest},
		{name: "Every query failed", err: analysis.ErrNoAnswers, expected: http.StatusBadGateway},
		{name: "Model timeout", err: llm.ErrTimeout, expected: http.StatusBadGateway},
		{name: "Rate limited", err: llm.ErrRateLimited, expected: http.StatusBadGateway},
		{name: "Anything else", err: errors.New("connection reset"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusFor(tt.err))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("GET", "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, testNow.Format(time.RFC3339), body["timestamp"])
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.analyzer.On("GetMetrics").Return(`{"total_runs":2}`)

	rec := ts.do("GET", "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_runs":2}`, rec.Body.String())
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	ts := newTestServer(t)
	ts.store.On("ListProjects", mock.Anything).Return(nil, errors.New("password authentication failed"))

	rec := ts.do("GET", "/api/projects", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "Failed to list projects")
}
