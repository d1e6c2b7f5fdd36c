package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/azure/brand-visibility-bot/internal/analysis"
	"github.com/azure/brand-visibility-bot/internal/cache"
	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AnalyzerInterface is the part of the analysis service the HTTP surface uses
type AnalyzerInterface interface {
	RunProject(ctx context.Context, projectID string) (*analysis.RunOutcome, error)
	RunAll(ctx context.Context) error
	AnalyzeQuery(ctx context.Context, query string, brands []string) (*models.QueryResult, error)
	SaveResults(ctx context.Context, projectID string, results map[string]models.TopicResult) (*models.AnalysisResult, error)
	GetMetrics() string
}

// GeneratorInterface generates brand-neutral queries
type GeneratorInterface interface {
	Generate(ctx context.Context, req querygen.Request) (map[string][]string, error)
}

// Server exposes projects, topics and analysis results over HTTP/JSON
type Server struct {
	config    *config.Config
	store     store.StoreInterface
	analyzer  AnalyzerInterface
	generator GeneratorInterface
	archive   storage.StorageInterface
	cache     cache.CacheInterface
	now       func() time.Time

	cronRunning atomic.Bool
}

// NewServer creates the HTTP surface. archive may be nil and viewCache
// defaults to a no-op cache.
func NewServer(cfg *config.Config, store store.StoreInterface, analyzer AnalyzerInterface,
	generator GeneratorInterface, archive storage.StorageInterface, viewCache cache.CacheInterface) *Server {
	if viewCache == nil {
		viewCache = cache.NoopCache{}
	}
	return &Server{
		config:    cfg,
		store:     store,
		analyzer:  analyzer,
		generator: generator,
		archive:   archive,
		cache:     viewCache,
		now:       time.Now,
	}
}

// Router builds the route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", s.metricsHandler).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/projects", s.listProjectsHandler).Methods("GET")
	api.HandleFunc("/projects", s.createProjectHandler).Methods("POST")
	api.HandleFunc("/projects/{projectId}", s.getProjectHandler).Methods("GET")
	api.HandleFunc("/projects/{projectId}", s.updateProjectHandler).Methods("PUT")
	api.HandleFunc("/projects/{projectId}", s.deleteProjectHandler).Methods("DELETE")

	api.HandleFunc("/topics/{projectId}", s.listTopicsHandler).Methods("GET")
	api.HandleFunc("/topics/{projectId}", s.createTopicHandler).Methods("POST")
	api.HandleFunc("/topics/{projectId}", s.replaceQueriesHandler).Methods("PUT")
	api.HandleFunc("/topics/{projectId}", s.deleteTopicHandler).Methods("DELETE")
	api.HandleFunc("/topics/{projectId}/{topicName}/queries", s.appendQueriesHandler).Methods("POST")
	api.HandleFunc("/topics/{projectId}/{topicName}", s.deleteTopicHandler).Methods("DELETE")

	api.HandleFunc("/analyze", s.analyzeHandler).Methods("POST")
	api.HandleFunc("/analysis/{projectId}/run", s.runAnalysisHandler).Methods("POST")
	api.HandleFunc("/analysis/{projectId}/latest", s.latestAnalysisHandler).Methods("GET")
	api.HandleFunc("/analysis/{projectId}/archive", s.listArchiveHandler).Methods("GET")
	api.HandleFunc("/analysis/{projectId}/archive/{name}", s.getArchiveHandler).Methods("GET")
	api.HandleFunc("/analysis/{projectId}", s.saveAnalysisHandler).Methods("POST")
	api.HandleFunc("/analysis/{projectId}", s.getAnalysisHandler).Methods("GET")

	api.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")
	api.HandleFunc("/monitoring/{projectId}", s.monitoringHandler).Methods("GET")

	api.HandleFunc("/query-generator", s.queryGeneratorHandler).Methods("POST")
	api.HandleFunc("/cron/daily-analysis", s.cronHandler).Methods("GET")

	return router
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.analyzer.GetMetrics()))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure maps a domain error to its status code. Server-side failures
// are logged and answered with a generic message.
func writeFailure(w http.ResponseWriter, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("Failed to %s: %v", action, err)
		writeError(w, status, "Failed to "+action)
		return
	}
	logrus.Debugf("Request to %s rejected with %d: %v", action, status, err)
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrNoQueries), errors.Is(err, querygen.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrNoAnswers),
		errors.Is(err, llm.ErrTimeout),
		errors.Is(err, llm.ErrRateLimited),
		errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llm.ErrNotConfigured):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// invalidate drops the cached views a change to the project makes stale
func (s *Server) invalidate(ctx context.Context, projectID string) {
	if err := s.cache.Delete(ctx, cache.ProjectKeys(projectID)...); err != nil {
		logrus.Warnf("Failed to invalidate cached views of project %s: %v", projectID, err)
	}
}
