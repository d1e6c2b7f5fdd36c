package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type analyzeRequest struct {
	Query  string   `json:"query"`
	Brands []string `json:"brands"`
}

type analyzeResponse struct {
	Response      string                `json:"response"`
	BrandMentions []models.BrandMention `json:"brandMentions"`
}

type saveAnalysisRequest struct {
	Results map[string]models.TopicResult `json:"results"`
}

type historyPoint struct {
	Timestamp time.Time                     `json:"timestamp"`
	Results   map[string]models.TopicResult `json:"results"`
	Data      map[string]int                `json:"data"`
}

type analysisResponse struct {
	models.AnalysisResult
	History []historyPoint `json:"history"`
}

type latestResponse struct {
	Results         map[string]models.TopicResult `json:"results"`
	Timestamp       *time.Time                    `json:"timestamp"`
	VisibilityScore float64                       `json:"visibilityScore"`
	Message         string                        `json:"message,omitempty"`
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query = strings.TrimSpace(req.Query); req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result, err := s.analyzer.AnalyzeQuery(r.Context(), req.Query, req.Brands)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			logrus.Errorf("Failed to analyze query: %v", err)
			writeError(w, http.StatusBadGateway, "An error occurred processing your request")
			return
		}
		writeFailure(w, err, "analyze query")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Response: result.Response, BrandMentions: result.BrandMentions})
}

// runAnalysisHandler runs the whole battery for a project. A client that
// disconnects stops further submissions; answers obtained so far are still saved.
func (s *Server) runAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.AnalysisTimeout)
	defer cancel()

	outcome, err := s.analyzer.RunProject(ctx, mux.Vars(r)["projectId"])
	if err != nil {
		writeFailure(w, err, "run analysis")
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) saveAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req saveAnalysisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.analyzer.SaveResults(r.Context(), mux.Vars(r)["projectId"], req.Results)
	if err != nil {
		writeFailure(w, err, "save analysis results")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// getAnalysisHandler answers with the latest run plus up to HISTORY_LIMIT runs
// in chronological order, or null when the project has none
func (s *Server) getAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.ListAnalyses(r.Context(), mux.Vars(r)["projectId"], s.config.HistoryLimit)
	if err != nil {
		writeFailure(w, err, "fetch analysis results")
		return
	}
	if len(history) == 0 {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	chronological := visibility.Chronological(history)
	points := make([]historyPoint, 0, len(chronological))
	for _, run := range chronological {
		points = append(points, historyPoint{Timestamp: run.Timestamp, Results: run.Results, Data: run.Data})
	}

	writeJSON(w, http.StatusOK, analysisResponse{
		AnalysisResult: *visibility.Latest(history),
		History:        points,
	})
}

func (s *Server) latestAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeFailure(w, err, "fetch latest analysis")
		return
	}

	latest, err := s.store.LatestAnalysis(r.Context(), projectID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, latestResponse{
			Results: map[string]models.TopicResult{},
			Message: "No analysis results found",
		})
		return
	}
	if err != nil {
		writeFailure(w, err, "fetch latest analysis")
		return
	}

	timestamp := latest.Timestamp
	writeJSON(w, http.StatusOK, latestResponse{
		Results:         latest.Results,
		Timestamp:       &timestamp,
		VisibilityScore: visibility.OverallScore(latest, project.Brand),
	})
}

func (s *Server) listArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "Run archive is not configured")
		return
	}

	objects, err := s.archive.List(r.Context(), storage.ProjectPrefix(mux.Vars(r)["projectId"]))
	if err != nil {
		writeFailure(w, err, "list archived runs")
		return
	}
	if objects == nil {
		objects = []storage.Object{}
	}
	writeJSON(w, http.StatusOK, objects)
}

func (s *Server) getArchiveHandler(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "Run archive is not configured")
		return
	}

	vars := mux.Vars(r)
	name := vars["name"]
	if !strings.HasPrefix(name, storage.ProjectPrefix(vars["projectId"])) {
		name = storage.ProjectPrefix(vars["projectId"]) + name
	}

	data, err := s.archive.Retrieve(r.Context(), name)
	if err != nil {
		writeFailure(w, err, "fetch archived run")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
