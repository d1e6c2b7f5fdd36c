package api

import (
	"net/http"

	"github.com/azure/brand-visibility-bot/internal/cache"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// dashboardHandler answers with one summary card per project
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var summaries []models.ProjectSummary
	if found, err := s.cache.Get(ctx, cache.DashboardKey, &summaries); err != nil {
		logrus.Warnf("Dashboard cache read failed: %v", err)
	} else if found {
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		writeFailure(w, err, "load dashboard")
		return
	}

	now := s.now()
	summaries = make([]models.ProjectSummary, 0, len(projects))
	for i := range projects {
		history, err := s.store.ListAnalyses(ctx, projects[i].ID, s.config.HistoryLimit)
		if err != nil {
			writeFailure(w, err, "load dashboard")
			return
		}
		summaries = append(summaries, visibility.Summarize(&projects[i], history, now))
	}

	if err := s.cache.Set(ctx, cache.DashboardKey, summaries); err != nil {
		logrus.Warnf("Dashboard cache write failed: %v", err)
	}
	writeJSON(w, http.StatusOK, summaries)
}

// monitoringHandler answers with the per-brand series and per-topic cards of a project
func (s *Server) monitoringHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := mux.Vars(r)["projectId"]
	key := cache.MonitoringKey(projectID)

	var cached models.Monitoring
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logrus.Warnf("Monitoring cache read failed: %v", err)
	} else if found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		writeFailure(w, err, "load monitoring")
		return
	}
	topics, err := s.store.ListTopics(ctx, projectID)
	if err != nil {
		writeFailure(w, err, "load monitoring")
		return
	}
	history, err := s.store.ListAnalyses(ctx, projectID, s.config.HistoryLimit)
	if err != nil {
		writeFailure(w, err, "load monitoring")
		return
	}

	view := visibility.Monitor(project, topics, history, s.now())
	if err := s.cache.Set(ctx, key, view); err != nil {
		logrus.Warnf("Monitoring cache write failed: %v", err)
	}
	writeJSON(w, http.StatusOK, view)
}
