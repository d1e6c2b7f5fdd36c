package api

import (
	"net/http"
	"strings"

	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/gorilla/mux"
)

type projectListItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

type createProjectRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
}

type updateProjectRequest struct {
	Competitors []string `json:"competitors"`
}

func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeFailure(w, err, "list projects")
		return
	}

	items := make([]projectListItem, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectListItem{ID: project.ID, Name: project.Name, Brand: project.Brand})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Brand = strings.TrimSpace(req.Brand)
	if req.Name == "" || req.Brand == "" {
		writeError(w, http.StatusBadRequest, "Project name and brand are required")
		return
	}

	project := &models.Project{
		ID:          strings.TrimSpace(req.ID),
		Name:        req.Name,
		Brand:       req.Brand,
		Competitors: competitorsOf(req.Brand, req.Competitors),
	}
	if err := s.store.CreateProject(r.Context(), project); err != nil {
		writeFailure(w, err, "create project")
		return
	}

	s.invalidate(r.Context(), project.ID)
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeFailure(w, err, "get project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// updateProjectHandler only changes competitors; name and brand are fixed at creation
func (s *Server) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req updateProjectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeFailure(w, err, "update project")
		return
	}

	project, err := s.store.UpdateCompetitors(r.Context(), projectID, competitorsOf(current.Brand, req.Competitors))
	if err != nil {
		writeFailure(w, err, "update project")
		return
	}

	s.invalidate(r.Context(), projectID)
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if err := s.store.DeleteProject(r.Context(), projectID); err != nil {
		writeFailure(w, err, "delete project")
		return
	}

	s.invalidate(r.Context(), projectID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// competitorsOf cleans a competitor list and drops entries equal to the primary brand
func competitorsOf(brand string, competitors []string) []string {
	brands := models.NormalizeBrands(brand, competitors)
	if len(brands) == 0 {
		return []string{}
	}
	return brands[1:]
}
