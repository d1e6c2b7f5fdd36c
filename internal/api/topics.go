package api

import (
	"net/http"
	"strings"

	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/gorilla/mux"
)

type topicRequest struct {
	Name    string   `json:"name"`
	Queries []string `json:"queries"`
}

type queriesRequest struct {
	Queries []string `json:"queries"`
}

// listTopicsHandler answers with a topic name to queries map
func (s *Server) listTopicsHandler(w http.ResponseWriter, r *http.Request) {
	topics, err := s.store.ListTopics(r.Context(), mux.Vars(r)["projectId"])
	if err != nil {
		writeFailure(w, err, "fetch topics")
		return
	}

	byName := make(map[string][]string, len(topics))
	for _, topic := range topics {
		byName[topic.Name] = topic.Queries
	}
	writeJSON(w, http.StatusOK, byName)
}

func (s *Server) createTopicHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req topicRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name = strings.TrimSpace(req.Name); req.Name == "" {
		writeError(w, http.StatusBadRequest, "Topic name is required")
		return
	}

	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeFailure(w, err, "create topic")
		return
	}

	topic := &models.Topic{ProjectID: projectID, Name: req.Name, Queries: req.Queries}
	if err := s.store.CreateTopic(r.Context(), topic); err != nil {
		writeFailure(w, err, "create topic")
		return
	}

	s.invalidate(r.Context(), projectID)
	writeJSON(w, http.StatusCreated, topic)
}

func (s *Server) replaceQueriesHandler(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var req topicRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Topic name and queries are required")
		return
	}

	topic, err := s.store.ReplaceQueries(r.Context(), projectID, strings.TrimSpace(req.Name), req.Queries)
	if err != nil {
		writeFailure(w, err, "update topic")
		return
	}

	s.invalidate(r.Context(), projectID)
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) appendQueriesHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req queriesRequest
	if err := decodeBody(r, &req); err != nil || len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "At least one query is required")
		return
	}

	topic, err := s.store.AppendQueries(r.Context(), vars["projectId"], vars["topicName"], req.Queries)
	if err != nil {
		writeFailure(w, err, "add queries")
		return
	}

	s.invalidate(r.Context(), vars["projectId"])
	writeJSON(w, http.StatusOK, topic)
}

// deleteTopicHandler takes the topic name from the path, the name query
// parameter or a JSON body, in that order
func (s *Server) deleteTopicHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["topicName"]
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if name == "" && r.ContentLength != 0 {
		var req topicRequest
		if err := decodeBody(r, &req); err == nil {
			name = req.Name
		}
	}
	if name = strings.TrimSpace(name); name == "" {
		writeError(w, http.StatusBadRequest, "Topic name is required")
		return
	}

	if err := s.store.DeleteTopic(r.Context(), vars["projectId"], name); err != nil {
		writeFailure(w, err, "delete topic")
		return
	}

	s.invalidate(r.Context(), vars["projectId"])
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
