package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/sirupsen/logrus"
)

// cronHandler starts the daily analysis of every project in the background.
// It requires Authorization: Bearer $CRON_SECRET and is disabled without a secret.
func (s *Server) cronHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if !s.cronRunning.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "Daily analysis is already running")
		return
	}

	go func() {
		defer s.cronRunning.Store(false)
		if err := s.analyzer.RunAll(context.Background()); err != nil {
			logrus.Errorf("Triggered daily analysis failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Daily analysis started"})
}

func (s *Server) authorizedCron(r *http.Request) bool {
	if s.config.CronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(s.config.CronSecret)) == 1
}

func (s *Server) queryGeneratorHandler(w http.ResponseWriter, r *http.Request) {
	var req querygen.Request
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	queries, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		writeFailure(w, err, "generate queries")
		return
	}
	writeJSON(w, http.StatusOK, queries)
}
