package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func cronRequest(ts *testServer, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/cron/daily-analysis", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func TestCron_Unauthorized(t *testing.T) {
	tests := []struct {
		name          string
		secret        string
		authorization string
	}{
		{name: "Missing header", secret: "cron-secret"},
		{name: "Wrong token", secret: "cron-secret", authorization: "Bearer guess"},
		{name: "Token without scheme", secret: "cron-secret", authorization: "cron-secret"},
		{name: "No secret configured", secret: "", authorization: "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.server.config.CronSecret = tt.secret

			rec := cronRequest(ts, tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCron_StartsDailyAnalysis(t *testing.T) {
	ts := newTestServer(t)
	done := make(chan struct{})
	ts.analyzer.On("RunAll", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		close(done)
	})

	rec := cronRequest(ts, "Bearer cron-secret")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"message":"Daily analysis started"}`, rec.Body.String())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daily analysis was not started")
	}
	assert.Eventually(t, func() bool { return !ts.server.cronRunning.Load() }, time.Second, 10*time.Millisecond)
}

func TestCron_AlreadyRunning(t *testing.T) {
	ts := newTestServer(t)
	ts.server.cronRunning.Store(true)

	rec := cronRequest(ts, "Bearer cron-secret")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQueryGenerator(t *testing.T) {
	t.Run("Generated", func(t *testing.T) {
		ts := newTestServer(t)
		req := querygen.Request{Brand: "Salomon", Competitors: []string{"Nike"}, Keywords: []string{"trail running"}, Language: "sv"}
		ts.generator.On("Generate", mock.Anything, req).
			Return(map[string][]string{"trail running": {"bästa trailskor"}}, nil)

		rec := ts.do("POST", "/api/query-generator",
			`{"brand":"Salomon","competitors":["Nike"],"keywords":["trail running"],"language":"sv"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"trail running":["bästa trailskor"]}`, rec.Body.String())
	})

	t.Run("Invalid input", func(t *testing.T) {
		ts := newTestServer(t)
		ts.generator.On("Generate", mock.Anything, mock.Anything).Return(nil, querygen.ErrInvalidInput)

		rec := ts.do("POST", "/api/query-generator", `{"brand":""}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
