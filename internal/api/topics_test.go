package api

import (
	"net/http"
	"testing"

	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListTopics(t *testing.T) {
	ts := newTestServer(t)
	ts.store.On("ListTopics", mock.Anything, "p1").Return([]models.Topic{
		{Name: "Trail Running", Queries: []string{"best trail shoes"}},
		{Name: "Hiking", Queries: []string{"best boots", "waterproof boots"}},
	}, nil)

	rec := ts.do("GET", "/api/topics/p1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Trail Running":["best trail shoes"],"Hiking":["best boots","waterproof boots"]}`, rec.Body.String())
}

func TestCreateTopic(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createErr      error
		expectCreate   bool
		expectedStatus int
	}{
		{
			name:           "Created",
			body:           `{"name":"Trail Running","queries":["best trail shoes"]}`,
			expectCreate:   true,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Duplicate name",
			body:           `{"name":"Trail Running"}`,
			createErr:      store.ErrConflict,
			expectCreate:   true,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Missing name",
			body:           `{"name":"  "}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.expectCreate {
				ts.store.On("GetProject", mock.Anything, "p1").Return(sampleProject(), nil)
				ts.store.On("CreateTopic", mock.Anything, mock.MatchedBy(func(topic *models.Topic) bool {
					return topic.ProjectID == "p1" && topic.Name == "Trail Running"
				})).Return(tt.createErr)
			}

			rec := ts.do("POST", "/api/topics/p1", tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestCreateTopic_UnknownProject(t *testing.T) {
	ts := newTestServer(t)
	ts.store.On("GetProject", mock.Anything, "nope").Return(nil, store.ErrNotFound)

	rec := ts.do("POST", "/api/topics/nope", `{"name":"Hiking"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplaceQueries(t *testing.T) {
	ts := newTestServer(t)
	queries := []string{"best road shoes"}
	ts.store.On("ReplaceQueries", mock.Anything, "p1", "Road Running", queries).
		Return(&models.Topic{ProjectID: "p1", Name: "Road Running", Queries: queries}, nil)

	rec := ts.do("PUT", "/api/topics/p1", `{"name":"Road Running","queries":["best road shoes"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAppendQueries(t *testing.T) {
	t.Run("Appended", func(t *testing.T) {
		ts := newTestServer(t)
		ts.store.On("AppendQueries", mock.Anything, "p1", "Hiking", []string{"light boots"}).
			Return(&models.Topic{Name: "Hiking", Queries: []string{"best boots", "light boots"}}, nil)

		rec := ts.do("POST", "/api/topics/p1/Hiking/queries", `{"queries":["light boots"]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Empty list", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do("POST", "/api/topics/p1/Hiking/queries", `{"queries":[]}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteTopic(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "Name in path", path: "/api/topics/p1/Hiking"},
		{name: "Name in query string", path: "/api/topics/p1?name=Hiking"},
		{name: "Name in body", path: "/api/topics/p1", body: `{"name":"Hiking"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.store.On("DeleteTopic", mock.Anything, "p1", "Hiking").Return(nil)

			rec := ts.do("DELETE", tt.path, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestDeleteTopic_MissingName(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do("DELETE", "/api/topics/p1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
