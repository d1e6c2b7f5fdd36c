package store

import (
	"context"
	"errors"

	"github.com/azure/brand-visibility-bot/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record collides with an existing one
	ErrConflict = errors.New("record already exists")
)

// StoreInterface defines the contract for the record store
type StoreInterface interface {
	CreateProject(ctx context.Context, project *models.Project) error
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateCompetitors(ctx context.Context, id string, competitors []string) (*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTopics(ctx context.Context, projectID string) ([]models.Topic, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error
	ReplaceQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error)
	AppendQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error)
	DeleteTopic(ctx context.Context, projectID, name string) error

	// AppendAnalysis inserts a new run; earlier runs are never overwritten
	AppendAnalysis(ctx context.Context, result *models.AnalysisResult) error
	// ListAnalyses returns up to limit runs, most recent first
	ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.AnalysisResult, error)
	LatestAnalysis(ctx context.Context, projectID string) (*models.AnalysisResult, error)
}
