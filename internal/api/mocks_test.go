package api

import (
	"context"

	"github.com/azure/brand-visibility-bot/internal/analysis"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/querygen"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of store.StoreInterface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateProject(ctx context.Context, project *models.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	projects, _ := args.Get(0).([]models.Project)
	return projects, args.Error(1)
}

func (m *MockStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	args := m.Called(ctx, id)
	project, _ := args.Get(0).(*models.Project)
	return project, args.Error(1)
}

func (m *MockStore) UpdateCompetitors(ctx context.Context, id string, competitors []string) (*models.Project, error) {
	args := m.Called(ctx, id, competitors)
	project, _ := args.Get(0).(*models.Project)
	return project, args.Error(1)
}

func (m *MockStore) DeleteProject(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) ListTopics(ctx context.Context, projectID string) ([]models.Topic, error) {
	args := m.Called(ctx, projectID)
	topics, _ := args.Get(0).([]models.Topic)
	return topics, args.Error(1)
}

func (m *MockStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	args := m.Called(ctx, topic)
	return args.Error(0)
}

func (m *MockStore) ReplaceQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error) {
	args := m.Called(ctx, projectID, name, queries)
	topic, _ := args.Get(0).(*models.Topic)
	return topic, args.Error(1)
}

func (m *MockStore) AppendQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error) {
	args := m.Called(ctx, projectID, name, queries)
	topic, _ := args.Get(0).(*models.Topic)
	return topic, args.Error(1)
}

func (m *MockStore) DeleteTopic(ctx context.Context, projectID, name string) error {
	args := m.Called(ctx, projectID, name)
	return args.Error(0)
}

func (m *MockStore) AppendAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockStore) ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.AnalysisResult, error) {
	args := m.Called(ctx, projectID, limit)
	history, _ := args.Get(0).([]models.AnalysisResult)
	return history, args.Error(1)
}

func (m *MockStore) LatestAnalysis(ctx context.Context, projectID string) (*models.AnalysisResult, error) {
	args := m.Called(ctx, projectID)
	result, _ := args.Get(0).(*models.AnalysisResult)
	return result, args.Error(1)
}

// MockAnalyzer is a mock implementation of AnalyzerInterface
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) RunProject(ctx context.Context, projectID string) (*analysis.RunOutcome, error) {
	args := m.Called(ctx, projectID)
	outcome, _ := args.Get(0).(*analysis.RunOutcome)
	return outcome, args.Error(1)
}

func (m *MockAnalyzer) RunAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAnalyzer) AnalyzeQuery(ctx context.Context, query string, brands []string) (*models.QueryResult, error) {
	args := m.Called(ctx, query, brands)
	result, _ := args.Get(0).(*models.QueryResult)
	return result, args.Error(1)
}

func (m *MockAnalyzer) SaveResults(ctx context.Context, projectID string, results map[string]models.TopicResult) (*models.AnalysisResult, error) {
	args := m.Called(ctx, projectID, results)
	result, _ := args.Get(0).(*models.AnalysisResult)
	return result, args.Error(1)
}

func (m *MockAnalyzer) GetMetrics() string {
	args := m.Called()
	return args.String(0)
}

// MockGenerator is a mock implementation of GeneratorInterface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req querygen.Request) (map[string][]string, error) {
	args := m.Called(ctx, req)
	queries, _ := args.Get(0).(map[string][]string)
	return queries, args.Error(1)
}

// MockCache is a mock implementation of cache.CacheInterface
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	args := m.Called(ctx, key, target)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// MockArchive is a mock implementation of storage.StorageInterface
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Store(ctx context.Context, name string, data []byte) error {
	args := m.Called(ctx, name, data)
	return args.Error(0)
}

func (m *MockArchive) Retrieve(ctx context.Context, name string) ([]byte, error) {
	args := m.Called(ctx, name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockArchive) List(ctx context.Context, prefix string) ([]storage.Object, error) {
	args := m.Called(ctx, prefix)
	objects, _ := args.Get(0).([]storage.Object)
	return objects, args.Error(1)
}

func (m *MockArchive) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
