package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const uniqueViolation = "23505"

// PostgresStore keeps projects, topics and analysis runs in PostgreSQL
type PostgresStore struct {
	db *sqlx.DB
}

// Ensure PostgresStore implements StoreInterface
var _ StoreInterface = (*PostgresStore)(nil)

// Open connects to the database named by DATABASE_URL and applies the pool settings
func Open(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Connected to PostgreSQL")
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing connection pool
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate brings the schema up to date
func (s *PostgresStore) Migrate() error {
	return RunMigrations(s.db.DB)
}

// Ping checks that the database is reachable
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type projectRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Brand       string    `db:"brand"`
	Competitors []byte    `db:"competitors"`
	Brands      []byte    `db:"brands"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *projectRow) toModel() (*models.Project, error) {
	project := &models.Project{
		ID:        r.ID,
		Name:      r.Name,
		Brand:     r.Brand,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := decodeJSON(r.Competitors, &project.Competitors); err != nil {
		return nil, fmt.Errorf("failed to decode competitors of project %s: %w", r.ID, err)
	}
	if err := decodeJSON(r.Brands, &project.Brands); err != nil {
		return nil, fmt.Errorf("failed to decode brands of project %s: %w", r.ID, err)
	}
	if project.Competitors == nil {
		project.Competitors = []string{}
	}
	if len(project.Brands) == 0 {
		project.Brands = project.AllBrands()
	}
	return project, nil
}

type topicRow struct {
	ID        int64          `db:"id"`
	ProjectID string         `db:"project_id"`
	Name      string         `db:"name"`
	Queries   pq.StringArray `db:"queries"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *topicRow) toModel() models.Topic {
	queries := []string(r.Queries)
	if queries == nil {
		queries = []string{}
	}
	return models.Topic{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Name:      r.Name,
		Queries:   queries,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type analysisRow struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	Results   []byte    `db:"results"`
	Data      []byte    `db:"data"`
	Timestamp time.Time `db:"timestamp"`
}

func (r *analysisRow) toModel() (models.AnalysisResult, error) {
	result := models.AnalysisResult{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Timestamp: r.Timestamp,
	}
	if err := decodeJSON(r.Results, &result.Results); err != nil {
		return result, fmt.Errorf("failed to decode results of run %s: %w", r.ID, err)
	}
	if err := decodeJSON(r.Data, &result.Data); err != nil {
		return result, fmt.Errorf("failed to decode data of run %s: %w", r.ID, err)
	}
	if result.Results == nil {
		result.Results = map[string]models.TopicResult{}
	}
	if result.Data == nil {
		result.Data = models.MentionCounts(result.Results)
	}
	return result, nil
}

func decodeJSON(raw []byte, target interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint failure
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (s *PostgresStore) CreateProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Competitors == nil {
		project.Competitors = []string{}
	}
	project.Brands = project.AllBrands()

	competitors, err := json.Marshal(project.Competitors)
	if err != nil {
		return fmt.Errorf("failed to marshal competitors: %w", err)
	}
	brands, err := json.Marshal(project.Brands)
	if err != nil {
		return fmt.Errorf("failed to marshal brands: %w", err)
	}

	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO projects (id, name, brand, competitors, brands)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, project.ID, project.Name, project.Brand, competitors, brands).Scan(&project.CreatedAt, &project.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %s: %w", project.ID, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}

	return nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	var rows []projectRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, brand, competitors, brands, created_at, updated_at
		FROM projects
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]models.Project, 0, len(rows))
	for i := range rows {
		project, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var row projectRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, brand, competitors, brands, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return row.toModel()
}

// UpdateCompetitors replaces the competitor list; name and primary brand never change
func (s *PostgresStore) UpdateCompetitors(ctx context.Context, id string, competitors []string) (*models.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if competitors == nil {
		competitors = []string{}
	}
	project.Competitors = competitors
	project.Brands = project.AllBrands()

	competitorsJSON, err := json.Marshal(project.Competitors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal competitors: %w", err)
	}
	brandsJSON, err := json.Marshal(project.Brands)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brands: %w", err)
	}

	err = s.db.QueryRowxContext(ctx, `
		UPDATE projects
		SET competitors = $2, brands = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id, competitorsJSON, brandsJSON).Scan(&project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", id, err)
	}

	return project, nil
}

// DeleteProject removes the project together with its topics and runs
func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project %s: %w", id, err)
	}
	return expectAffected(res, fmt.Sprintf("project %s", id))
}

func (s *PostgresStore) ListTopics(ctx context.Context, projectID string) ([]models.Topic, error) {
	var rows []topicRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, project_id, name, queries, created_at, updated_at
		FROM topics
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics of project %s: %w", projectID, err)
	}

	topics := make([]models.Topic, 0, len(rows))
	for i := range rows {
		topics = append(topics, rows[i].toModel())
	}
	return topics, nil
}

func (s *PostgresStore) CreateTopic(ctx context.Context, topic *models.Topic) error {
	topic.Queries = trimQueries(topic.Queries)

	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO topics (project_id, name, queries)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, topic.ProjectID, topic.Name, pq.Array(topic.Queries)).Scan(&topic.ID, &topic.CreatedAt, &topic.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("topic %q: %w", topic.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert topic %q: %w", topic.Name, err)
	}
	return nil
}

func (s *PostgresStore) ReplaceQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error) {
	return s.updateTopic(ctx, `
		UPDATE topics SET queries = $3, updated_at = NOW()
		WHERE project_id = $1 AND name = $2
		RETURNING id, project_id, name, queries, created_at, updated_at
	`, projectID, name, pq.Array(trimQueries(queries)))
}

func (s *PostgresStore) AppendQueries(ctx context.Context, projectID, name string, queries []string) (*models.Topic, error) {
	return s.updateTopic(ctx, `
		UPDATE topics SET queries = queries || $3::text[], updated_at = NOW()
		WHERE project_id = $1 AND name = $2
		RETURNING id, project_id, name, queries, created_at, updated_at
	`, projectID, name, pq.Array(trimQueries(queries)))
}

func (s *PostgresStore) updateTopic(ctx context.Context, query, projectID, name string, queries interface{}) (*models.Topic, error) {
	var row topicRow
	err := s.db.GetContext(ctx, &row, query, projectID, name, queries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("topic %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update topic %q: %w", name, err)
	}
	topic := row.toModel()
	return &topic, nil
}

func (s *PostgresStore) DeleteTopic(ctx context.Context, projectID, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE project_id = $1 AND name = $2`, projectID, name)
	if err != nil {
		return fmt.Errorf("failed to delete topic %q: %w", name, err)
	}
	return expectAffected(res, fmt.Sprintf("topic %q", name))
}

func (s *PostgresStore) AppendAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	if result.Results == nil {
		result.Results = map[string]models.TopicResult{}
	}
	if result.Data == nil {
		result.Data = models.MentionCounts(result.Results)
	}

	results, err := json.Marshal(result.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	data, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal mention counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results (id, project_id, results, data, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, result.ID, result.ProjectID, results, data, result.Timestamp)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("project %s: %w", result.ProjectID, ErrNotFound)
		}
		return fmt.Errorf("failed to insert analysis result: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"project_id": result.ProjectID,
		"run_id":     result.ID,
		"queries":    result.TotalQueries(),
	}).Info("Stored analysis result")
	return nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, projectID string, limit int) ([]models.AnalysisResult, error) {
	var rows []analysisRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, project_id, results, data, timestamp
		FROM analysis_results
		WHERE project_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results of project %s: %w", projectID, err)
	}

	history := make([]models.AnalysisResult, 0, len(rows))
	for i := range rows {
		result, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		history = append(history, result)
	}
	return history, nil
}

func (s *PostgresStore) LatestAnalysis(ctx context.Context, projectID string) (*models.AnalysisResult, error) {
	var row analysisRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, project_id, results, data, timestamp
		FROM analysis_results
		WHERE project_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis of project %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis of project %s: %w", projectID, err)
	}

	result, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func expectAffected(res sql.Result, what string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// trimQueries drops blank queries and surrounding whitespace
func trimQueries(queries []string) []string {
	cleaned := make([]string, 0, len(queries))
	for _, query := range queries {
		if query = strings.TrimSpace(query); query != "" {
			cleaned = append(cleaned, query)
		}
	}
	return cleaned
}
