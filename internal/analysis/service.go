package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/azure/brand-visibility-bot/internal/cache"
	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/llm"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/azure/brand-visibility-bot/internal/notifications"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/azure/brand-visibility-bot/internal/store"
	"github.com/azure/brand-visibility-bot/internal/visibility"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const systemPrompt = "You are a helpful assistant that analyzes text to identify mentions of specific brands."

var (
	// ErrNoQueries is returned when a project has no queries to run
	ErrNoQueries = errors.New("project has no queries to analyze")
	// ErrNoAnswers is returned when every query of a run failed
	ErrNoAnswers = errors.New("no query was answered")
)

// Service runs query batteries against the language model and records the results
type Service struct {
	config              *config.Config
	store               store.StoreInterface
	completer           llm.CompleterInterface
	archive             storage.StorageInterface
	cache               cache.CacheInterface
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
	now                 func() time.Time
}

// Metrics holds analysis metrics
type Metrics struct {
	TotalRuns       int            `json:"total_runs"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	LastProject     string         `json:"last_project"`
	QueriesAnswered int            `json:"queries_answered"`
	QueriesFailed   int            `json:"queries_failed"`
	FailureReasons  map[string]int `json:"failure_reasons"`
	ErrorCount      int            `json:"error_count"`
}

// RunOutcome describes one committed run
type RunOutcome struct {
	Result    *models.AnalysisResult `json:"result"`
	Answered  int                    `json:"answered"`
	Failed    int                    `json:"failed"`
	Cancelled bool                   `json:"cancelled"`
}

// NewService creates a new analysis service. The archive and notification
// service are optional and may be nil.
func NewService(cfg *config.Config, store store.StoreInterface, completer llm.CompleterInterface,
	archive storage.StorageInterface, viewCache cache.CacheInterface, notificationService notifications.NotificationInterface) *Service {
	if viewCache == nil {
		viewCache = cache.NoopCache{}
	}
	return &Service{
		config:              cfg,
		store:               store,
		completer:           completer,
		archive:             archive,
		cache:               viewCache,
		notificationService: notificationService,
		metrics: &Metrics{
			FailureReasons: make(map[string]int),
		},
		now: time.Now,
	}
}

type job struct {
	topic int
	query string
}

// RunProject submits every query of the project, at most AnalysisConcurrency at
// a time, and commits the answers as one new analysis result. Failed queries
// are logged and left out. When ctx is cancelled no further queries are
// submitted and the answers obtained so far are still committed.
func (s *Service) RunProject(ctx context.Context, projectID string) (*RunOutcome, error) {
	start := s.now()
	logger := logrus.WithField("project_id", projectID)

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	topics, err := s.store.ListTopics(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var jobs []job
	for i, topic := range topics {
		for _, query := range topic.Queries {
			jobs = append(jobs, job{topic: i, query: query})
		}
	}
	if len(jobs) == 0 {
		return nil, ErrNoQueries
	}

	brands := project.AllBrands()
	logger.Infof("Starting analysis of %d queries across %d topics", len(jobs), len(topics))

	answers := make([]*models.QueryResult, len(jobs))
	failures := make([]error, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.config.AnalysisConcurrency)

	submitted := 0
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		submitted++
		g.Go(func() error {
			answer, err := s.ask(ctx, jobs[i].query, brands)
			if err != nil {
				logger.Errorf("Query %q failed: %v", jobs[i].query, err)
				failures[i] = err
				return nil
			}
			answers[i] = answer
			return nil
		})
	}
	g.Wait()

	cancelled := submitted < len(jobs) || ctx.Err() != nil
	results := make(map[string]models.TopicResult)
	answered := 0
	for i, topic := range topics {
		if len(topic.Queries) == 0 {
			continue
		}
		queries := []models.QueryResult{}
		for j := range jobs {
			if jobs[j].topic == i && answers[j] != nil {
				queries = append(queries, *answers[j])
			}
		}
		answered += len(queries)
		results[topic.Key()] = models.TopicResult{Queries: queries}
	}
	failed := len(jobs) - answered

	if answered == 0 {
		s.recordRun(projectID, s.now().Sub(start), 0, failures, true)
		if cancelled {
			return nil, fmt.Errorf("analysis of project %s cancelled before any answer: %w", projectID, ctx.Err())
		}
		return nil, fmt.Errorf("analysis of project %s: %w", projectID, ErrNoAnswers)
	}

	result := &models.AnalysisResult{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Results:   results,
		Data:      models.MentionCounts(results),
		Timestamp: s.now().UTC(),
	}

	commitCtx := context.WithoutCancel(ctx)
	if err := s.commit(commitCtx, result); err != nil {
		s.recordRun(projectID, s.now().Sub(start), answered, failures, true)
		return nil, err
	}

	s.recordRun(projectID, s.now().Sub(start), answered, failures, false)
	logger.WithFields(logrus.Fields{
		"answered":  answered,
		"failed":    failed,
		"cancelled": cancelled,
	}).Infof("Analysis completed in %v", s.now().Sub(start))

	return &RunOutcome{Result: result, Answered: answered, Failed: failed, Cancelled: cancelled}, nil
}

// ask submits one query under its own timeout and detects mentions in the answer
func (s *Service) ask(ctx context.Context, query string, brands []string) (*models.QueryResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.LLMTimeout)
	defer cancel()

	resp, err := s.completer.Complete(callCtx, llm.Request{
		SystemPrompt: systemPrompt,
		Prompt:       query,
		Temperature:  s.config.LLMTemperature,
		MaxTokens:    s.config.LLMMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &models.QueryResult{
		Query:         query,
		Response:      resp.Text,
		BrandMentions: visibility.DetectMentions(resp.Text, brands),
	}, nil
}

// AnalyzeQuery answers a single query and reports which of the brands it mentions
func (s *Service) AnalyzeQuery(ctx context.Context, query string, brands []string) (*models.QueryResult, error) {
	return s.ask(ctx, query, models.NormalizeBrands("", brands))
}

// SaveResults records results produced by a client. Mentions are detected again
// from the response text so stored positions always follow the server's rules.
func (s *Service) SaveResults(ctx context.Context, projectID string, results map[string]models.TopicResult) (*models.AnalysisResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	brands := project.AllBrands()
	cleaned := make(map[string]models.TopicResult, len(results))
	for key, topic := range results {
		queries := make([]models.QueryResult, 0, len(topic.Queries))
		for _, query := range topic.Queries {
			queries = append(queries, models.QueryResult{
				Query:         query.Query,
				Response:      query.Response,
				BrandMentions: visibility.DetectMentions(query.Response, brands),
			})
		}
		cleaned[key] = models.TopicResult{Queries: queries}
	}

	result := &models.AnalysisResult{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Results:   cleaned,
		Data:      models.MentionCounts(cleaned),
		Timestamp: s.now().UTC(),
	}
	if err := s.commit(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// commit writes the run in a single insert, then archives it and drops stale views
func (s *Service) commit(ctx context.Context, result *models.AnalysisResult) error {
	if err := s.store.AppendAnalysis(ctx, result); err != nil {
		return fmt.Errorf("failed to persist analysis result: %w", err)
	}

	if s.archive != nil {
		if err := s.archiveRun(ctx, result); err != nil {
			logrus.Errorf("Failed to archive run %s: %v", result.ID, err)
		}
	}

	if err := s.cache.Delete(ctx, cache.ProjectKeys(result.ProjectID)...); err != nil {
		logrus.Warnf("Failed to invalidate cached views of project %s: %v", result.ProjectID, err)
	}
	return nil
}

func (s *Service) archiveRun(ctx context.Context, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	return s.archive.Store(ctx, storage.RunName(result.ProjectID, result.ID, result.Timestamp), data)
}

// RunAll analyzes every project in turn, each within AnalysisTimeout, and
// sends a report per project when notifications are configured
func (s *Service) RunAll(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting analysis of all projects")

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	var failed []string
	for _, project := range projects {
		if ctx.Err() != nil {
			break
		}

		runCtx, cancel := context.WithTimeout(ctx, s.config.AnalysisTimeout)
		outcome, err := s.RunProject(runCtx, project.ID)
		cancel()

		if errors.Is(err, ErrNoQueries) {
			logrus.Infof("Skipping project %s: no queries configured", project.Name)
			continue
		}
		if err != nil {
			logrus.Errorf("Analysis of project %s failed: %v", project.Name, err)
			failed = append(failed, project.Name)
			continue
		}

		if err := s.notify(ctx, &project, outcome); err != nil {
			logrus.Errorf("Failed to send report for project %s: %v", project.Name, err)
		}
	}

	logrus.Infof("Analysis of %d projects completed in %v", len(projects), s.now().Sub(start))
	if len(failed) > 0 {
		return fmt.Errorf("analysis failed for %d projects: %s", len(failed), strings.Join(failed, ", "))
	}
	return ctx.Err()
}

func (s *Service) notify(ctx context.Context, project *models.Project, outcome *RunOutcome) error {
	if s.notificationService == nil {
		return nil
	}

	history, err := s.store.ListAnalyses(ctx, project.ID, s.config.HistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	report := s.BuildReport(project, history, s.now())
	report.FailedQueries = outcome.Failed
	if err := s.notificationService.SendReport(report); err != nil {
		return err
	}

	if alert := s.DropAlert(report); alert != nil {
		return s.notificationService.SendAlert(alert)
	}
	return nil
}

// BuildReport summarizes the latest run of a project for notifications
func (s *Service) BuildReport(project *models.Project, history []models.AnalysisResult, now time.Time) *models.Report {
	latest := visibility.Latest(history)

	report := &models.Report{
		GeneratedAt: now.UTC(),
		Project:     project.Name,
		Brand:       project.Brand,
		Period:      "daily",
		Change:      visibility.CompareBrand(history, project.Brand, now).Delta(),
		BrandScores: visibility.BrandScores(latest, project.AllBrands()),
		TopicScores: visibility.TopicScores(latest, project.Brand),
	}
	if latest != nil {
		report.TotalQueries = latest.TotalQueries()
		report.Visibility = visibility.OverallScore(latest, project.Brand)
	}
	return report
}

// DropAlert returns an alert when visibility fell by at least the configured threshold since yesterday
func (s *Service) DropAlert(report *models.Report) *models.Alert {
	threshold := s.config.VisibilityDropThreshold
	if threshold <= 0 || report.Change.Daily == nil || *report.Change.Daily > -threshold {
		return nil
	}

	return &models.Alert{
		ID:    uuid.NewString(),
		Type:  "urgent",
		Title: fmt.Sprintf("Visibility dropped for %s", report.Brand),
		Message: fmt.Sprintf("%s visibility in project %s fell %.1f percentage points since yesterday to %.1f%%",
			report.Brand, report.Project, -*report.Change.Daily, report.Visibility),
		Report:    report,
		CreatedAt: s.now().UTC(),
	}
}

// failureReason buckets an LLM error for metrics
func failureReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, llm.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "other"
	}
}

func (s *Service) recordRun(projectID string, duration time.Duration, answered int, failures []error, runFailed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalRuns++
	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastProject = projectID
	s.metrics.QueriesAnswered += answered
	for _, err := range failures {
		if err == nil {
			continue
		}
		s.metrics.QueriesFailed++
		s.metrics.FailureReasons[failureReason(err)]++
	}
	if runFailed {
		s.metrics.ErrorCount++
	}
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
