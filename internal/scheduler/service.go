package scheduler

import (
	"context"
	"time"

	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// pruneSchedule runs the archive retention job daily at 03:30 UTC
const pruneSchedule = "0 30 3 * * *"

// Runner is the part of the analysis service the scheduler drives
type Runner interface {
	RunAll(ctx context.Context) error
}

// Service handles scheduling of analysis runs and archive pruning
type Service struct {
	config  *config.Config
	runner  Runner
	archive storage.StorageInterface
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

// NewService creates a new scheduler service. archive may be nil, which disables pruning.
func NewService(cfg *config.Config, runner Runner, archive storage.StorageInterface) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		config:  cfg,
		runner:  runner,
		archive: archive,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

// Start registers the jobs and begins the schedule
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.config.AnalysisSchedule, s.runAnalysis); err != nil {
		return err
	}

	if s.archive != nil && s.config.ArchiveRetentionDays > 0 {
		if _, err := s.cron.AddFunc(pruneSchedule, s.pruneArchive); err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with analysis schedule %q", s.config.AnalysisSchedule)
	return nil
}

func (s *Service) runAnalysis() {
	logrus.Info("Starting scheduled analysis run")
	if err := s.runner.RunAll(s.ctx); err != nil {
		logrus.Errorf("Scheduled analysis run failed: %v", err)
	}
}

func (s *Service) pruneArchive() {
	cutoff := s.now().AddDate(0, 0, -s.config.ArchiveRetentionDays)
	if _, err := storage.Prune(s.ctx, s.archive, "runs/", cutoff); err != nil {
		logrus.Errorf("Archive pruning failed: %v", err)
	}
}

// Stop stops the scheduler and cancels a run in progress
func (s *Service) Stop() {
	if s.cron != nil {
		s.cancel()
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
