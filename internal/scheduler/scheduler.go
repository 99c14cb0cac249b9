// Package scheduler runs the recurring match sync and retraining jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/models"
	"github.com/ElMALIHI/footballai/internal/service"
)

// Scheduler manages the cron-driven background jobs.
type Scheduler struct {
	cron        *cron.Cron
	ingestion   *service.IngestionService
	training    *service.TrainingService
	logger      *logrus.Logger
	mu          sync.RWMutex
	isRunning   bool
	jobIDs      []cron.EntryID
}

// NewScheduler creates a scheduler. All jobs run in UTC.
func NewScheduler(ingestion *service.IngestionService, training *service.TrainingService, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		ingestion: ingestion,
		training:  training,
		logger:    logger,
		jobIDs:    make([]cron.EntryID, 0),
	}
}

// ScheduleMatchSync schedules a recurring sync of recent matches for the
// given competitions, looking back lookbackDays from each run.
func (s *Scheduler) ScheduleMatchSync(cronExpression string, competitions []string, lookbackDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if lookbackDays < 1 {
		lookbackDays = 1
	}

	jobFunc := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		dateTo := time.Now().UTC()
		dateFrom := dateTo.AddDate(0, 0, -lookbackDays)

		s.logger.WithFields(logrus.Fields{
			"competitions": competitions,
			"from":         dateFrom.Format("2006-01-02"),
			"to":           dateTo.Format("2006-01-02"),
		}).Info("Starting scheduled match sync")

		syncResult, err := s.ingestion.Sync(ctx, competitions, dateFrom, dateTo)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled match sync failed")
			return
		}
		s.logger.WithField("sync", syncResult.String()).Info("Scheduled match sync completed")
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add match sync job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled match sync job")
	return nil
}

// ScheduleRetraining schedules periodic retraining with the given options.
// Each run carries the options' own wall-clock budget.
func (s *Scheduler) ScheduleRetraining(intervalHours int, opts models.TrainOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if intervalHours < 1 {
		intervalHours = 1
	}

	jobFunc := func() {
		s.logger.WithField("model_types", opts.ModelTypes).Info("Starting scheduled retraining")

		run, err := s.training.TrainModels(context.Background(), opts)
		if err != nil {
			s.logger.WithError(err).Error("Scheduled retraining failed")
			return
		}
		s.logger.WithFields(logrus.Fields{
			"run_id":   run.ID,
			"models":   len(run.Models),
			"duration": run.Duration,
		}).Info("Scheduled retraining completed")
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %dh", intervalHours), jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add retraining job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("interval_hours", intervalHours).Info("Scheduled retraining job")
	return nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	<-s.cron.Stop().Done()
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run.
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}

// Entries returns information about scheduled entries.
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}
	return entries
}
