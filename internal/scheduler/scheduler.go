package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultCleanupInterval is how often expired generated content is swept
const DefaultCleanupInterval = time.Hour

// Cleaner removes expired generated content
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scheduler manages background jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	cleaner   Cleaner
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new scheduler instance
func New(cleaner Cleaner, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		cleaner:   cleaner,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the cleanup job. It runs once immediately, then every interval.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.runCleanup); err != nil {
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("Scheduler started", zap.Duration("cleanup_interval", s.interval))
	return nil
}

// Stop cancels a running job and terminates the scheduler
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped")
}

// runCleanup removes expired generated scenarios
func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	removed, err := s.cleaner.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to run scheduled cleanup", zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled cleanup finished", zap.Int64("removed", removed))
}
