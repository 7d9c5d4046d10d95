package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/communitybot/internal/logging"
)

const sweepTimeout = 30 * time.Second

// SessionCleaner removes expired sessions
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// SessionSweepJob deletes expired sessions on a fixed interval. Expired
// sessions are already invisible to reads; the sweep only reclaims storage.
type SessionSweepJob struct {
	cleaner   SessionCleaner
	interval  time.Duration
	logger    *zap.Logger
	scheduler gocron.Scheduler
}

// NewSessionSweepJob creates the sweep job, not yet started
func NewSessionSweepJob(cleaner SessionCleaner, interval time.Duration, logger *zap.Logger) *SessionSweepJob {
	return &SessionSweepJob{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger.Named("jobs"),
	}
}

// Start schedules the sweep, running it once immediately
func (j *SessionSweepJob) Start() error {
	if j.scheduler != nil {
		j.logger.Warn("session sweep already running")
		return nil
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logging.NewGocronLogger(j.logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(j.interval),
		gocron.NewTask(j.RunOnce),
		gocron.WithName("session-sweep"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.Start()
	j.scheduler = s
	j.logger.Info("session sweep scheduled", zap.Duration("interval", j.interval))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *SessionSweepJob) Stop() error {
	if j.scheduler == nil {
		return nil
	}
	err := j.scheduler.Shutdown()
	j.scheduler = nil
	if err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

// RunOnce performs a single sweep
func (j *SessionSweepJob) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := j.cleaner.CleanupExpired(ctx); err != nil {
		j.logger.Error("session sweep failed", zap.Error(err))
	}
}
