package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	cronv3 "github.com/robfig/cron/v3"

	"mail_loader/internal/config"
	"mail_loader/internal/domain"
	"mail_loader/internal/progress"
	"mail_loader/internal/service"
)

// Loader runs load cycles.
type Loader interface {
	Start(ctx context.Context, cb service.Callbacks) bool
	Wait()
	CheckFreshness(ctx context.Context, window time.Duration) (service.Freshness, error)
}

// Scheduler starts a load cycle on every tick unless the store is fresh,
// and mirrors each cycle into the progress tracker.
type Scheduler struct {
	loader    Loader
	tracker   *progress.Tracker
	interval  time.Duration
	schedule  string
	freshness time.Duration
	logger    *slog.Logger
}

func NewScheduler(loader Loader, tracker *progress.Tracker, cfg config.SyncConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		loader:    loader,
		tracker:   tracker,
		interval:  cfg.Interval,
		schedule:  cfg.Schedule,
		freshness: cfg.FreshnessWindow,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start runs a cycle immediately and then on every tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule != "" {
		return s.startCron(ctx)
	}

	s.logger.Info("scheduler started", "interval", s.interval, "freshness_window", s.freshness)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// startCron drives cycles from a cron expression. Overlapping runs are
// skipped and panics are recovered by the cron chain.
func (s *Scheduler) startCron(ctx context.Context) error {
	cronLogger := cronv3.PrintfLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn))
	c := cronv3.New(
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronLogger),
			cronv3.Recover(cronLogger),
		),
	)

	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("parse schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule, "freshness_window", s.freshness)
	s.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunOnce performs one freshness-gated cycle and blocks until the load it
// started, if any, has ended.
func (s *Scheduler) RunOnce(ctx context.Context) {
	fresh, err := s.loader.CheckFreshness(ctx, s.freshness)
	switch {
	case err != nil:
		s.logger.Warn("freshness check failed, loading anyway", "error", err)
	case fresh.Fresh:
		s.logger.Debug("store is fresh, skipping load",
			"last_load", fresh.LastLoad,
			"count", fresh.Count,
		)
		s.tracker.ReportFresh(fresh.Count)
		return
	}

	cycle := &trackedCycle{tracker: s.tracker, logger: s.logger}
	if !s.loader.Start(ctx, cycle.callbacks()) {
		s.logger.Debug("load not started")
		return
	}
	s.loader.Wait()

	// A cancelled load reports neither completion nor error.
	if cycle.started.Load() && !cycle.ended.Load() {
		s.logger.Info("load cancelled")
		s.tracker.Cancel()
	}
}

// trackedCycle forwards one cycle's loader events to the tracker. The first
// progress report of the cycle starts the tracker.
type trackedCycle struct {
	tracker *progress.Tracker
	logger  *slog.Logger
	started atomic.Bool
	ended   atomic.Bool
}

func (c *trackedCycle) callbacks() service.Callbacks {
	return service.Callbacks{
		OnProgress: func(loaded, total int, phase domain.Phase) {
			if c.started.CompareAndSwap(false, true) {
				c.tracker.StartLoading(total)
			}
			c.tracker.UpdateProgress(loaded, total, phase)
		},
		OnComplete: func(domain.LoadStats) {
			c.ended.Store(true)
			c.tracker.CompleteLoading()
		},
		OnError: func(err error) {
			c.ended.Store(true)
			c.tracker.SetError(err.Error())
		},
		OnScoringProgress: func(scored, total int) {
			c.logger.Debug("scoring progress", "scored", scored, "total", total)
		},
	}
}
