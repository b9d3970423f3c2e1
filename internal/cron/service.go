package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/convoyapp/convoy-backend/pkg/metrics"
)

const cycleLockName = "cron_cycle"

// Service drives the scheduled jobs on a fixed interval.
type Service struct {
	cfg     config.CronConfig
	lock    Locker
	jobs    []Job
	metrics *metrics.CronJobMetrics
	logg    *logger.Logger
}

// ServiceParams bundles the dependencies for the cron runner.
type ServiceParams struct {
	Config  config.CronConfig
	Lock    Locker
	Jobs    []Job
	Metrics *metrics.CronJobMetrics
	Logger  *logger.Logger
}

// NewService constructs the cron runner.
func NewService(params ServiceParams) (*Service, error) {
	if params.Lock == nil {
		return nil, fmt.Errorf("lock is required")
	}
	if len(params.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		cfg:     params.Config,
		lock:    params.Lock,
		jobs:    params.Jobs,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Run blocks until the context is cancelled, executing one cycle per tick.
func (s *Service) Run(ctx context.Context) error {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Service) runCycle(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx, cycleLockName, s.cfg.LockTTL)
	if err != nil {
		s.logg.Error(ctx, "cron lock acquire failed", err)
		return
	}
	if !acquired {
		s.logg.Info(ctx, "cron cycle skipped, lock held elsewhere")
		return
	}
	defer func() {
		if err := s.lock.Release(ctx, cycleLockName); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
}

func (s *Service) runJob(ctx context.Context, job Job) {
	logCtx := s.logg.WithField(ctx, "job", job.Name)
	start := time.Now()

	err := job.Run(ctx)
	s.metrics.ObserveDuration(job.Name, time.Since(start))
	if err != nil {
		s.metrics.IncFailure(job.Name)
		s.logg.Error(logCtx, "cron job failed", err)
		return
	}
	s.metrics.IncSuccess(job.Name)
	s.logg.Info(logCtx, "cron job completed")
}
