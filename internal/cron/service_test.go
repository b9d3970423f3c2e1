package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/convoyapp/convoy-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeLocker struct {
	held     bool
	acquires int
	releases int
}

func (f *fakeLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	f.acquires++
	return !f.held, nil
}

func (f *fakeLocker) Release(ctx context.Context, name string) error {
	f.releases++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func newTestCronService(t *testing.T, lock Locker, jobs []Job) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:  config.CronConfig{Interval: time.Minute},
		Lock:    lock,
		Jobs:    jobs,
		Metrics: metrics.NewCronJobMetrics(prometheus.NewRegistry()),
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func TestRunCycleExecutesJobs(t *testing.T) {
	lock := &fakeLocker{}
	var ran int
	svc := newTestCronService(t, lock, []Job{
		{Name: "first", Run: func(ctx context.Context) error { ran++; return nil }},
		{Name: "second", Run: func(ctx context.Context) error { ran++; return nil }},
	})

	svc.runCycle(context.Background())
	if ran != 2 {
		t.Fatalf("expected both jobs to run, got %d", ran)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released once, got %d", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	lock := &fakeLocker{held: true}
	var ran int
	svc := newTestCronService(t, lock, []Job{
		{Name: "noop", Run: func(ctx context.Context) error { ran++; return nil }},
	})

	svc.runCycle(context.Background())
	if ran != 0 {
		t.Fatal("jobs must not run while another worker holds the lock")
	}
	if lock.releases != 0 {
		t.Fatal("a lock that was never acquired must not be released")
	}
}

func TestRunCycleContinuesPastFailingJob(t *testing.T) {
	lock := &fakeLocker{}
	var ran int
	svc := newTestCronService(t, lock, []Job{
		{Name: "broken", Run: func(ctx context.Context) error { return errors.New("boom") }},
		{Name: "healthy", Run: func(ctx context.Context) error { ran++; return nil }},
	})

	svc.runCycle(context.Background())
	if ran != 1 {
		t.Fatal("a failing job must not stop the rest of the cycle")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	lock := &fakeLocker{}
	svc := newTestCronService(t, lock, []Job{
		{Name: "noop", Run: func(ctx context.Context) error { return nil }},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if lock.acquires == 0 {
		t.Fatal("expected at least one cycle before shutdown")
	}
}
