package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
)

type fakeLock struct {
	held     bool
	releases int
}

func (f *fakeLock) Name() string { return "cron" }

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type fakeCronMetrics struct {
	durations int
	success   []string
	failure   []string
	skipped   []string
}

func (m *fakeCronMetrics) ObserveDuration(string, time.Duration) { m.durations++ }
func (m *fakeCronMetrics) IncSuccess(job string)                 { m.success = append(m.success, job) }
func (m *fakeCronMetrics) IncFailure(job string)                 { m.failure = append(m.failure, job) }
func (m *fakeCronMetrics) IncSkipped(lock string)                { m.skipped = append(m.skipped, lock) }

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	first := &testJob{name: "first", err: errors.New("boom")}
	second := &testJob{name: "second"}
	third := &testJob{name: "third", err: errors.New("bang")}
	lock := &fakeLock{}
	metrics := &fakeCronMetrics{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}}),
		Registry: mustRegistry(t, first, second, third),
		Lock:     lock,
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	err = service.RunOnce(context.Background())
	if err == nil {
		t.Fatalf("expected combined error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d: %v", got, err)
	}
	for _, job := range []*testJob{first, second, third} {
		if job.runs != 1 {
			t.Fatalf("expected %s to run once, ran %d", job.name, job.runs)
		}
	}
	if metrics.durations != 3 || len(metrics.success) != 1 || len(metrics.failure) != 2 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if lock.held || lock.releases != 1 {
		t.Fatalf("expected lock to be released once")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "only"}
	lock := &fakeLock{held: true}
	metrics := &fakeCronMetrics{}
	logs := &bytes.Buffer{}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: logs}),
		Registry: mustRegistry(t, job),
		Lock:     lock,
		Metrics:  metrics,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job should not run without the lock")
	}
	if len(metrics.skipped) != 1 || metrics.skipped[0] != "cron" {
		t.Fatalf("expected skipped metric for cron lock, got %v", metrics.skipped)
	}
	if !bytes.Contains(logs.Bytes(), []byte("cron.cycle.skipped")) {
		t.Fatalf("expected skip to be logged: %s", logs.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "tick"}
	service, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}}),
		Registry: mustRegistry(t, job),
		Lock:     &fakeLock{},
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected the initial cycle to run once, ran %d", job.runs)
	}
}
