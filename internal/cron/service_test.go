package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resinriver/storefront/pkg/logger"
)

type fakeLock struct {
	held     bool
	releases int
}

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

type recordedRun struct {
	job    string
	failed bool
}

type fakeRecorder struct {
	runs []recordedRun
}

func (f *fakeRecorder) ObserveRun(job string, err error, _ time.Duration) {
	f.runs = append(f.runs, recordedRun{job: job, failed: err != nil})
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "housekeeping-test"})
}

func TestRunOnceRunsEveryJobEvenAfterFailure(t *testing.T) {
	failing := &testJob{name: "fail", err: errors.New("boom")}
	passing := &testJob{name: "ok"}
	recorder := &fakeRecorder{}
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(failing, passing),
		Lock:     lock,
		Metrics:  recorder,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if failing.runs != 1 || passing.runs != 1 {
		t.Fatalf("expected both jobs to run once, got fail=%d ok=%d", failing.runs, passing.runs)
	}
	if len(recorder.runs) != 2 || !recorder.runs[0].failed || recorder.runs[1].failed {
		t.Fatalf("unexpected recorded runs %+v", recorder.runs)
	}
	if lock.releases != 1 || lock.held {
		t.Fatalf("expected lock released once")
	}
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "ok"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{held: true},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("expected job to be skipped")
	}
}

func TestNewServiceRequiresLock(t *testing.T) {
	if _, err := NewService(ServiceParams{Logger: testLogger()}); err == nil {
		t.Fatalf("expected error without lock")
	}
}
