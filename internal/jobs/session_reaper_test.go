package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubReaper struct {
	calls int32
	grace time.Duration
	count int
}

func (s *stubReaper) ReapExpired(_ context.Context, grace time.Duration) int {
	atomic.AddInt32(&s.calls, 1)
	s.grace = grace
	return s.count
}

func TestRunOncePassesGracePeriod(t *testing.T) {
	stub := &stubReaper{count: 2}
	job := NewSessionReaperJob(stub, &ReaperConfig{GracePeriod: 5 * time.Minute}, zap.NewNop())

	if got := job.RunOnce(context.Background()); got != 2 {
		t.Fatalf("expected 2 reaped sessions, got %d", got)
	}
	if stub.grace != 5*time.Minute {
		t.Fatalf("expected grace period to be forwarded, got %s", stub.grace)
	}
}

func TestStartWithoutScheduleIsNoop(t *testing.T) {
	stub := &stubReaper{}
	job := NewSessionReaperJob(stub, &ReaperConfig{}, zap.NewNop())

	if err := job.Start(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	job.Stop()
	if atomic.LoadInt32(&stub.calls) != 0 {
		t.Fatal("reaper should not run without a schedule")
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	job := NewSessionReaperJob(&stubReaper{}, &ReaperConfig{Schedule: "not a schedule"}, zap.NewNop())
	if err := job.Start(); err == nil {
		t.Fatal("expected invalid schedule to fail")
	}
}

func TestScheduledRun(t *testing.T) {
	stub := &stubReaper{}
	job := NewSessionReaperJob(stub, &ReaperConfig{Schedule: "@every 1s"}, zap.NewNop())
	if err := job.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer job.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&stub.calls) > 0 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("expected the reaper to run on schedule")
}
