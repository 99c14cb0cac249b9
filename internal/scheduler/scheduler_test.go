package scheduler

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ElMALIHI/footballai/internal/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(nil, nil, testLogger())
	if err := s.Start(); err == nil {
		t.Fatal("scheduler started with no jobs")
	}
}

func TestScheduleRejectsBadCron(t *testing.T) {
	s := NewScheduler(nil, nil, testLogger())
	if err := s.ScheduleMatchSync("not a cron expression", []string{"PL"}, 7); err == nil {
		t.Fatal("invalid cron expression accepted")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewScheduler(nil, nil, testLogger())
	if err := s.ScheduleMatchSync("0 3 * * *", []string{"PL"}, 7); err != nil {
		t.Fatalf("ScheduleMatchSync: %v", err)
	}
	if err := s.ScheduleRetraining(168, models.TrainOptions{}); err != nil {
		t.Fatalf("ScheduleRetraining: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler not reported running")
	}
	if err := s.Start(); err == nil {
		t.Fatal("double start accepted")
	}
	if len(s.Entries()) != 2 {
		t.Fatalf("expected 2 scheduled entries, got %d", len(s.Entries()))
	}
	if s.GetNextRun().IsZero() {
		t.Fatal("no next run while running")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler still reported running after stop")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestScheduleAfterStartRejected(t *testing.T) {
	s := NewScheduler(nil, nil, testLogger())
	if err := s.ScheduleMatchSync("@daily", []string{"PL"}, 7); err != nil {
		t.Fatalf("ScheduleMatchSync: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if err := s.ScheduleMatchSync("@daily", []string{"CL"}, 7); err == nil {
		t.Fatal("scheduling while running accepted")
	}
	if err := s.ScheduleRetraining(24, models.TrainOptions{}); err == nil {
		t.Fatal("scheduling while running accepted")
	}
}
