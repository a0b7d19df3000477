package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAddJobFires(t *testing.T) {
	var fired atomic.Int64

	sched := New(nil)
	err := sched.AddJob("reaper", "@every 1s", func() {
		fired.Add(1)
	})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d", sched.JobCount())
	}

	sched.cron.Start()
	time.Sleep(1500 * time.Millisecond)
	sched.cron.Stop()

	if fired.Load() == 0 {
		t.Error("expected the job to fire at least once")
	}
}

func TestAddJobReplacesByName(t *testing.T) {
	sched := New(nil)
	sched.AddJob("reaper", "@every 1h", func() {})
	sched.AddJob("reaper", "@every 2h", func() {})

	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d, want 1", sched.JobCount())
	}
}

func TestInvalidSchedule(t *testing.T) {
	sched := New(nil)
	err := sched.AddJob("reaper", "not-a-schedule", func() {})
	if err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestRemoveJob(t *testing.T) {
	sched := New(nil)
	sched.AddJob("reaper", "@every 1h", func() {})
	sched.AddJob("refresh", "@every 2h", func() {})

	sched.RemoveJob("reaper")
	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d after remove, want 1", sched.JobCount())
	}

	// Removing an unknown name is a no-op.
	sched.RemoveJob("nope")
	if sched.JobCount() != 1 {
		t.Errorf("JobCount = %d, want 1", sched.JobCount())
	}
}
