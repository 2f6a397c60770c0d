package cron

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob("rollup", Schedule{Kind: "cron", Expr: "0 10 0 * * *"}, Payload{Task: "rollup"})
	if job.ID == "" {
		t.Error("job ID should not be empty")
	}
	if !job.Enabled {
		t.Error("job should be enabled by default")
	}
	if job.Payload.Task != "rollup" {
		t.Errorf("task = %q, want rollup", job.Payload.Task)
	}
}

func TestService_AddAndListJobs(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "jobs.json")
	s := NewService(storePath)

	job, err := s.AddJob("rollup", Schedule{Kind: "every", EveryMs: 60000}, Payload{Task: "rollup"})
	if err != nil {
		t.Fatalf("AddJob error: %v", err)
	}
	if job.Name != "rollup" {
		t.Errorf("name = %q, want rollup", job.Name)
	}

	jobs := s.ListJobs()
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	var stored []Job
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored jobs = %d, want 1", len(stored))
	}
}

func TestService_EnsureJobIdempotent(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"))

	a, err := s.EnsureJob("rollup", Schedule{Kind: "every", EveryMs: 1000}, Payload{Task: "rollup"})
	if err != nil {
		t.Fatalf("EnsureJob: %v", err)
	}
	b, err := s.EnsureJob("rollup", Schedule{Kind: "every", EveryMs: 9999}, Payload{Task: "rollup"})
	if err != nil {
		t.Fatalf("second EnsureJob: %v", err)
	}
	if a.ID != b.ID {
		t.Error("EnsureJob duplicated the job")
	}
	if len(s.ListJobs()) != 1 {
		t.Fatalf("jobs = %d, want 1", len(s.ListJobs()))
	}
}

func TestService_RemoveJob(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"))
	job, _ := s.AddJob("rm", Schedule{Kind: "every", EveryMs: 1000}, Payload{Task: "rollup"})

	if !s.RemoveJob(job.ID) {
		t.Error("RemoveJob returned false")
	}
	if len(s.ListJobs()) != 0 {
		t.Error("job not removed")
	}
	if s.RemoveJob("nonexistent") {
		t.Error("RemoveJob should return false for nonexistent")
	}
}

func TestService_EveryJobFires(t *testing.T) {
	s := NewService(filepath.Join(t.TempDir(), "jobs.json"))

	var fired atomic.Int32
	s.OnJob = func(job Job) (string, error) {
		fired.Add(1)
		return "ok", nil
	}

	if _, err := s.AddJob("tick", Schedule{Kind: "every", EveryMs: 100}, Payload{Task: "rollup"}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if fired.Load() == 0 {
		t.Fatal("every-job never fired")
	}

	jobs := s.ListJobs()
	if jobs[0].State.LastStatus != "ok" {
		t.Fatalf("job state = %+v", jobs[0].State)
	}
}
