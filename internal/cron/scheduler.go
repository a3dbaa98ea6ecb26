// Package cron wraps a recurring runner around the database seeding job.
// The scheduler is an explicit service object built in the composition root
// and threaded through the API, never a package-level singleton.
package cron

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"vistagram.app/internal/audit"
	"vistagram.app/internal/obs"
)

const (
	// JobPopulate is the single job the scheduler knows about.
	JobPopulate = "populate"

	// DefaultSchedule fires daily at 12:00 UTC.
	DefaultSchedule = "0 12 * * *"
)

// Populator runs one seeding pass.
type Populator interface {
	Populate(ctx context.Context) error
}

// JobStatus describes one registered job.
type JobStatus struct {
	Running   bool `json:"running"`
	Scheduled bool `json:"scheduled"`
}

// Scheduler owns the recurring seeding trigger. At most one seeding run is
// in flight at any time regardless of how many triggers fire; the guard is a
// mutex-protected flag since triggers arrive on separate goroutines.
type Scheduler struct {
	runner    *cron.Cron
	populator Populator
	enabled   bool
	schedule  string

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	running bool
}

// New constructs a Scheduler. An empty schedule falls back to DefaultSchedule.
func New(populator Populator, enabled bool, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		runner:    cron.New(cron.WithLocation(time.UTC)),
		populator: populator,
		enabled:   enabled,
		schedule:  schedule,
		jobs:      make(map[string]cron.EntryID),
	}
}

// Enabled reports whether scheduling is switched on via configuration.
func (s *Scheduler) Enabled() bool { return s.enabled }

// Schedule returns the configured cron expression.
func (s *Scheduler) Schedule() string { return s.schedule }

// StartDatabasePopulation registers the populate job and starts the runner.
// Calling it when scheduling is disabled, or when the job is already
// registered, is a logged no-op.
func (s *Scheduler) StartDatabasePopulation() error {
	if !s.enabled {
		_ = audit.LogEvent(context.Background(), "cron.populate.disabled", nil)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[JobPopulate]; ok {
		_ = audit.LogEvent(context.Background(), "cron.populate.already_scheduled", nil)
		return nil
	}

	id, err := s.runner.AddFunc(s.schedule, func() {
		// The scheduler must never crash the process; RunPopulate has
		// already logged any failure.
		_ = s.RunPopulate(context.Background())
	})
	if err != nil {
		return err
	}
	s.jobs[JobPopulate] = id
	s.runner.Start()

	_ = audit.LogEvent(context.Background(), "cron.populate.scheduled", map[string]any{
		"schedule": s.schedule,
	})
	return nil
}

// RunPopulate executes one seeding pass. If a run is already in flight the
// call is skipped entirely and no writes happen. The flag is cleared on both
// success and failure; the seeding error is returned for callers that need
// it (the manual trigger) and discarded by the cron path.
func (s *Scheduler) RunPopulate(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = audit.LogEvent(ctx, "cron.populate.skipped", map[string]any{
			"reason": "already running",
		})
		return nil
	}
	s.running = true
	s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	err := s.populator.Populate(ctx)
	obs.ObserveSeederRun(err)

	duration := time.Since(start)
	if err != nil {
		_ = audit.LogEvent(ctx, "cron.populate.failed", map[string]any{
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		})
		return err
	}
	_ = audit.LogEvent(ctx, "cron.populate.completed", map[string]any{
		"duration_ms": duration.Milliseconds(),
	})
	return nil
}

// Trigger runs the populate job on demand and surfaces its failure to the
// caller, unlike the cron path which swallows it.
func (s *Scheduler) Trigger(ctx context.Context) error {
	_ = audit.LogEvent(ctx, "cron.populate.manual_trigger", nil)
	return s.RunPopulate(ctx)
}

// Status reports the registered jobs.
func (s *Scheduler) Status() map[string]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]JobStatus, len(s.jobs))
	for name := range s.jobs {
		out[name] = JobStatus{
			Running:   s.running && name == JobPopulate,
			Scheduled: true,
		}
	}
	return out
}

// StopJob deregisters a job by name. Unknown names are a no-op.
func (s *Scheduler) StopJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.jobs[name]
	if !ok {
		return
	}
	s.runner.Remove(id)
	delete(s.jobs, name)
	_ = audit.LogEvent(context.Background(), "cron.job.stopped", map[string]any{"job": name})
}

// StopAll deregisters every job and stops the runner. In-flight runs finish
// on their own.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, id := range s.jobs {
		s.runner.Remove(id)
		delete(s.jobs, name)
		_ = audit.LogEvent(context.Background(), "cron.job.stopped", map[string]any{"job": name})
	}
	s.runner.Stop()
}
