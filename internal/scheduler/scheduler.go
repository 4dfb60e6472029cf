package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultRunTimeout bounds one scheduled run.
const DefaultRunTimeout = 5 * time.Minute

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages cron-based report execution.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	mu      sync.Mutex
	jobs    map[string]Job
	entries map[string]cron.EntryID // job name → cron entry
}

// NewScheduler creates a scheduler. Overlapping runs of the same job are
// skipped.
func NewScheduler(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job under a standard five-field cron spec. Adding a job
// with the same name replaces its schedule.
func (s *Scheduler) Add(spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := job.Run(ctx); err != nil {
			log.Warn().Err(err).Str("job", job.Name()).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", spec, job.Name(), err)
	}

	if old, ok := s.entries[job.Name()]; ok {
		s.cron.Remove(old)
	}
	s.entries[job.Name()] = entryID
	s.jobs[job.Name()] = job
	log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("scheduled report")
	return nil
}

// Next returns the next activation time of the named job, computed from its
// schedule when the loop is not running.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := s.cron.Entry(id)
	if e.Next.IsZero() && e.Schedule != nil {
		return e.Schedule.Next(time.Now()), true
	}
	return e.Next, true
}

// RunNow runs the named job synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job.Run(ctx)
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.entries)).Msg("report scheduler started")
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("report scheduler stopped")
}
