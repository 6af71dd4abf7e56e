// Package scheduler runs the periodic jobs that drive the SLA engine.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Handler executes one scheduled job run.
type Handler func(context.Context) error

// Job is the registry entry for one recurring job.
type Job struct {
	Slug       string    `json:"slug"`
	Schedule   string    `json:"schedule"`
	LastRunAt  time.Time `json:"last_run_at"`
	LastStatus string    `json:"last_status"`
	LastError  string    `json:"last_error,omitempty"`
}

// Service coordinates scheduled job execution around a cron engine.
type Service struct {
	cron    *cron.Cron
	logger  *log.Logger
	rootCtx context.Context

	mu      sync.RWMutex
	jobs    map[string]*Job
	entries map[string]cron.EntryID

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewService creates a scheduler in the given location.
func NewService(location *time.Location, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		cron:    cron.New(cron.WithLocation(location)),
		logger:  logger,
		rootCtx: context.Background(),
		jobs:    make(map[string]*Job),
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds a recurring job. Registering an existing slug replaces its
// schedule and handler.
func (s *Service) Register(slug, schedule string, handler Handler) error {
	if slug == "" || schedule == "" {
		return fmt.Errorf("job slug and schedule are required")
	}
	if handler == nil {
		return fmt.Errorf("job %s: handler is required", slug)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[slug]; ok {
		s.cron.Remove(entryID)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob(slug, handler)
	})
	if err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", slug, schedule, err)
	}

	s.entries[slug] = entryID
	s.jobs[slug] = &Job{Slug: slug, Schedule: schedule}
	return nil
}

func (s *Service) runJob(slug string, handler Handler) {
	started := time.Now()
	err := handler(s.rootCtx)

	s.mu.Lock()
	if job, ok := s.jobs[slug]; ok {
		job.LastRunAt = started
		if err != nil {
			job.LastStatus = statusFailed
			job.LastError = err.Error()
		} else {
			job.LastStatus = statusSuccess
			job.LastError = ""
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("job %s failed after %s: %v", slug, time.Since(started), err)
	} else {
		s.logger.Printf("job %s completed in %s", slug, time.Since(started))
	}
}

// Start begins cron execution. Safe to call once.
func (s *Service) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()
		s.logger.Printf("scheduler started with %d jobs", len(s.jobs))
	})
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.logger.Printf("scheduler stopped")
	})
}

// Jobs returns a snapshot of the registry.
func (s *Service) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}
