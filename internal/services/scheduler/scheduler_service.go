package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

var (
	// ErrJobRunning is returned when a run is requested while another job is in flight
	ErrJobRunning = errors.New("another job is still running")
	// ErrJobNotFound is returned for an unknown job name
	ErrJobNotFound = errors.New("job not found")
)

// JobFunc is one unit of scheduled work
type JobFunc func(ctx context.Context) error

// JobStatus reports the state of a registered job
type JobStatus struct {
	Name      string
	Schedule  string
	IsRunning bool
	LastRun   *time.Time
	NextRun   *time.Time
	LastError string
	RunCount  int
}

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   JobFunc
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
	runCount  int
}

// Service runs registered jobs on cron schedules (seconds field included).
// At most one job executes at a time across the whole service.
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	timeout  time.Duration
	jobMu    sync.Mutex // Protects jobs map and entries
	globalMu sync.Mutex // Held while a job executes
	jobs     map[string]*jobEntry
	running  bool
	baseCtx  context.Context
	cancel   context.CancelFunc
}

// NewService creates a scheduler whose jobs each get at most timeout to finish.
// A zero timeout leaves runs unbounded.
func NewService(logger arbor.ILogger, timeout time.Duration) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]*jobEntry),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// RegisterJob adds a job under a unique name
func (s *Service) RegisterJob(name, schedule string, handler JobFunc) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if handler == nil {
		return fmt.Errorf("job %s has no handler", name)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		if err := s.executeJob(s.baseCtx, name); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Debug().Str("job_name", name).Err(err).Msg("Scheduled run ended with error")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}

	s.jobs[name] = &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
		cronID:   cronID,
	}

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// Start begins firing jobs on their schedules
func (s *Service) Start() error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs registered")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("job_count", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the schedule, cancels the in-flight job and waits for it to return
func (s *Service) Stop() error {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return nil
	}
	s.running = false
	s.jobMu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// RunJob executes a registered job immediately on the caller's goroutine.
// It returns ErrJobRunning instead of waiting when another job is in flight.
func (s *Service) RunJob(ctx context.Context, name string) error {
	return s.executeJob(ctx, name)
}

// GetJobStatus returns the status of a registered job
func (s *Service) GetJobStatus(name string) (*JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	status := &JobStatus{
		Name:      entry.name,
		Schedule:  entry.schedule,
		IsRunning: entry.isRunning,
		LastRun:   entry.lastRun,
		LastError: entry.lastError,
		RunCount:  entry.runCount,
	}
	if next := s.cron.Entry(entry.cronID).Next; !next.IsZero() {
		status.NextRun = &next
	}
	return status, nil
}

// executeJob wraps job execution with the global lock, panic recovery and status tracking
func (s *Service) executeJob(ctx context.Context, name string) (err error) {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	s.jobMu.Unlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	if !s.globalMu.TryLock() {
		s.logger.Warn().
			Str("job_name", name).
			Msg("Skipping run, previous job still in progress")
		return ErrJobRunning
	}
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().
		Str("job_name", name).
		Msg("Job execution started")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")
		}

		completed := time.Now()
		s.jobMu.Lock()
		entry.isRunning = false
		entry.lastRun = &completed
		entry.runCount++
		if err != nil {
			entry.lastError = err.Error()
		} else {
			entry.lastError = ""
		}
		s.jobMu.Unlock()

		if err != nil {
			s.logger.Error().
				Str("job_name", name).
				Err(err).
				Dur("duration", time.Since(started)).
				Msg("Job execution failed")
		} else {
			s.logger.Info().
				Str("job_name", name).
				Dur("duration", time.Since(started)).
				Msg("Job execution completed successfully")
		}
	}()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return handler(runCtx)
}
