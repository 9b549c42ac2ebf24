package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 30 * time.Minute

// Job represents a scheduled job
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	timeout   time.Duration
	mu        sync.Mutex
	jobs      map[string]Job
	isRunning bool
}

// NewScheduler creates a new scheduler. A nil logger means slog.Default()
// and a non-positive timeout means DefaultJobTimeout.
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]Job),
	}
}

// AddJob registers job under one or more cron specifications. A job name
// can only be registered once.
func (s *Scheduler) AddJob(job Job, specs ...string) error {
	name := job.Name()
	if len(specs) == 0 {
		return fmt.Errorf("job %s has no schedule", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	var ids []cron.EntryID
	for _, spec := range specs {
		id, err := s.cron.AddFunc(spec, func() { s.runScheduled(job) })
		if err != nil {
			for _, added := range ids {
				s.cron.Remove(added)
			}
			return fmt.Errorf("failed to add job %s: %w", name, err)
		}
		ids = append(ids, id)
	}

	s.jobs[name] = job
	return nil
}

func (s *Scheduler) runScheduled(job Job) {
	name := job.Name()
	s.logger.Info("starting scheduled job", "job", name)
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	s.logger.Info("completed scheduled job", "job", name, "duration", time.Since(startTime))
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunJobNow runs a job immediately outside of schedule
func (s *Scheduler) RunJobNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not registered", name)
	}

	s.logger.Info("manually running job", "job", name)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return job.Run(ctx)
}
