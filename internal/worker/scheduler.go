package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	applog "finboard/internal/log"
)

// Scheduler runs a job on a standard five-field cron schedule.
type Scheduler struct {
	spec   string
	job    func(ctx context.Context)
	logger *applog.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	cancel  context.CancelFunc
}

func NewScheduler(spec string, job func(ctx context.Context), logger *applog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Scheduler{spec: spec, job: job, logger: logger.WithComponent(applog.ComponentWorker)}, nil
}

// Start registers the job and starts the cron loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.job(jobCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule job: %w", err)
	}
	c.Start()

	s.cron, s.cancel, s.running = c, cancel, true
	s.logger.InfoContext(ctx, "Scheduler started", "schedule", s.spec)
	return nil
}

// Stop cancels a running job and waits for it, or for ctx, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c, cancel := s.cron, s.cancel
	s.running = false
	s.mu.Unlock()

	cancel()
	select {
	case <-c.Stop().Done():
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
