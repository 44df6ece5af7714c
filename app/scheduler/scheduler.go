package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brandpulse/brandpulse/app/ingest"
)

// State is the scheduler's lifecycle state. At most one batch run
// executes at any instant; the Running state is the guard.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// OrchestratorInterface is the batch entry point the scheduler
// invokes. Satisfied by *ingest.Orchestrator.
type OrchestratorInterface interface {
	Run(ctx context.Context) (*ingest.RunResult, error)
}

type SchedulerInterface interface {
	Start() error
	Stop()
	TriggerNow() bool
	State() State
}

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler triggers the batch orchestrator on a cron schedule and on
// manual demand, with mutual exclusion between runs. Construct one
// instance per process; independent instances are fine in tests.
type Scheduler struct {
	orchestrator OrchestratorInterface
	schedule     string
	stopTimeout  time.Duration

	cron *cron.Cron

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup
}

func NewScheduler(orchestrator OrchestratorInterface, schedule string) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		schedule:     schedule,
		stopTimeout:  10 * time.Second,
		cron:         cron.New(),
		state:        StateIdle,
	}
}

// Start registers the recurring trigger. Call only after storage is
// confirmed ready.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if !s.tryRun("schedule") {
			slog.Debug("Scheduled fetch skipped, batch already running")
		}
	}); err != nil {
		return fmt.Errorf("invalid fetch schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	slog.Info("Feed scheduler started", "schedule", s.schedule)
	return nil
}

// TriggerNow requests an immediate batch run and returns without
// waiting for it. Reports false when a run is already in flight or the
// scheduler is stopped; the trigger is then a no-op, never a queue.
func (s *Scheduler) TriggerNow() bool {
	started := s.tryRun("manual")
	if !started {
		slog.Debug("Manual fetch skipped", "state", s.State().String())
	}
	return started
}

// Stop cancels the recurring trigger and waits briefly for an
// in-flight batch. Shutdown never blocks indefinitely on a slow batch.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	wasRunning := s.state == StateRunning
	s.state = StateStopped
	s.mu.Unlock()

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()

	if wasRunning {
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(s.stopTimeout):
			slog.Warn("Scheduler stopped with batch still in flight", "timeout", s.stopTimeout)
		}
	}

	slog.Info("Feed scheduler stopped")
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// tryRun transitions Idle -> Running and launches the batch, or
// reports false when the transition is not available.
func (s *Scheduler) tryRun(trigger string) bool {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return false
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finishRun()
		s.runBatch(trigger)
	}()

	return true
}

// runBatch is the outermost boundary: nothing escaping the
// orchestrator may crash the process.
func (s *Scheduler) runBatch(trigger string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Feed batch panicked", "trigger", trigger, "panic", r)
		}
	}()

	slog.Info("Feed batch triggered", "trigger", trigger)

	result, err := s.orchestrator.Run(context.Background())
	if err != nil {
		slog.Error("Feed batch failed", "trigger", trigger, "error", err)
		return
	}

	for _, source := range result.Sources {
		if !source.Success && source.Error != "" {
			slog.Warn("Brand fetch failed", "brand", source.BrandName, "error", source.Error)
		}
	}
}

// finishRun returns to Idle unless Stop already moved us to Stopped.
func (s *Scheduler) finishRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = StateIdle
	}
}
