// Package schedule re-runs a job on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is invoked on every tick. It runs on the scheduler goroutine; ticks that
// fire while a job is still running are skipped.
type Job func(ctx context.Context)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse validates a standard 5-field cron expression, e.g. "*/15 * * * *".
func Parse(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Scheduler drives a Job from a cron.Schedule.
type Scheduler struct {
	sched cron.Schedule
	job   Job

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New parses spec and returns a stopped scheduler.
func New(spec string, job Job) (*Scheduler, error) {
	sched, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	return NewWithSchedule(sched, job), nil
}

// NewWithSchedule returns a stopped scheduler for an already parsed schedule.
func NewWithSchedule(sched cron.Schedule, job Job) *Scheduler {
	return &Scheduler{sched: sched, job: job}
}

// Start launches the scheduler loop. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancels the loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		now := time.Now()
		next := s.sched.Next(now)
		if next.IsZero() {
			log.Warn().Msg("schedule has no future activations")
			return
		}
		log.Debug().Time("next", next).Msg("scheduled run")

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.job(ctx)
	}
}
