// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
)

// MaxWorkers bounds the worker pool size.
const MaxWorkers = 32

// Scheduler runs stages of tasks on a bounded worker pool. RunStage is a
// barrier: it returns only after every task of the stage has settled, so
// callers can feed one stage's output into the next.
type Scheduler struct {
	pool     *ants.Pool
	workers  int
	retry    *RetryController
	interval time.Duration
	logger   *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithRetry replaces the default retry controller.
func WithRetry(retry *RetryController) SchedulerOption {
	return func(s *Scheduler) error {
		s.retry = retry
		return nil
	}
}

// WithProgressInterval sets how often a running stage logs progress.
// Zero disables periodic reports. Default is 30 seconds.
func WithProgressInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) error {
		s.interval = interval
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a scheduler with the given pool size. workers must
// be in [1, MaxWorkers].
func NewScheduler(workers int, opts ...SchedulerOption) (*Scheduler, error) {
	if workers < 1 || workers > MaxWorkers {
		return nil, ErrInvalidWorkerCount
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		pool:     pool,
		workers:  workers,
		interval: 30 * time.Second,
		logger:   slog.Default().With("component", "scheduler"),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			pool.Release()
			return nil, optErr
		}
	}

	if s.retry == nil {
		backoff, err := NewExponentialBackoff(time.Second)
		if err != nil {
			pool.Release()
			return nil, err
		}
		retry, err := NewRetryController(3, backoff)
		if err != nil {
			pool.Release()
			return nil, err
		}
		s.retry = retry
	}
	return s, nil
}

// Workers returns the pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// RunStage executes all tasks of one stage and waits for them to settle.
// Results are returned in task order. A fatal service failure cancels the
// units still waiting and RunStage returns ErrStageAborted; per-unit
// failures are reported only through their TaskResult.
func (s *Scheduler) RunStage(ctx context.Context, stage core.Stage, tasks []Task) ([]TaskResult, error) {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := NewTracker(stage, len(tasks))
	stopReports := s.reportLoop(stageCtx, tracker)

	var (
		wg      sync.WaitGroup
		fatalMu sync.Mutex
		fatal   error
	)

	s.logger.Info("stage started", "stage", stage, "units", len(tasks), "workers", s.workers)

	for i, task := range tasks {
		wg.Add(1)
		run := func() {
			defer wg.Done()
			started := time.Now()
			result := s.retry.Execute(stageCtx, task)
			results[i] = result
			tracker.Observe(time.Since(started), result.Err != nil)

			if result.Err != nil && ai.IsFatal(result.Err) {
				fatalMu.Lock()
				if fatal == nil {
					fatal = result.Err
				}
				fatalMu.Unlock()
				s.logger.Error("fatal failure, aborting stage",
					"stage", stage, "unit", task.Unit.Key, "err", result.Err)
				cancel()
			}
		}
		if err := s.pool.Submit(run); err != nil {
			// Pool rejected the task, settle it inline as failed.
			wg.Done()
			task.Unit.transition(StatusFailed)
			results[i] = TaskResult{Unit: task.Unit, Err: err}
			tracker.Observe(0, true)
		}
	}

	wg.Wait()
	stopReports()

	p := tracker.Snapshot()
	s.logger.Info("stage finished",
		"stage", stage, "completed", p.Completed, "failed", p.Failed,
		"elapsed", p.Elapsed.Round(time.Millisecond))

	if fatal != nil {
		return results, fmt.Errorf("%w: %w", ErrStageAborted, fatal)
	}
	return results, nil
}

// reportLoop logs progress at the configured interval until stopped.
func (s *Scheduler) reportLoop(ctx context.Context, tracker *Tracker) func() {
	if s.interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				p := tracker.Snapshot()
				s.logger.Info("stage progress",
					"stage", p.Stage, "completed", p.Completed, "failed", p.Failed,
					"total", p.Total, "eta", p.ETA.Round(time.Second))
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// Release releases the worker pool. The scheduler must not be used after
// calling Release.
func (s *Scheduler) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
