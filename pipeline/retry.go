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
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/poiesic/circuitkg/ai"
)

// BackoffPolicy computes the delay before the given retry. attempt is the
// number of the attempt that just failed, starting at 1.
type BackoffPolicy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff doubles the base delay on each retry and adds uniform
// jitter in [0, base) so stalled workers do not retry in lockstep.
type ExponentialBackoff struct {
	base   time.Duration
	jitter func(base time.Duration) time.Duration
}

// NewExponentialBackoff creates a backoff policy with the given base delay.
func NewExponentialBackoff(base time.Duration) (*ExponentialBackoff, error) {
	if base <= 0 {
		return nil, ErrInvalidBaseDelay
	}
	return &ExponentialBackoff{
		base: base,
		jitter: func(base time.Duration) time.Duration {
			return time.Duration(rand.Int64N(int64(base)))
		},
	}, nil
}

// NextDelay implements BackoffPolicy: base * 2^(attempt-1) plus jitter.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay + b.jitter(b.base)
}

// RetryController runs a task to settlement: transient failures are retried
// until the attempt budget is spent, fatal failures and context cancellation
// stop the unit immediately.
type RetryController struct {
	maxAttempts int
	backoff     BackoffPolicy
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *slog.Logger
}

// NewRetryController creates a controller that runs a unit at most
// maxAttempts times in total, the first try included.
func NewRetryController(maxAttempts int, backoff BackoffPolicy) (*RetryController, error) {
	if maxAttempts < 1 {
		return nil, ErrInvalidMaxAttempts
	}
	return &RetryController{
		maxAttempts: maxAttempts,
		backoff:    backoff,
		sleep:      sleepContext,
		logger:     slog.Default().With("component", "retry"),
	}, nil
}

// Execute runs the task until it succeeds, exhausts its retries, or hits a
// non-retryable failure. The unit's status reflects the outcome.
func (c *RetryController) Execute(ctx context.Context, task Task) TaskResult {
	unit := task.Unit

	for {
		if err := ctx.Err(); err != nil {
			return c.fail(task, err)
		}
		if err := unit.transition(StatusRunning); err != nil {
			return TaskResult{Unit: unit, Err: err, Attempts: unit.Attempts()}
		}

		graph, err := task.Run(ctx)
		if err == nil {
			unit.transition(StatusSucceeded)
			if unit.Attempts() > 1 {
				c.logger.Debug("unit succeeded after retry",
					"stage", unit.Stage, "unit", unit.Key, "attempts", unit.Attempts())
			}
			return TaskResult{Unit: unit, Graph: graph, Attempts: unit.Attempts()}
		}

		attempt := unit.Attempts()
		if ai.IsFatal(err) || !ai.IsTransient(err) || attempt >= c.maxAttempts || ctx.Err() != nil {
			return c.fail(task, err)
		}

		delay := c.backoff.NextDelay(attempt)
		c.logger.Debug("unit failed, will retry",
			"stage", unit.Stage, "unit", unit.Key, "attempt", attempt,
			"delay", delay, "err", err)

		unit.transition(StatusRetrying)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return c.fail(task, err)
		}
	}
}

func (c *RetryController) fail(task Task, err error) TaskResult {
	unit := task.Unit
	unit.transition(StatusFailed)
	c.logger.Debug("unit failed",
		"stage", unit.Stage, "unit", unit.Key, "attempts", unit.Attempts(), "err", err)
	return TaskResult{Unit: unit, Err: err, Attempts: unit.Attempts()}
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
