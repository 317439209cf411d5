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
	"sync"

	"github.com/poiesic/circuitkg/core"
)

// Status is the lifecycle state of a work unit.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusRetrying  Status = "retrying"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// legalTransitions maps each status to the statuses it may move to.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusRunning, StatusFailed},
	StatusRunning:  {StatusRetrying, StatusSucceeded, StatusFailed},
	StatusRetrying: {StatusRunning, StatusFailed},
}

// WorkUnit is one retryable unit of stage work: a chapter pair, a section,
// or an application pair. Units start pending and settle as succeeded or
// failed; the scheduler owns all transitions.
type WorkUnit struct {
	Stage   core.Stage
	Key     string // unique within the stage, e.g. "ch1-ch3" or a section number
	Section string // owning section number, empty for units that span sections

	mu       sync.Mutex
	status   Status
	attempts int
}

// NewWorkUnit creates a pending unit.
func NewWorkUnit(stage core.Stage, key, section string) *WorkUnit {
	return &WorkUnit{Stage: stage, Key: key, Section: section, status: StatusPending}
}

// Status returns the unit's current lifecycle state.
func (u *WorkUnit) Status() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status
}

// Attempts returns how many times the unit has been run.
func (u *WorkUnit) Attempts() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attempts
}

// transition moves the unit to the given status, enforcing the lifecycle.
func (u *WorkUnit) transition(to Status) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, allowed := range legalTransitions[u.status] {
		if allowed == to {
			u.status = to
			if to == StatusRunning {
				u.attempts++
			}
			return nil
		}
	}
	return ErrInvalidTransition
}

// Task binds a work unit to the function that performs it. Run must be safe
// to call more than once; a nil graph with a nil error is legal and means
// the unit contributes nothing.
type Task struct {
	Unit *WorkUnit
	Run  func(ctx context.Context) (*core.PartialGraph, error)
}

// TaskResult is the settled outcome of one task.
type TaskResult struct {
	Unit     *WorkUnit
	Graph    *core.PartialGraph
	Err      error
	Attempts int
}

// Succeeded reports whether the task settled without error.
func (r TaskResult) Succeeded() bool {
	return r.Err == nil
}
