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

import "errors"

var (
	// ErrInvalidWorkerCount is returned when the worker count is outside [1, 32].
	ErrInvalidWorkerCount = errors.New("worker count must be between 1 and 32")

	// ErrInvalidMaxAttempts is returned when the attempt budget is below one.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least one")

	// ErrInvalidBaseDelay is returned when the backoff base delay is not positive.
	ErrInvalidBaseDelay = errors.New("base delay must be positive")

	// ErrInvalidTransition is returned when a work unit is moved to a status
	// its current status does not allow.
	ErrInvalidTransition = errors.New("invalid work unit status transition")

	// ErrStageAborted is returned by RunStage when a fatal failure stopped
	// the stage before every unit could run.
	ErrStageAborted = errors.New("stage aborted by fatal failure")
)
