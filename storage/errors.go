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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested stage file does not exist.
	ErrNotFound = errors.New("stage file not found")

	// ErrInvalidDir indicates that the output path exists but is not a
	// directory.
	ErrInvalidDir = errors.New("output path is not a directory")

	// ErrMalformedStageFile indicates that a stage file exists but does not
	// parse as the expected graph.
	ErrMalformedStageFile = errors.New("malformed stage file")
)
