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

import "github.com/poiesic/circuitkg/core"

// StageStore persists per-stage partial graphs and the fused output.
// Implementations must tolerate a stage being re-run: saving overwrites.
type StageStore interface {
	// SaveMainLogic persists the chapter-level graph.
	SaveMainLogic(graph *core.PartialGraph) error

	// LoadMainLogic reads the chapter-level graph back.
	// Returns ErrNotFound when the stage has not run.
	LoadMainLogic() (*core.PartialGraph, error)

	// SaveSection persists one section's graph under its section number.
	SaveSection(graph *core.PartialGraph) error

	// LoadSections reads every persisted section graph, ordered by
	// section number.
	LoadSections() ([]*core.PartialGraph, error)

	// SaveConnections persists the cross-section graph.
	SaveConnections(graph *core.PartialGraph) error

	// LoadConnections reads the cross-section graph back.
	// Returns ErrNotFound when the stage has not run.
	LoadConnections() (*core.PartialGraph, error)

	// SaveUnified persists the fused graph in the visualization schema.
	SaveUnified(graph *core.UnifiedGraph) error

	// SaveReport persists the run's failure report.
	SaveReport(report *core.Report) error
}
