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

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/circuitkg/core"
)

const (
	mainLogicFile   = "main_logic_kg.json"
	connectionsFile = "circuit_connections.json"
	unifiedFile     = "unified_graph.json"
	reportFile      = "pipeline_report.json"
	summaryFile     = "sub_logic_summary.json"
	sectionSuffix   = "_kg.json"
)

// FileStore is the JSON-file StageStore: one directory per run.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ StageStore = (*FileStore)(nil)

// NewFileStore creates the output directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", ErrInvalidDir, dir)
	}

	return &FileStore{
		dir:    dir,
		logger: slog.Default().With("component", "file-store"),
	}, nil
}

// SaveMainLogic implements StageStore.
func (s *FileStore) SaveMainLogic(graph *core.PartialGraph) error {
	return s.writeJSON(mainLogicFile, graph)
}

// LoadMainLogic implements StageStore.
func (s *FileStore) LoadMainLogic() (*core.PartialGraph, error) {
	return s.readGraph(mainLogicFile)
}

// SaveSection implements StageStore.
func (s *FileStore) SaveSection(graph *core.PartialGraph) error {
	return s.writeJSON(sectionFileName(graph.SectionNum), graph)
}

// LoadSections implements StageStore. Sections come back ordered by file
// name so fusion input order is stable across runs.
func (s *FileStore) LoadSections() ([]*core.PartialGraph, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == mainLogicFile || !strings.HasSuffix(name, sectionSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	graphs := make([]*core.PartialGraph, 0, len(names))
	for _, name := range names {
		graph, err := s.readGraph(name)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, graph)
	}
	return graphs, nil
}

// SaveConnections implements StageStore.
func (s *FileStore) SaveConnections(graph *core.PartialGraph) error {
	return s.writeJSON(connectionsFile, graph)
}

// LoadConnections implements StageStore.
func (s *FileStore) LoadConnections() (*core.PartialGraph, error) {
	return s.readGraph(connectionsFile)
}

// SaveUnified implements StageStore.
func (s *FileStore) SaveUnified(graph *core.UnifiedGraph) error {
	return s.writeJSON(unifiedFile, graph)
}

// SaveReport implements StageStore.
func (s *FileStore) SaveReport(report *core.Report) error {
	return s.writeJSON(reportFile, report)
}

// subLogicSummary is the stage roll-up persisted alongside the section files.
type subLogicSummary struct {
	Sections   int      `json:"sections"`
	TotalNodes int      `json:"total_nodes"`
	TotalEdges int      `json:"total_edges"`
	Skipped    []string `json:"skipped_sections"`
}

// SaveSubLogicSummary persists the sub-logic stage roll-up.
func (s *FileStore) SaveSubLogicSummary(graphs []*core.PartialGraph, skipped []string) error {
	summary := subLogicSummary{Sections: len(graphs), Skipped: skipped}
	if summary.Skipped == nil {
		summary.Skipped = []string{}
	}
	for _, g := range graphs {
		summary.TotalNodes += len(g.Nodes)
		summary.TotalEdges += len(g.Edges)
	}
	return s.writeJSON(summaryFile, summary)
}

// sectionFileName keeps section numbers filesystem-safe.
func sectionFileName(sectionNum string) string {
	safe := strings.ReplaceAll(sectionNum, string(os.PathSeparator), "_")
	return safe + sectionSuffix
}

// writeJSON writes atomically: temp file then rename, so a crashed run
// never leaves a half-written stage file behind.
func (s *FileStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	s.logger.Debug("stage file written", "file", name, "bytes", len(data))
	return nil
}

// readGraph reads a stage file and validates it before handing it to the
// caller. Stage files may have been edited or truncated between runs, so a
// graph that violates the domain rules is treated the same as broken JSON.
func (s *FileStore) readGraph(name string) (*core.PartialGraph, error) {
	var graph core.PartialGraph
	if err := s.readJSON(name, &graph); err != nil {
		return nil, err
	}
	if err := core.ValidatePartialGraph(&graph); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStageFile, name, err)
	}
	return &graph, nil
}

func (s *FileStore) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedStageFile, name, err)
	}
	return nil
}
