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


package builder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
	"github.com/poiesic/circuitkg/pipeline"
)

const (
	// defaultThreshold is the similarity score below which a pair is not
	// worth a service call.
	defaultThreshold = 0.3

	// defaultMaxPairs caps how many candidate pairs one run analyzes.
	defaultMaxPairs = 1000

	// sampleSeed keeps pair sampling reproducible across runs.
	sampleSeed = 0x636b67 // "ckg"
)

// ConnectionBuilder discovers cross-section edges between circuit
// applications. Candidate pairs are gated by a local similarity score, the
// extraction service then confirms and labels the connection. This is the
// only quadratic stage; the pair cap bounds its cost.
type ConnectionBuilder struct {
	service   ai.ExtractionService
	threshold float64
	maxPairs  int
	logger    *slog.Logger
}

// ConnectionOption configures a ConnectionBuilder.
type ConnectionOption func(*ConnectionBuilder) error

// WithThreshold sets the similarity threshold in (0, 1]. Default is 0.3.
func WithThreshold(threshold float64) ConnectionOption {
	return func(b *ConnectionBuilder) error {
		if threshold <= 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		b.threshold = threshold
		return nil
	}
}

// WithMaxPairs caps the number of analyzed pairs. Default is 1000.
func WithMaxPairs(n int) ConnectionOption {
	return func(b *ConnectionBuilder) error {
		if n < 1 {
			return ErrInvalidMaxPairs
		}
		b.maxPairs = n
		return nil
	}
}

// NewConnectionBuilder creates the connection stage builder.
func NewConnectionBuilder(service ai.ExtractionService, opts ...ConnectionOption) (*ConnectionBuilder, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	b := &ConnectionBuilder{
		service:   service,
		threshold: defaultThreshold,
		maxPairs:  defaultMaxPairs,
		logger:    slog.Default().With("component", "connection-builder"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// candidatePair is a gated application pair awaiting service confirmation.
type candidatePair struct {
	a, b  core.Node
	score float64
}

// Tasks gathers every circuit application from the section graphs, scores
// all cross-section pairs, and returns one work unit per pair above the
// threshold. When the candidate count exceeds the cap, a seeded sample
// keeps the run bounded and reproducible.
func (b *ConnectionBuilder) Tasks(sections []*core.PartialGraph) []pipeline.Task {
	applications := collectApplications(sections)

	var candidates []candidatePair
	for i := 0; i < len(applications); i++ {
		for j := i + 1; j < len(applications); j++ {
			a, c := applications[i], applications[j]
			if a.SectionNum == c.SectionNum {
				continue
			}
			score := Similarity(a, c)
			if score < b.threshold {
				continue
			}
			candidates = append(candidates, candidatePair{a: a, b: c, score: score})
		}
	}

	if len(candidates) > b.maxPairs {
		b.logger.Info("sampling candidate pairs", "candidates", len(candidates), "cap", b.maxPairs)
		rng := rand.New(rand.NewPCG(sampleSeed, uint64(len(candidates))))
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		candidates = candidates[:b.maxPairs]
	}

	tasks := make([]pipeline.Task, 0, len(candidates))
	for _, pair := range candidates {
		key := fmt.Sprintf("%s|%s",
			core.SectionNodeID(pair.a.SectionNum, pair.a.ID),
			core.SectionNodeID(pair.b.SectionNum, pair.b.ID))
		tasks = append(tasks, pipeline.Task{
			Unit: pipeline.NewWorkUnit(core.StageConnection, key, ""),
			Run: func(ctx context.Context) (*core.PartialGraph, error) {
				return b.analyzePair(ctx, pair)
			},
		})
	}
	return tasks
}

func (b *ConnectionBuilder) analyzePair(ctx context.Context, pair candidatePair) (*core.PartialGraph, error) {
	evidence, err := b.service.AnalyzeApplicationPair(ctx, pair.a, pair.b)
	if err != nil {
		return nil, err
	}
	if !evidence.Connected {
		return nil, nil
	}

	relationship := evidence.ConnectionType
	if relationship == "" {
		relationship = "related_to"
	}
	description := evidence.Evidence
	if description == "" {
		description = evidence.Description
	}

	return &core.PartialGraph{
		Stage: core.StageConnection,
		Edges: []core.Edge{{
			SourceID:     core.SectionNodeID(pair.a.SectionNum, pair.a.ID),
			TargetID:     core.SectionNodeID(pair.b.SectionNum, pair.b.ID),
			Relationship: relationship,
			Description:  description,
			Weight:       core.ClampWeight(pair.score),
			Type:         core.EdgeTypeCrossSection,
		}},
	}, nil
}

// Assemble folds the confirmed pairs into the stage's single partial graph.
func (b *ConnectionBuilder) Assemble(results []pipeline.TaskResult) *core.PartialGraph {
	graph := &core.PartialGraph{Stage: core.StageConnection}
	for _, result := range results {
		if result.Err != nil || result.Graph == nil {
			continue
		}
		graph.Edges = append(graph.Edges, result.Graph.Edges...)
	}
	return graph
}

// collectApplications pulls every circuit application node out of the
// section graphs, stamping the owning section when the node lacks one.
func collectApplications(sections []*core.PartialGraph) []core.Node {
	var applications []core.Node
	for _, section := range sections {
		if section == nil {
			continue
		}
		for _, n := range section.Nodes {
			if n.Type != core.NodeTypeCircuitApplication {
				continue
			}
			if n.SectionNum == "" {
				n.SectionNum = section.SectionNum
			}
			applications = append(applications, n)
		}
	}
	return applications
}
