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

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
	"github.com/poiesic/circuitkg/pipeline"
)

// MainLogicBuilder produces the chapter-level graph: one node per chapter
// and directed prerequisite edges inferred per chapter pair.
type MainLogicBuilder struct {
	service ai.ExtractionService
	logger  *slog.Logger
}

// NewMainLogicBuilder creates the main-logic stage builder.
func NewMainLogicBuilder(service ai.ExtractionService) (*MainLogicBuilder, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	return &MainLogicBuilder{
		service: service,
		logger:  slog.Default().With("component", "main-logic-builder"),
	}, nil
}

// Tasks returns one work unit per unordered chapter pair. A pair whose
// chapters turn out unrelated contributes no graph.
func (b *MainLogicBuilder) Tasks(doc *core.Document) []pipeline.Task {
	chapters := doc.Chapters()
	var tasks []pipeline.Task
	for i := 0; i < len(chapters); i++ {
		for j := i + 1; j < len(chapters); j++ {
			a, c := chapters[i], chapters[j]
			key := fmt.Sprintf("%s-%s", a.Num, c.Num)
			tasks = append(tasks, pipeline.Task{
				Unit: pipeline.NewWorkUnit(core.StageMainLogic, key, ""),
				Run: func(ctx context.Context) (*core.PartialGraph, error) {
					return b.analyzePair(ctx, a, c)
				},
			})
		}
	}
	return tasks
}

func (b *MainLogicBuilder) analyzePair(ctx context.Context, a, c core.Chapter) (*core.PartialGraph, error) {
	rel, err := b.service.AnalyzeChapterPair(ctx, a, c)
	if err != nil {
		return nil, err
	}
	if !rel.Related {
		return nil, nil
	}

	if !validPairEndpoints(rel, a.Num, c.Num) {
		b.logger.Warn("chapter relation names chapters outside the pair, dropping",
			"pair", a.Num+"-"+c.Num, "prerequisite", rel.Prerequisite, "dependent", rel.Dependent)
		return nil, nil
	}

	relationship := rel.Relationship
	if relationship == "" {
		relationship = "depends_on"
	}
	weight := rel.Weight
	if weight <= 0 {
		weight = 0.5
	}

	return &core.PartialGraph{
		Stage: core.StageMainLogic,
		Edges: []core.Edge{{
			SourceID:     rel.Prerequisite,
			TargetID:     rel.Dependent,
			Relationship: relationship,
			Description:  rel.Description,
			Weight:       core.ClampWeight(weight),
			Type:         core.EdgeTypeMainLogic,
		}},
	}, nil
}

// validPairEndpoints checks that the relation points between the two
// chapters that were actually asked about.
func validPairEndpoints(rel *ai.ChapterRelation, a, b string) bool {
	if rel.Prerequisite == rel.Dependent {
		return false
	}
	in := func(num string) bool { return num == a || num == b }
	return in(rel.Prerequisite) && in(rel.Dependent)
}

// Assemble builds the stage's partial graph: every chapter as a node plus
// the prerequisite edges from the successful pair results. Failed units are
// the caller's to report.
func (b *MainLogicBuilder) Assemble(doc *core.Document, results []pipeline.TaskResult) *core.PartialGraph {
	chapters := doc.Chapters()
	graph := &core.PartialGraph{Stage: core.StageMainLogic, Title: doc.Title}

	for _, c := range chapters {
		graph.Nodes = append(graph.Nodes, core.Node{
			ID:      c.Num,
			Label:   c.Title,
			Type:    core.NodeTypeMainLogic,
			Summary: c.Summary,
			// Top-level chapters sit at level 0.
			Level: c.Depth - 1,
		})
	}

	for _, result := range results {
		if result.Err != nil || result.Graph == nil {
			continue
		}
		graph.Edges = append(graph.Edges, result.Graph.Edges...)
	}
	return graph
}
