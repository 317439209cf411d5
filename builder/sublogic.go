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
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
	"github.com/poiesic/circuitkg/pipeline"
)

const (
	// defaultMinSectionLength skips sections too short to extract from.
	defaultMinSectionLength = 200

	// defaultTokensPerNode grows the per-type node budget by one for every
	// this many tokens of section content.
	defaultTokensPerNode = 400

	// minNodesPerType is the budget floor for a section that passed the
	// length filter.
	minNodesPerType = 2

	budgetEncoding = "cl100k_base"
)

// defaultCeiling bounds the per-type node budget for the largest sections.
var defaultCeiling = ai.NodeBudget{
	BasicConcepts:       10,
	CoreTechnologies:    8,
	CircuitApplications: 6,
}

// SubLogicBuilder produces one partial graph per document section: the three
// node layers plus intra-section edges carrying extracted evidence. The
// per-type node budget scales with the section's token count.
type SubLogicBuilder struct {
	service          ai.ExtractionService
	minSectionLength int
	tokensPerNode    int
	ceiling          ai.NodeBudget
	encoder          *tiktoken.Tiktoken // nil falls back to a byte estimate
	logger           *slog.Logger
}

// SubLogicOption configures a SubLogicBuilder.
type SubLogicOption func(*SubLogicBuilder) error

// WithMinSectionLength sets the content length below which a section is
// skipped rather than dispatched. Default is 200 characters.
func WithMinSectionLength(n int) SubLogicOption {
	return func(b *SubLogicBuilder) error {
		if n < 0 {
			return ErrInvalidMinSectionLength
		}
		b.minSectionLength = n
		return nil
	}
}

// WithNodeCeiling sets the per-type node budget ceiling.
func WithNodeCeiling(ceiling ai.NodeBudget) SubLogicOption {
	return func(b *SubLogicBuilder) error {
		b.ceiling = ceiling
		return nil
	}
}

// NewSubLogicBuilder creates the sub-logic stage builder.
func NewSubLogicBuilder(service ai.ExtractionService, opts ...SubLogicOption) (*SubLogicBuilder, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}

	b := &SubLogicBuilder{
		service:          service,
		minSectionLength: defaultMinSectionLength,
		tokensPerNode:    defaultTokensPerNode,
		ceiling:          defaultCeiling,
		logger:           slog.Default().With("component", "sub-logic-builder"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	encoder, err := tiktoken.GetEncoding(budgetEncoding)
	if err != nil {
		// Budgets degrade to a byte estimate when the encoding is not
		// available offline.
		b.logger.Warn("token encoding unavailable, estimating budgets from bytes", "err", err)
	} else {
		b.encoder = encoder
	}
	return b, nil
}

// Tasks returns one work unit per section long enough to extract from, plus
// the section numbers that were skipped.
func (b *SubLogicBuilder) Tasks(doc *core.Document) (tasks []pipeline.Task, skipped []string) {
	for _, section := range doc.Sections {
		if len(section.Content) < b.minSectionLength {
			b.logger.Debug("section too short, skipping", "section", section.Num, "bytes", len(section.Content))
			skipped = append(skipped, section.Num)
			continue
		}
		tasks = append(tasks, pipeline.Task{
			Unit: pipeline.NewWorkUnit(core.StageSubLogic, section.Num, section.Num),
			Run: func(ctx context.Context) (*core.PartialGraph, error) {
				return b.extractSection(ctx, section)
			},
		})
	}
	return tasks, skipped
}

func (b *SubLogicBuilder) extractSection(ctx context.Context, section core.Section) (*core.PartialGraph, error) {
	budget := b.budgetFor(section.Content)
	extraction, err := b.service.ExtractSection(ctx, section, budget)
	if err != nil {
		return nil, err
	}

	graph := &core.PartialGraph{
		Stage:      core.StageSubLogic,
		SectionNum: section.Num,
		Title:      section.Title,
	}

	b.appendNodes(graph, section.Num, extraction.BasicConcepts, core.NodeTypeBasicConcept, budget.BasicConcepts)
	b.appendNodes(graph, section.Num, extraction.CoreTechnologies, core.NodeTypeCoreTechnology, budget.CoreTechnologies)
	b.appendNodes(graph, section.Num, extraction.CircuitApplications, core.NodeTypeCircuitApplication, budget.CircuitApplications)

	known := make(map[string]core.NodeType, len(graph.Nodes))
	for _, n := range graph.Nodes {
		known[n.ID] = n.Type
	}

	for _, rel := range extraction.Relations {
		sourceType, sourceOK := known[rel.SourceID]
		targetType, targetOK := known[rel.TargetID]
		if !sourceOK || !targetOK {
			b.logger.Warn("relation references unknown node, dropping",
				"section", section.Num, "source", rel.SourceID, "target", rel.TargetID)
			continue
		}
		// Intra-section edges run upward: concept to technology,
		// technology to application.
		if sourceType.Level() >= targetType.Level() {
			b.logger.Warn("relation direction violates layer order, dropping",
				"section", section.Num, "source", rel.SourceID, "target", rel.TargetID)
			continue
		}

		description := rel.Evidence
		if description == "" {
			description = rel.Description
		}
		weight := rel.Weight
		if weight <= 0 {
			weight = 0.5
		}
		graph.Edges = append(graph.Edges, core.Edge{
			SourceID:     rel.SourceID,
			TargetID:     rel.TargetID,
			Relationship: rel.Relationship,
			Description:  description,
			Weight:       core.ClampWeight(weight),
			Type:         core.EdgeTypeIntraSection,
		})
	}
	return graph, nil
}

func (b *SubLogicBuilder) appendNodes(graph *core.PartialGraph, sectionNum string, nodes []ai.ExtractedNode, nodeType core.NodeType, budget int) {
	kept := 0
	for _, n := range nodes {
		if n.ID == "" || n.Label == "" {
			b.logger.Warn("extracted node missing id or label, dropping", "section", sectionNum)
			continue
		}
		if kept >= budget {
			break
		}
		graph.Nodes = append(graph.Nodes, core.Node{
			ID:         n.ID,
			Label:      n.Label,
			Type:       nodeType,
			Summary:    n.Summary,
			Keywords:   n.Keywords,
			Level:      nodeType.Level(),
			SectionNum: sectionNum,
		})
		kept++
	}
}

// budgetFor scales the per-type node budget with the section's token count,
// bounded below by the floor and above by the configured ceiling.
func (b *SubLogicBuilder) budgetFor(content string) ai.NodeBudget {
	tokens := b.countTokens(content)
	scaled := minNodesPerType + tokens/b.tokensPerNode
	bound := func(ceiling int) int {
		if scaled > ceiling {
			return ceiling
		}
		return scaled
	}
	return ai.NodeBudget{
		BasicConcepts:       bound(b.ceiling.BasicConcepts),
		CoreTechnologies:    bound(b.ceiling.CoreTechnologies),
		CircuitApplications: bound(b.ceiling.CircuitApplications),
	}
}

func (b *SubLogicBuilder) countTokens(content string) int {
	if b.encoder != nil {
		return len(b.encoder.Encode(content, nil, nil))
	}
	// Rough average of 4 bytes per token for technical English.
	return len(content) / 4
}

// Assemble collects the per-section graphs from the successful results.
// Failed units are the caller's to report.
func (b *SubLogicBuilder) Assemble(results []pipeline.TaskResult) []*core.PartialGraph {
	var graphs []*core.PartialGraph
	for _, result := range results {
		if result.Err != nil || result.Graph == nil {
			continue
		}
		graphs = append(graphs, result.Graph)
	}
	return graphs
}
