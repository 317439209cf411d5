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


package core

import "fmt"

// ValidateNode validates a Node according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Label must not be empty
//   - Type must be a defined NodeType
//
// NOT validated:
//   - SectionNum (empty is valid for main-logic nodes)
//   - Level (derived from Type by the builders; readers tolerate drift)
func ValidateNode(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: node is nil", ErrInvalidNode)
	}
	if node.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyNodeID)
	}
	if node.Label == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNode, ErrEmptyNodeLabel)
	}
	if !node.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidNode, ErrInvalidNodeType, node.Type)
	}
	return nil
}

// ValidateEdge validates an Edge according to domain rules.
//
// Validation rules:
//   - SourceID and TargetID must not be empty
//   - Weight must be within [0, 1]
//
// Endpoint resolution is NOT validated here; only the fusion engine can
// check an edge against the full node set.
func ValidateEdge(edge *Edge) error {
	if edge == nil {
		return fmt.Errorf("%w: edge is nil", ErrInvalidEdge)
	}
	if edge.SourceID == "" || edge.TargetID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEdge, ErrEmptyEndpoint)
	}
	if edge.Weight < 0 || edge.Weight > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidEdge, ErrWeightOutOfRange, edge.Weight)
	}
	return nil
}

// ValidatePartialGraph validates a partial graph structurally: the stage tag
// must be known, every node and edge must pass validation, and node ids must
// be locally unique.
func ValidatePartialGraph(g *PartialGraph) error {
	if g == nil {
		return fmt.Errorf("%w: graph is nil", ErrInvalidGraph)
	}
	switch g.Stage {
	case StageMainLogic, StageSubLogic, StageConnection:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidGraph, ErrInvalidStage, g.Stage)
	}
	seen := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		if err := ValidateNode(&g.Nodes[i]); err != nil {
			return fmt.Errorf("%w: node %d: %w", ErrInvalidGraph, i, err)
		}
		if _, dup := seen[g.Nodes[i].ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrInvalidGraph, g.Nodes[i].ID)
		}
		seen[g.Nodes[i].ID] = struct{}{}
	}
	for i := range g.Edges {
		if err := ValidateEdge(&g.Edges[i]); err != nil {
			return fmt.Errorf("%w: edge %d: %w", ErrInvalidGraph, i, err)
		}
	}
	return nil
}

// ClampWeight forces a weight into [0, 1]. Extraction services occasionally
// report weights slightly outside the contract.
func ClampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
