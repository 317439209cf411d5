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

import "errors"

// Domain validation errors
var (
	// ErrInvalidNode indicates a Node failed validation.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdge indicates an Edge failed validation.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrInvalidGraph indicates a PartialGraph failed validation.
	ErrInvalidGraph = errors.New("invalid partial graph")

	// ErrEmptyNodeID indicates the node ID field is empty.
	ErrEmptyNodeID = errors.New("node id cannot be empty")

	// ErrEmptyNodeLabel indicates the node Label field is empty.
	ErrEmptyNodeLabel = errors.New("node label cannot be empty")

	// ErrInvalidNodeType indicates an unknown NodeType value.
	ErrInvalidNodeType = errors.New("invalid node type")

	// ErrEmptyEndpoint indicates an edge endpoint id is empty.
	ErrEmptyEndpoint = errors.New("edge endpoints cannot be empty")

	// ErrWeightOutOfRange indicates an edge weight outside [0, 1].
	ErrWeightOutOfRange = errors.New("edge weight must be in [0, 1]")

	// ErrInvalidStage indicates an unknown Stage value.
	ErrInvalidStage = errors.New("invalid stage")
)
