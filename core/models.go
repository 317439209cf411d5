package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Stage identifies one phase of the pipeline. Stages execute in fixed order:
// main logic, sub logic, connection, fusion.
type Stage string

const (
	StageMainLogic  Stage = "main_logic"
	StageSubLogic   Stage = "sub_logic"
	StageConnection Stage = "connection"
	StageFusion     Stage = "fusion"
)

// NodeType classifies a knowledge-graph node. The type is immutable after
// creation and determines both the node's level and which edge roles it may
// take.
type NodeType string

const (
	NodeTypeMainLogic          NodeType = "main_logic"
	NodeTypeBasicConcept       NodeType = "basic_concept"
	NodeTypeCoreTechnology     NodeType = "core_technology"
	NodeTypeCircuitApplication NodeType = "circuit_application"
)

// Valid reports whether t is one of the defined node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeMainLogic, NodeTypeBasicConcept, NodeTypeCoreTechnology, NodeTypeCircuitApplication:
		return true
	}
	return false
}

// Level returns the hierarchy level for the node type: main logic nodes sit
// at level 0, basic concepts at 1, core technologies at 2, circuit
// applications at 3.
func (t NodeType) Level() int {
	switch t {
	case NodeTypeMainLogic:
		return 0
	case NodeTypeBasicConcept:
		return 1
	case NodeTypeCoreTechnology:
		return 2
	case NodeTypeCircuitApplication:
		return 3
	}
	return 1
}

// EdgeType classifies the provenance of an edge in the unified graph.
type EdgeType string

const (
	// EdgeTypeMainLogic marks chapter-to-chapter prerequisite edges.
	EdgeTypeMainLogic EdgeType = "main_logic"
	// EdgeTypeIntraSection marks edges produced inside a single section.
	EdgeTypeIntraSection EdgeType = "intra_section"
	// EdgeTypeHierarchy marks synthesized chapter-to-section edges.
	EdgeTypeHierarchy EdgeType = "hierarchy"
	// EdgeTypeCrossSection marks similarity edges between circuit
	// applications from different sections.
	EdgeTypeCrossSection EdgeType = "cross_section"
)

// Node is a single knowledge-graph node. Within a partial graph the ID only
// has to be locally unique; the fusion engine namespaces it before merging.
type Node struct {
	ID         string
	Label      string
	Type       NodeType
	Summary    string
	Keywords   []string
	Level      int
	SectionNum string // empty for nodes not owned by a section
}

// nodeJSON is the wire form of Node. SectionNum serializes as null when the
// node is not owned by a section.
type nodeJSON struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Type       NodeType `json:"node_type"`
	Summary    string   `json:"summary"`
	Keywords   []string `json:"keywords"`
	Level      int      `json:"level"`
	SectionNum *string  `json:"section_num"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	keywords := n.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	var section *string
	if n.SectionNum != "" {
		section = &n.SectionNum
	}
	return json.Marshal(nodeJSON{
		ID:         n.ID,
		Label:      n.Label,
		Type:       n.Type,
		Summary:    n.Summary,
		Keywords:   keywords,
		Level:      n.Level,
		SectionNum: section,
	})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Label = w.Label
	n.Type = w.Type
	n.Summary = w.Summary
	n.Keywords = w.Keywords
	n.Level = w.Level
	n.SectionNum = ""
	if w.SectionNum != nil {
		n.SectionNum = *w.SectionNum
	}
	return nil
}

// Edge is a directed, weighted relationship between two nodes. An edge is
// valid only if both endpoints resolve to existing nodes after fusion.
type Edge struct {
	SourceID     string   `json:"source_id"`
	TargetID     string   `json:"target_id"`
	Relationship string   `json:"relationship"`
	Description  string   `json:"description"`
	Weight       float64  `json:"weight"`
	Type         EdgeType `json:"edge_type"`
}

// Key returns the deduplication key for the edge. Two edges with the same
// key are duplicates; the fusion engine keeps the one with the highest
// weight.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.SourceID, Target: e.TargetID, Relationship: e.Relationship}
}

// EdgeKey identifies an edge for deduplication purposes.
type EdgeKey struct {
	Source       string
	Target       string
	Relationship string
}

// PartialGraph is a graph produced by one stage (or one section of the
// sub-logic stage) prior to fusion. It is consumed exactly once by the
// fusion engine.
type PartialGraph struct {
	Stage      Stage  `json:"stage"`
	SectionNum string `json:"section_num,omitempty"`
	Title      string `json:"title,omitempty"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

// Statistics holds per-type node counts and the cross-section edge count of
// a unified graph. Counts are always recomputed from the final collections,
// never incrementally maintained.
type Statistics struct {
	MainLogicNodes          int `json:"main_logic_nodes"`
	BasicConceptNodes       int `json:"basic_concept_nodes"`
	CoreTechnologyNodes     int `json:"core_technology_nodes"`
	CircuitApplicationNodes int `json:"circuit_application_nodes"`
	CrossSectionEdges       int `json:"cross_section_edges"`
}

// UnifiedGraph is the single merged, deduplicated, statistics-annotated
// output graph of a pipeline run.
type UnifiedGraph struct {
	Title      string     `json:"title"`
	Timestamp  time.Time  `json:"timestamp"`
	TotalNodes int        `json:"total_nodes"`
	TotalEdges int        `json:"total_edges"`
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}

// ComputeStatistics recounts every statistic from the node and edge
// collections and stores the result on the graph.
func (g *UnifiedGraph) ComputeStatistics() {
	var s Statistics
	for _, n := range g.Nodes {
		switch n.Type {
		case NodeTypeMainLogic:
			s.MainLogicNodes++
		case NodeTypeBasicConcept:
			s.BasicConceptNodes++
		case NodeTypeCoreTechnology:
			s.CoreTechnologyNodes++
		case NodeTypeCircuitApplication:
			s.CircuitApplicationNodes++
		}
	}
	for _, e := range g.Edges {
		if e.Type == EdgeTypeCrossSection {
			s.CrossSectionEdges++
		}
	}
	g.Statistics = s
	g.TotalNodes = len(g.Nodes)
	g.TotalEdges = len(g.Edges)
}

// HashContent generates a deterministic 64-bit hash of text content using
// BLAKE2b. Identical content always produces identical hashes; used as the
// key space for the extraction response cache.
func HashContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
