package ai

// ChapterRelation is the main-logic stage's tagged response: the outcome of
// analyzing one chapter pair. Direction always runs from prerequisite to
// dependent.
type ChapterRelation struct {
	Related      bool    `json:"related"`
	Prerequisite string  `json:"prerequisite"` // chapter number of the prerequisite side
	Dependent    string  `json:"dependent"`    // chapter number of the dependent side
	Relationship string  `json:"relationship"` // e.g. "depends_on", "builds_on"
	Description  string  `json:"description"`
	Weight       float64 `json:"weight"`
}

// ExtractedNode is one node fragment in a section extraction. IDs are only
// locally unique within the section.
type ExtractedNode struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

// ExtractedRelation is one intra-section edge fragment. Evidence carries the
// supporting text extracted from the section.
type ExtractedRelation struct {
	SourceID     string  `json:"source_id"`
	TargetID     string  `json:"target_id"`
	Relationship string  `json:"relationship"`
	Description  string  `json:"description"`
	Evidence     string  `json:"evidence"`
	Weight       float64 `json:"weight"`
}

// SectionExtraction is the sub-logic stage's tagged response: the three
// node layers plus intra-section relations for one section.
type SectionExtraction struct {
	BasicConcepts       []ExtractedNode     `json:"basic_concepts"`
	CoreTechnologies    []ExtractedNode     `json:"core_technologies"`
	CircuitApplications []ExtractedNode     `json:"circuit_applications"`
	Relations           []ExtractedRelation `json:"relationships"`
}

// ConnectionEvidence is the connection stage's tagged response: whether two
// circuit applications from different sections are technically connected,
// and the supporting evidence.
type ConnectionEvidence struct {
	Connected      bool   `json:"has_connection"`
	ConnectionType string `json:"connection_type"`
	Description    string `json:"description"`
	Evidence       string `json:"technical_evidence"`
}
