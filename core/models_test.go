package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeJSON_SectionNumNull(t *testing.T) {
	node := Node{
		ID:    "main::3",
		Label: "Feedback Amplifiers",
		Type:  NodeTypeMainLogic,
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"section_num":null`, "empty section should serialize as null")
	assert.Contains(t, string(data), `"keywords":[]`, "nil keywords should serialize as empty array")

	var decoded Node
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "", decoded.SectionNum)
}

func TestNodeJSON_RoundTrip(t *testing.T) {
	node := Node{
		ID:         "3.2::ca_1",
		Label:      "Two-stage op-amp",
		Type:       NodeTypeCircuitApplication,
		Summary:    "Miller-compensated two-stage amplifier",
		Keywords:   []string{"op-amp", "compensation"},
		Level:      3,
		SectionNum: "3.2",
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded Node
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, node, decoded)
}

func TestNodeTypeLevels(t *testing.T) {
	assert.Equal(t, 0, NodeTypeMainLogic.Level())
	assert.Equal(t, 1, NodeTypeBasicConcept.Level())
	assert.Equal(t, 2, NodeTypeCoreTechnology.Level())
	assert.Equal(t, 3, NodeTypeCircuitApplication.Level())
}

func TestComputeStatistics(t *testing.T) {
	g := &UnifiedGraph{
		Nodes: []Node{
			{ID: "main::1", Label: "a", Type: NodeTypeMainLogic},
			{ID: "1.1::bc_1", Label: "b", Type: NodeTypeBasicConcept},
			{ID: "1.1::ct_1", Label: "c", Type: NodeTypeCoreTechnology},
			{ID: "1.1::ca_1", Label: "d", Type: NodeTypeCircuitApplication},
			{ID: "1.2::ca_1", Label: "e", Type: NodeTypeCircuitApplication},
		},
		Edges: []Edge{
			{SourceID: "1.1::ca_1", TargetID: "1.2::ca_1", Relationship: "relates_to", Type: EdgeTypeCrossSection},
			{SourceID: "1.1::bc_1", TargetID: "1.1::ct_1", Relationship: "enables", Type: EdgeTypeIntraSection},
		},
	}

	g.ComputeStatistics()

	assert.Equal(t, 5, g.TotalNodes)
	assert.Equal(t, 2, g.TotalEdges)
	assert.Equal(t, 1, g.Statistics.MainLogicNodes)
	assert.Equal(t, 1, g.Statistics.BasicConceptNodes)
	assert.Equal(t, 1, g.Statistics.CoreTechnologyNodes)
	assert.Equal(t, 2, g.Statistics.CircuitApplicationNodes)
	assert.Equal(t, 1, g.Statistics.CrossSectionEdges)
}

func TestEdgeKey(t *testing.T) {
	a := Edge{SourceID: "A", TargetID: "B", Relationship: "extends", Weight: 0.4}
	b := Edge{SourceID: "A", TargetID: "B", Relationship: "extends", Weight: 0.9}
	c := Edge{SourceID: "A", TargetID: "B", Relationship: "depends_on"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestHashContent_Deterministic(t *testing.T) {
	h1 := HashContent("some prompt text")
	h2 := HashContent("some prompt text")
	h3 := HashContent("other prompt text")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestNamespacing(t *testing.T) {
	assert.Equal(t, "3.2::ca_1", SectionNodeID("3.2", "ca_1"))
	assert.Equal(t, "main::3", ChapterNodeID("3"))

	ns, ok := NamespaceOf("3.2::ca_1")
	assert.True(t, ok)
	assert.Equal(t, "3.2", ns)

	_, ok = NamespaceOf("ca_1")
	assert.False(t, ok)

	assert.True(t, IsChapterID("main::3"))
	assert.False(t, IsChapterID("3.2::ca_1"))
}

func TestDocumentChapters(t *testing.T) {
	doc := &Document{
		Title: "Analog Circuit Design",
		Sections: []Section{
			{Num: "1", Title: "Fundamentals", Content: "basics"},
			{Num: "1.1", Title: "Ohm's Law", Content: "v = ir"},
			{Num: "2", Title: "Amplifiers", Content: "gain"},
			{Num: "2.3", Title: "Cascode", Content: "stacked"},
		},
	}

	chapters := doc.Chapters()
	require.Len(t, chapters, 2)
	assert.Equal(t, "1", chapters[0].Num)
	assert.Equal(t, "2", chapters[1].Num)
	assert.Equal(t, 1, chapters[0].Depth)
}

func TestChapterNumFor(t *testing.T) {
	assert.Equal(t, "3", ChapterNumFor("3.2"))
	assert.Equal(t, "3", ChapterNumFor("3.2.1"))
	assert.Equal(t, "3", ChapterNumFor("3"))
}
