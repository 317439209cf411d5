package fusion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/circuitkg/core"
)

func fixedFuser(opts ...Option) *Fuser {
	f := NewFuser(opts...)
	f.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func mainGraph() *core.PartialGraph {
	return &core.PartialGraph{
		Stage: core.StageMainLogic,
		Title: "Analog Circuits",
		Nodes: []core.Node{
			{ID: "1", Label: "Semiconductors", Type: core.NodeTypeMainLogic},
			{ID: "2", Label: "Amplifiers", Type: core.NodeTypeMainLogic},
		},
		Edges: []core.Edge{
			{SourceID: "1", TargetID: "2", Relationship: "depends_on", Weight: 0.8, Type: core.EdgeTypeMainLogic},
		},
	}
}

// subGraph builds a three-node section: concept -> technology -> application.
func subGraph(section string) *core.PartialGraph {
	return &core.PartialGraph{
		Stage:      core.StageSubLogic,
		SectionNum: section,
		Nodes: []core.Node{
			{ID: "c1", Label: "concept", Type: core.NodeTypeBasicConcept, Level: 1, SectionNum: section},
			{ID: "t1", Label: "technology", Type: core.NodeTypeCoreTechnology, Level: 2, SectionNum: section},
			{ID: "a1", Label: "application", Type: core.NodeTypeCircuitApplication, Level: 3, SectionNum: section},
		},
		Edges: []core.Edge{
			{SourceID: "c1", TargetID: "t1", Relationship: "supports", Weight: 0.7, Type: core.EdgeTypeIntraSection},
			{SourceID: "t1", TargetID: "a1", Relationship: "enables", Weight: 0.7, Type: core.EdgeTypeIntraSection},
		},
	}
}

func connectionGraph() *core.PartialGraph {
	return &core.PartialGraph{
		Stage: core.StageConnection,
		Edges: []core.Edge{
			{SourceID: "1.1::a1", TargetID: "2.1::a1", Relationship: "related_to", Weight: 0.6, Type: core.EdgeTypeCrossSection},
		},
	}
}

func TestFuseTwoChaptersTwoSections(t *testing.T) {
	graph, report := fixedFuser().Fuse(
		mainGraph(),
		[]*core.PartialGraph{subGraph("1.1"), subGraph("2.1")},
		connectionGraph(),
		"Analog Circuits")

	assert.True(t, report.Empty())
	assert.Equal(t, 8, graph.TotalNodes)
	assert.Equal(t, 8, graph.TotalEdges)

	// One prerequisite, four intra-section, one cross-section, and one
	// hierarchy edge per section to its single top-level node.
	counts := map[core.EdgeType]int{}
	for _, e := range graph.Edges {
		counts[e.Type]++
	}
	assert.Equal(t, 1, counts[core.EdgeTypeMainLogic])
	assert.Equal(t, 4, counts[core.EdgeTypeIntraSection])
	assert.Equal(t, 2, counts[core.EdgeTypeHierarchy])
	assert.Equal(t, 1, counts[core.EdgeTypeCrossSection])

	assert.Equal(t, 2, graph.Statistics.MainLogicNodes)
	assert.Equal(t, 2, graph.Statistics.BasicConceptNodes)
	assert.Equal(t, 2, graph.Statistics.CoreTechnologyNodes)
	assert.Equal(t, 2, graph.Statistics.CircuitApplicationNodes)
	assert.Equal(t, 1, graph.Statistics.CrossSectionEdges)

	// No dangling edges survive fusion.
	ids := make(map[string]bool)
	for _, n := range graph.Nodes {
		assert.False(t, ids[n.ID], "duplicate node id %s", n.ID)
		ids[n.ID] = true
	}
	for _, e := range graph.Edges {
		assert.True(t, ids[e.SourceID], "dangling source %s", e.SourceID)
		assert.True(t, ids[e.TargetID], "dangling target %s", e.TargetID)
	}
}

func TestFuseHierarchyTargetsTopLevelNodes(t *testing.T) {
	graph, _ := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{subGraph("1.1")}, nil, "t")

	var hierarchy []core.Edge
	for _, e := range graph.Edges {
		if e.Type == core.EdgeTypeHierarchy {
			hierarchy = append(hierarchy, e)
		}
	}
	// Only c1 has zero in-degree within the section.
	require.Len(t, hierarchy, 1)
	assert.Equal(t, "main::1", hierarchy[0].SourceID)
	assert.Equal(t, "1.1::c1", hierarchy[0].TargetID)
	assert.Equal(t, "contains", hierarchy[0].Relationship)
	assert.Equal(t, hierarchyWeight, hierarchy[0].Weight)
}

func TestFuseChapterMatchFallsBackToPrefix(t *testing.T) {
	// Section 2.3.1 has no chapter node of its own; chapter 2 owns it.
	graph, report := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{subGraph("2.3.1")}, nil, "t")

	assert.True(t, report.Empty())
	found := false
	for _, e := range graph.Edges {
		if e.Type == core.EdgeTypeHierarchy {
			assert.Equal(t, "main::2", e.SourceID)
			found = true
		}
	}
	assert.True(t, found)
}

func TestFuseDedupKeepsMaxWeight(t *testing.T) {
	a := subGraph("1.1")
	// Duplicate of an extracted relation with a higher weight.
	a.Edges = append(a.Edges, core.Edge{
		SourceID: "c1", TargetID: "t1", Relationship: "supports", Weight: 0.9, Type: core.EdgeTypeIntraSection,
	})

	graph, _ := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{a}, nil, "t")

	matches := 0
	for _, e := range graph.Edges {
		if e.SourceID == "1.1::c1" && e.TargetID == "1.1::t1" && e.Relationship == "supports" {
			matches++
			assert.Equal(t, 0.9, e.Weight)
		}
	}
	assert.Equal(t, 1, matches)
}

func TestDedupIsOrderIndependent(t *testing.T) {
	low := core.Edge{SourceID: "A", TargetID: "B", Relationship: "extends", Weight: 0.4}
	high := core.Edge{SourceID: "A", TargetID: "B", Relationship: "extends", Weight: 0.9}
	other := core.Edge{SourceID: "B", TargetID: "C", Relationship: "extends", Weight: 0.5}

	forward := dedupEdges([]core.Edge{low, high, other})
	backward := dedupEdges([]core.Edge{other, high, low})

	require.Equal(t, forward, backward)
	require.Len(t, forward, 2)
	assert.Equal(t, 0.9, forward[0].Weight)
}

func TestFuseIsDeterministic(t *testing.T) {
	run := func() []byte {
		graph, _ := fixedFuser().Fuse(
			mainGraph(),
			[]*core.PartialGraph{subGraph("2.1"), subGraph("1.1")},
			connectionGraph(),
			"t")
		data, err := json.Marshal(graph)
		require.NoError(t, err)
		return data
	}
	assert.Equal(t, run(), run())
}

func TestFuseOmitsSectionWithDuplicateIDs(t *testing.T) {
	bad := subGraph("1.1")
	bad.Nodes = append(bad.Nodes, core.Node{ID: "c1", Label: "again", Type: core.NodeTypeBasicConcept, SectionNum: "1.1"})

	graph, report := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{bad, subGraph("2.1")}, nil, "t")

	assert.Equal(t, []string{"1.1"}, report.OmittedSections)
	require.NotEmpty(t, report.IntegrityErrors)
	assert.Equal(t, "1.1", report.IntegrityErrors[0].Section)

	// The healthy section still fused.
	for _, n := range graph.Nodes {
		assert.NotContains(t, n.ID, "1.1::")
	}
	assert.Equal(t, 2+3, graph.TotalNodes)
}

func TestFuseOmitsSectionWithDanglingIntraEdge(t *testing.T) {
	bad := subGraph("1.1")
	bad.Edges = append(bad.Edges, core.Edge{
		SourceID: "c1", TargetID: "ghost", Relationship: "supports", Type: core.EdgeTypeIntraSection,
	})

	_, report := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{bad}, nil, "t")
	assert.Equal(t, []string{"1.1"}, report.OmittedSections)
	require.Len(t, report.IntegrityErrors, 1)
	assert.Equal(t, "ghost", report.IntegrityErrors[0].TargetID)
}

func TestFuseReportsDanglingConnectionEdge(t *testing.T) {
	// Section 2.1 failed upstream; the connection edge referencing it must
	// be reported and dropped, not kept and not fatal.
	graph, report := fixedFuser().Fuse(
		mainGraph(),
		[]*core.PartialGraph{subGraph("1.1")},
		connectionGraph(),
		"t")

	require.Len(t, report.IntegrityErrors, 1)
	assert.Equal(t, "2.1", report.IntegrityErrors[0].Section)
	assert.Equal(t, "2.1::a1", report.IntegrityErrors[0].TargetID)

	for _, e := range graph.Edges {
		assert.NotEqual(t, core.EdgeTypeCrossSection, e.Type)
	}
	assert.Equal(t, 0, graph.Statistics.CrossSectionEdges)
}

func TestFuseStatisticsMatchCollections(t *testing.T) {
	graph, _ := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{subGraph("1.1"), subGraph("2.1")}, connectionGraph(), "t")
	assert.Equal(t, len(graph.Nodes), graph.TotalNodes)
	assert.Equal(t, len(graph.Edges), graph.TotalEdges)
}

func TestFuseIntraLayerSynthesisOptIn(t *testing.T) {
	section := subGraph("1.1")
	for i := range section.Nodes {
		section.Nodes[i].Keywords = []string{"amplifier", "gain"}
	}
	// No extracted relations so only synthesis can connect the layers.
	section.Edges = nil

	defaultGraph, _ := fixedFuser().Fuse(mainGraph(), []*core.PartialGraph{section}, nil, "t")
	for _, e := range defaultGraph.Edges {
		assert.NotEqual(t, core.EdgeTypeIntraSection, e.Type)
	}

	section = subGraph("1.1")
	for i := range section.Nodes {
		section.Nodes[i].Keywords = []string{"amplifier", "gain"}
	}
	section.Edges = nil

	synthGraph, _ := fixedFuser(WithIntraLayerLinks()).Fuse(mainGraph(), []*core.PartialGraph{section}, nil, "t")
	relationships := map[string]bool{}
	for _, e := range synthGraph.Edges {
		if e.Type == core.EdgeTypeIntraSection {
			relationships[e.Relationship] = true
		}
	}
	assert.True(t, relationships["enables"])
	assert.True(t, relationships["implements"])
	assert.True(t, relationships["supports"])
}

func TestFuseNilInputs(t *testing.T) {
	graph, report := fixedFuser().Fuse(nil, nil, nil, "empty")
	assert.True(t, report.Empty())
	assert.Zero(t, graph.TotalNodes)
	assert.Zero(t, graph.TotalEdges)
	assert.Equal(t, "empty", graph.Title)
}
