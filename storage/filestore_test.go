package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/circuitkg/core"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileStoreMainLogicRoundTrip(t *testing.T) {
	store := testStore(t)

	graph := &core.PartialGraph{
		Stage: core.StageMainLogic,
		Title: "Analog Circuits",
		Nodes: []core.Node{{ID: "1", Label: "Semiconductors", Type: core.NodeTypeMainLogic, Keywords: []string{"semiconductor"}}},
		Edges: []core.Edge{{SourceID: "1", TargetID: "2", Relationship: "depends_on", Weight: 0.8, Type: core.EdgeTypeMainLogic}},
	}
	require.NoError(t, store.SaveMainLogic(graph))

	loaded, err := store.LoadMainLogic()
	require.NoError(t, err)
	assert.Equal(t, graph, loaded)
}

func TestFileStoreMissingStage(t *testing.T) {
	store := testStore(t)

	_, err := store.LoadMainLogic()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.LoadConnections()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSectionsOrderedBySectionNum(t *testing.T) {
	store := testStore(t)

	for _, num := range []string{"2.1", "1.1", "1.2"} {
		require.NoError(t, store.SaveSection(&core.PartialGraph{
			Stage:      core.StageSubLogic,
			SectionNum: num,
		}))
	}

	graphs, err := store.LoadSections()
	require.NoError(t, err)
	require.Len(t, graphs, 3)
	assert.Equal(t, "1.1", graphs[0].SectionNum)
	assert.Equal(t, "1.2", graphs[1].SectionNum)
	assert.Equal(t, "2.1", graphs[2].SectionNum)
}

func TestFileStoreLoadSectionsIgnoresOtherFiles(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.SaveMainLogic(&core.PartialGraph{Stage: core.StageMainLogic}))
	require.NoError(t, store.SaveConnections(&core.PartialGraph{Stage: core.StageConnection}))
	require.NoError(t, store.SaveSection(&core.PartialGraph{Stage: core.StageSubLogic, SectionNum: "1.1"}))

	graphs, err := store.LoadSections()
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, "1.1", graphs[0].SectionNum)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := testStore(t)

	require.NoError(t, store.SaveConnections(&core.PartialGraph{Stage: core.StageConnection}))
	updated := &core.PartialGraph{
		Stage: core.StageConnection,
		Edges: []core.Edge{{SourceID: "1.1::a", TargetID: "2.1::b", Relationship: "related_to", Weight: 0.5, Type: core.EdgeTypeCrossSection}},
	}
	require.NoError(t, store.SaveConnections(updated))

	loaded, err := store.LoadConnections()
	require.NoError(t, err)
	assert.Equal(t, updated, loaded)
}

func TestFileStoreUnifiedGraphSchema(t *testing.T) {
	store := testStore(t)

	graph := &core.UnifiedGraph{
		Title:     "Analog Circuits",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Nodes: []core.Node{
			{ID: "main::1", Label: "Semiconductors", Type: core.NodeTypeMainLogic, Level: 0},
		},
	}
	graph.ComputeStatistics()
	require.NoError(t, store.SaveUnified(graph))

	data, err := os.ReadFile(filepath.Join(store.dir, unifiedFile))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"title", "timestamp", "total_nodes", "total_edges", "nodes", "edges", "statistics"} {
		assert.Contains(t, decoded, key)
	}

	node := decoded["nodes"].([]any)[0].(map[string]any)
	assert.Contains(t, node, "section_num")
	assert.Nil(t, node["section_num"], "chapter nodes serialize section_num as null")

	stats := decoded["statistics"].(map[string]any)
	for _, key := range []string{"main_logic_nodes", "basic_concept_nodes", "core_technology_nodes", "circuit_application_nodes", "cross_section_edges"} {
		assert.Contains(t, stats, key)
	}
}

func TestFileStoreMalformedStageFile(t *testing.T) {
	store := testStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(store.dir, mainLogicFile), []byte("not json"), 0o644))
	_, err := store.LoadMainLogic()
	assert.ErrorIs(t, err, ErrMalformedStageFile)
}

func TestFileStoreRejectsInvalidStageFile(t *testing.T) {
	store := testStore(t)

	// Well-formed JSON that breaks the weight contract, as a hand-edited
	// stage file could.
	graph := &core.PartialGraph{
		Stage:      core.StageSubLogic,
		SectionNum: "1.1",
		Nodes:      []core.Node{{ID: "1.1::a", Label: "Amplifier", Type: core.NodeTypeCircuitApplication}},
		Edges:      []core.Edge{{SourceID: "1.1::a", TargetID: "1.1::b", Relationship: "uses", Weight: 2.5, Type: core.EdgeTypeIntraSection}},
	}
	data, err := json.Marshal(graph)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, sectionFileName("1.1")), data, 0o644))

	_, err = store.LoadSections()
	assert.ErrorIs(t, err, ErrMalformedStageFile)
	assert.ErrorContains(t, err, "weight")

	require.NoError(t, os.WriteFile(filepath.Join(store.dir, connectionsFile), data, 0o644))
	_, err = store.LoadConnections()
	assert.ErrorIs(t, err, ErrMalformedStageFile)
}

func TestFileStoreSubLogicSummary(t *testing.T) {
	store := testStore(t)

	graphs := []*core.PartialGraph{
		{Stage: core.StageSubLogic, SectionNum: "1.1", Nodes: make([]core.Node, 3), Edges: make([]core.Edge, 2)},
		{Stage: core.StageSubLogic, SectionNum: "1.2", Nodes: make([]core.Node, 2)},
	}
	require.NoError(t, store.SaveSubLogicSummary(graphs, []string{"1.3"}))

	data, err := os.ReadFile(filepath.Join(store.dir, summaryFile))
	require.NoError(t, err)

	var summary subLogicSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 2, summary.Sections)
	assert.Equal(t, 5, summary.TotalNodes)
	assert.Equal(t, 2, summary.TotalEdges)
	assert.Equal(t, []string{"1.3"}, summary.Skipped)
}

func TestNewFileStoreRejectsFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewFileStore(file)
	assert.ErrorIs(t, err, ErrInvalidDir)
}
