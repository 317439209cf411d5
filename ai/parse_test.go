package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanResponse_Fences(t *testing.T) {
	raw := "```json\n{\"related\": true}\n```"
	assert.Equal(t, `{"related": true}`, CleanResponse(raw))
}

func TestCleanResponse_Preamble(t *testing.T) {
	raw := "Here is the analysis:\n{\"related\": false}\nHope that helps."
	assert.Equal(t, `{"related": false}`, CleanResponse(raw))
}

func TestRepairJSON_MissingOpeningQuote(t *testing.T) {
	broken := `{"a": 1, type": "x"}`
	assert.Equal(t, `{"a": 1, "type": "x"}`, repairJSON(broken))
}

func TestRepairJSON_WellFormedUnchanged(t *testing.T) {
	ok := `{"a": 1, "type": "x"}`
	assert.Equal(t, ok, repairJSON(ok))
}

func TestParseChapterRelation(t *testing.T) {
	rel, err := ParseChapterRelation(`{
		"related": true,
		"prerequisite": "1",
		"dependent": "3",
		"relationship": "depends_on",
		"description": "chapter 3 builds on chapter 1 fundamentals",
		"weight": 0.8
	}`)
	require.NoError(t, err)
	assert.True(t, rel.Related)
	assert.Equal(t, "1", rel.Prerequisite)
	assert.Equal(t, "3", rel.Dependent)
	assert.Equal(t, 0.8, rel.Weight)
}

func TestParseChapterRelation_MissingEndpoints(t *testing.T) {
	_, err := ParseChapterRelation(`{"related": true}`)
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestParseSectionExtraction(t *testing.T) {
	ex, err := ParseSectionExtraction("```json\n" + `{
		"basic_concepts": [{"id": "bc_1", "label": "Ohm's Law", "summary": "v=ir", "keywords": ["voltage"]}],
		"core_technologies": [{"id": "ct_1", "label": "Nodal analysis", "summary": "kcl", "keywords": ["analysis"]}],
		"circuit_applications": [],
		"relationships": [{"source_id": "bc_1", "target_id": "ct_1", "relationship": "enables", "weight": 0.7, "evidence": "text"}]
	}` + "\n```")
	require.NoError(t, err)
	assert.Len(t, ex.BasicConcepts, 1)
	assert.Len(t, ex.Relations, 1)
	assert.Equal(t, "text", ex.Relations[0].Evidence)
}

func TestParseSectionExtraction_Empty(t *testing.T) {
	_, err := ParseSectionExtraction(`{"basic_concepts": [], "core_technologies": [], "circuit_applications": []}`)
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestParseConnectionEvidence(t *testing.T) {
	ev, err := ParseConnectionEvidence(`{"has_connection": true, "connection_type": "functional_combination", "technical_evidence": "both use feedback"}`)
	require.NoError(t, err)
	assert.True(t, ev.Connected)
	assert.Equal(t, "both use feedback", ev.Evidence)
}

func TestParse_MalformedIsTransient(t *testing.T) {
	_, err := ParseConnectionEvidence("not json at all")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestParse_EmptyResponse(t *testing.T) {
	_, err := ParseChapterRelation("   ")
	require.Error(t, err)
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}
