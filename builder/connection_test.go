package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/ai/mock"
	"github.com/poiesic/circuitkg/core"
)

func appNode(id, section string, keywords ...string) core.Node {
	return core.Node{
		ID:         id,
		Label:      id,
		Type:       core.NodeTypeCircuitApplication,
		Keywords:   keywords,
		Level:      3,
		SectionNum: section,
	}
}

func sectionGraph(section string, nodes ...core.Node) *core.PartialGraph {
	return &core.PartialGraph{Stage: core.StageSubLogic, SectionNum: section, Nodes: nodes}
}

func TestConnectionTasksGateOnSimilarity(t *testing.T) {
	b, err := NewConnectionBuilder(mock.NewMockService())
	require.NoError(t, err)

	sections := []*core.PartialGraph{
		sectionGraph("1.1", appNode("amp", "1.1", "amplifier", "gain", "feedback")),
		sectionGraph("2.1", appNode("opamp", "2.1", "amplifier", "gain", "feedback")),
		sectionGraph("3.1", appNode("rectifier", "3.1", "diode", "bridge")),
	}

	tasks := b.Tasks(sections)
	// Only the amplifier pair shares keywords; the rectifier matches nothing.
	require.Len(t, tasks, 1)
	assert.Equal(t, core.StageConnection, tasks[0].Unit.Stage)
}

func TestConnectionSkipsSameSectionPairs(t *testing.T) {
	b, err := NewConnectionBuilder(mock.NewMockService())
	require.NoError(t, err)

	sections := []*core.PartialGraph{
		sectionGraph("1.1",
			appNode("a", "1.1", "amplifier", "gain"),
			appNode("b", "1.1", "amplifier", "gain")),
	}
	assert.Empty(t, b.Tasks(sections))
}

func TestConnectionEdgeHasNamespacedEndpoints(t *testing.T) {
	b, err := NewConnectionBuilder(mock.NewMockService())
	require.NoError(t, err)

	sections := []*core.PartialGraph{
		sectionGraph("1.1", appNode("amp", "1.1", "amplifier", "gain")),
		sectionGraph("2.1", appNode("opamp", "2.1", "amplifier", "gain")),
	}
	tasks := b.Tasks(sections)
	require.Len(t, tasks, 1)

	graph := b.Assemble(runAll(t, tasks))
	require.Len(t, graph.Edges, 1)

	edge := graph.Edges[0]
	assert.Equal(t, "1.1::amp", edge.SourceID)
	assert.Equal(t, "2.1::opamp", edge.TargetID)
	assert.Equal(t, core.EdgeTypeCrossSection, edge.Type)
	assert.InDelta(t, 0.7, edge.Weight, 0.001) // identical keywords, no summaries
}

func TestConnectionServiceVetoHonored(t *testing.T) {
	svc := mock.NewMockService()
	svc.AnalyzeApplicationPairFunc = func(ctx context.Context, a, b core.Node) (*ai.ConnectionEvidence, error) {
		return &ai.ConnectionEvidence{Connected: false}, nil
	}
	b, err := NewConnectionBuilder(svc)
	require.NoError(t, err)

	sections := []*core.PartialGraph{
		sectionGraph("1.1", appNode("amp", "1.1", "amplifier", "gain")),
		sectionGraph("2.1", appNode("opamp", "2.1", "amplifier", "gain")),
	}
	graph := b.Assemble(runAll(t, b.Tasks(sections)))
	assert.Empty(t, graph.Edges)
}

func TestConnectionSamplingIsDeterministic(t *testing.T) {
	b, err := NewConnectionBuilder(mock.NewMockService(), WithMaxPairs(5))
	require.NoError(t, err)

	var sections []*core.PartialGraph
	for i := range 10 {
		num := string(rune('a' + i))
		sections = append(sections, sectionGraph(num, appNode("app", num, "amplifier", "gain")))
	}

	keys := func() []string {
		var out []string
		for _, task := range b.Tasks(sections) {
			out = append(out, task.Unit.Key)
		}
		return out
	}

	first := keys()
	require.Len(t, first, 5)
	assert.Equal(t, first, keys())
}

func TestConnectionOptionValidation(t *testing.T) {
	_, err := NewConnectionBuilder(mock.NewMockService(), WithThreshold(0))
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewConnectionBuilder(mock.NewMockService(), WithMaxPairs(0))
	assert.ErrorIs(t, err, ErrInvalidMaxPairs)

	_, err = NewConnectionBuilder(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)
}

func TestSimilarityScores(t *testing.T) {
	a := appNode("a", "1.1", "amplifier", "gain")
	b := appNode("b", "2.1", "amplifier", "gain")
	c := appNode("c", "3.1", "diode", "bridge")

	assert.InDelta(t, 0.7, Similarity(a, b), 0.001)
	assert.Zero(t, Similarity(a, c))

	a.Summary = "a two stage amplifier with negative feedback"
	b.Summary = "a two stage amplifier with negative feedback"
	assert.InDelta(t, 1.0, Similarity(a, b), 0.001)
}
