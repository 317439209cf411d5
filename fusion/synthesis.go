package fusion

import (
	"strings"

	"github.com/poiesic/circuitkg/core"
)

// Synthesized intra-layer links connect a section's node layers by keyword
// overlap when the extraction produced no explicit relation between them.
var intraLayerRules = []struct {
	source       core.NodeType
	target       core.NodeType
	relationship string
	weight       float64
	threshold    float64
}{
	{core.NodeTypeBasicConcept, core.NodeTypeCoreTechnology, "enables", 0.7, 0.2},
	{core.NodeTypeCoreTechnology, core.NodeTypeCircuitApplication, "implements", 0.8, 0.2},
	// Concept-to-application jumps a layer, so it needs stronger overlap.
	{core.NodeTypeBasicConcept, core.NodeTypeCircuitApplication, "supports", 0.6, 0.4},
}

// synthesizeIntraLayer emits keyword-similarity edges between a section's
// layers, with namespaced endpoints. Extracted relations win over synthetic
// ones at dedup time when they share a key and carry more weight.
func synthesizeIntraLayer(section *core.PartialGraph) []core.Edge {
	byType := make(map[core.NodeType][]core.Node)
	for _, n := range section.Nodes {
		byType[n.Type] = append(byType[n.Type], n)
	}

	var edges []core.Edge
	for _, rule := range intraLayerRules {
		for _, src := range byType[rule.source] {
			for _, dst := range byType[rule.target] {
				if keywordOverlap(src.Keywords, dst.Keywords) < rule.threshold {
					continue
				}
				edges = append(edges, core.Edge{
					SourceID:     core.SectionNodeID(section.SectionNum, src.ID),
					TargetID:     core.SectionNodeID(section.SectionNum, dst.ID),
					Relationship: rule.relationship,
					Description:  "keyword overlap between " + src.Label + " and " + dst.Label,
					Weight:       rule.weight,
					Type:         core.EdgeTypeIntraSection,
				})
			}
		}
	}
	return edges
}

// keywordOverlap is the Jaccard similarity of two keyword lists.
func keywordOverlap(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(setA)+len(setB)-intersection)
}

func toSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}
