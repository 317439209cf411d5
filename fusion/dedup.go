package fusion

import (
	"sort"

	"github.com/poiesic/circuitkg/core"
)

// dedupEdges collapses duplicate edges by (source, target, relationship),
// keeping the highest weight. The result is sorted, so it depends only on
// the set of input edges, never their order.
func dedupEdges(edges []core.Edge) []core.Edge {
	best := make(map[core.EdgeKey]core.Edge, len(edges))
	for _, e := range edges {
		key := e.Key()
		current, seen := best[key]
		if !seen || better(e, current) {
			best[key] = e
		}
	}

	out := make([]core.Edge, 0, len(best))
	for _, e := range best {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Relationship < b.Relationship
	})
	return out
}

// better decides which of two duplicate edges survives: higher weight wins,
// equal weights tie-break on description then edge type so the choice never
// depends on input order.
func better(a, b core.Edge) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	if a.Description != b.Description {
		return a.Description < b.Description
	}
	return a.Type < b.Type
}
