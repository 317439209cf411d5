package builder

import (
	"strings"
	"unicode"

	"github.com/poiesic/circuitkg/core"
)

// Keyword overlap dominates the similarity score; summary text overlap
// breaks ties between circuits described with different vocabularies.
const (
	keywordWeight = 0.7
	summaryWeight = 0.3
)

// Similarity scores how alike two circuit applications are, in [0, 1]. It
// combines Jaccard overlap of the keyword sets with Jaccard overlap of the
// summary token sets.
func Similarity(a, b core.Node) float64 {
	keywords := jaccard(keywordSet(a.Keywords), keywordSet(b.Keywords))
	summaries := jaccard(tokenSet(a.Summary), tokenSet(b.Summary))
	return keywordWeight*keywords + summaryWeight*summaries
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) > 2 { // drop articles and stray characters
			set[f] = struct{}{}
		}
	}
	return set
}
