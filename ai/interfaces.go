package ai

import (
	"context"
	"time"

	"github.com/poiesic/circuitkg/core"
)

// Request is the opaque request shape accepted by the extraction service.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Completer is the raw prompt-in/text-out boundary to the external service.
// Implementations must be thread-safe for concurrent use and must classify
// failures via the ServiceError taxonomy.
type Completer interface {
	// Complete sends one request and returns the free-form response text.
	Complete(ctx context.Context, req Request) (string, error)
}

// NodeBudget bounds how many nodes of each type a section extraction may
// produce. Budgets scale with section token count, capped by configuration.
type NodeBudget struct {
	BasicConcepts       int
	CoreTechnologies    int
	CircuitApplications int
}

// ExtractionService is the typed per-stage extraction interface.
// Implementations must be thread-safe; the scheduler calls them from many
// workers at once.
type ExtractionService interface {
	// AnalyzeChapterPair asks the service whether a prerequisite/extension
	// relationship exists between two chapters.
	AnalyzeChapterPair(ctx context.Context, a, b core.Chapter) (*ChapterRelation, error)

	// ExtractSection extracts the three-layer node set and intra-section
	// relations from one section's text, within the given budget.
	ExtractSection(ctx context.Context, section core.Section, budget NodeBudget) (*SectionExtraction, error)

	// AnalyzeApplicationPair asks the service to characterize the technical
	// connection between two circuit-application nodes from different
	// sections.
	AnalyzeApplicationPair(ctx context.Context, a, b core.Node) (*ConnectionEvidence, error)
}

// ResponseCache stores raw service responses keyed by a content hash of the
// request, allowing a re-run to skip already-completed units.
// Implementations must be thread-safe.
type ResponseCache interface {
	// Get returns the cached response for key and whether it was present.
	Get(key uint64) (string, bool, error)

	// Put stores a response under key, overwriting any previous value.
	Put(key uint64, response string) error
}
