package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
)

// MockService is a test double for ai.ExtractionService.
// It allows custom behavior injection via function fields and is safe for
// concurrent use, so it can sit behind a worker pool in tests.
type MockService struct {
	// AnalyzeChapterPairFunc is called by AnalyzeChapterPair if set.
	// If nil, uses default deterministic behavior.
	AnalyzeChapterPairFunc func(ctx context.Context, a, b core.Chapter) (*ai.ChapterRelation, error)

	// ExtractSectionFunc is called by ExtractSection if set.
	// If nil, uses default deterministic behavior.
	ExtractSectionFunc func(ctx context.Context, section core.Section, budget ai.NodeBudget) (*ai.SectionExtraction, error)

	// AnalyzeApplicationPairFunc is called by AnalyzeApplicationPair if set.
	// If nil, uses default deterministic behavior.
	AnalyzeApplicationPairFunc func(ctx context.Context, a, b core.Node) (*ai.ConnectionEvidence, error)

	mu        sync.Mutex
	callCount int
}

var _ ai.ExtractionService = (*MockService)(nil)

// NewMockService creates a mock extraction service with default
// deterministic behavior.
func NewMockService() *MockService {
	return &MockService{}
}

// AnalyzeChapterPair returns a relation with the first chapter as
// prerequisite of the second.
func (m *MockService) AnalyzeChapterPair(ctx context.Context, a, b core.Chapter) (*ai.ChapterRelation, error) {
	m.count()

	if m.AnalyzeChapterPairFunc != nil {
		return m.AnalyzeChapterPairFunc(ctx, a, b)
	}

	return &ai.ChapterRelation{
		Related:      true,
		Prerequisite: a.Num,
		Dependent:    b.Num,
		Relationship: "depends_on",
		Description:  fmt.Sprintf("chapter %s builds on chapter %s", b.Num, a.Num),
		Weight:       0.8,
	}, nil
}

// ExtractSection returns one node per layer and one relation chaining them.
func (m *MockService) ExtractSection(ctx context.Context, section core.Section, budget ai.NodeBudget) (*ai.SectionExtraction, error) {
	m.count()

	if m.ExtractSectionFunc != nil {
		return m.ExtractSectionFunc(ctx, section, budget)
	}

	return &ai.SectionExtraction{
		BasicConcepts: []ai.ExtractedNode{
			{ID: "concept_1", Label: "concept of " + section.Title, Keywords: []string{"concept"}},
		},
		CoreTechnologies: []ai.ExtractedNode{
			{ID: "tech_1", Label: "technique of " + section.Title, Keywords: []string{"technique"}},
		},
		CircuitApplications: []ai.ExtractedNode{
			{ID: "app_1", Label: "circuit of " + section.Title, Keywords: []string{"circuit"}},
		},
		Relations: []ai.ExtractedRelation{
			{SourceID: "concept_1", TargetID: "tech_1", Relationship: "supports", Weight: 0.7},
			{SourceID: "tech_1", TargetID: "app_1", Relationship: "enables", Weight: 0.7},
		},
	}, nil
}

// AnalyzeApplicationPair reports the two applications as connected.
func (m *MockService) AnalyzeApplicationPair(ctx context.Context, a, b core.Node) (*ai.ConnectionEvidence, error) {
	m.count()

	if m.AnalyzeApplicationPairFunc != nil {
		return m.AnalyzeApplicationPairFunc(ctx, a, b)
	}

	return &ai.ConnectionEvidence{
		Connected:      true,
		ConnectionType: "shared_topology",
		Description:    fmt.Sprintf("%s and %s share a topology", a.Label, b.Label),
		Evidence:       "both circuits use the same stage structure",
	}, nil
}

// CallCount returns the number of times any method was called.
func (m *MockService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected functions.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.AnalyzeChapterPairFunc = nil
	m.ExtractSectionFunc = nil
	m.AnalyzeApplicationPairFunc = nil
}

func (m *MockService) count() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// MockCache is an in-memory ai.ResponseCache for tests.
type MockCache struct {
	mu   sync.Mutex
	data map[uint64]string

	// GetErr and PutErr, when set, are returned by every Get and Put.
	GetErr error
	PutErr error
}

var _ ai.ResponseCache = (*MockCache)(nil)

// NewMockCache creates an empty in-memory response cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[uint64]string)}
}

// Get implements ai.ResponseCache.
func (m *MockCache) Get(key uint64) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Put implements ai.ResponseCache.
func (m *MockCache) Put(key uint64, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.data[key] = response
	return nil
}

// Len returns the number of cached responses.
func (m *MockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
