// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.ExtractionService and
// ai.ResponseCache for use in unit tests. The mocks allow tests to run
// without an external AI service and enable controlled, deterministic
// behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	svc := mock.NewMockService()
//	rel, err := svc.AnalyzeChapterPair(ctx, a, b)
//
//	// Custom behavior injection
//	svc.ExtractSectionFunc = func(ctx context.Context, section core.Section, budget ai.NodeBudget) (*ai.SectionExtraction, error) {
//	    return nil, ai.Timeout(errors.New("boom"))
//	}
//
//	// Check call counts
//	count := svc.CallCount()
//
// # Default Behavior
//
// MockService returns small deterministic fixtures derived from its inputs:
// chapter pairs are related with the lower-numbered chapter as prerequisite,
// sections yield one node per layer, and application pairs are connected.
package mock
