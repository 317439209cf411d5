// Package pipeline provides the concurrent execution engine that drives the
// extraction stages.
//
// A stage is a batch of independent work units. The scheduler runs them on a
// bounded worker pool, retries transient failures with exponential backoff,
// and blocks until every unit of the stage has settled. Fatal failures cancel
// the remainder of the stage; per-unit failures are collected, never raised.
//
// The package knows nothing about prompts, documents, or graphs beyond the
// core.PartialGraph a unit produces. Stage builders live in package builder.
package pipeline
