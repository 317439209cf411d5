// Package builder turns document structure and extraction-service responses
// into typed partial graphs, one builder per stage.
//
// Each builder does two things: Tasks produces the stage's work units for
// the pipeline scheduler, and Assemble folds the settled task results into
// the stage's partial graph(s). Builders normalize service output (clamped
// weights, dropped relations with unknown endpoints) but never merge across
// stages; that is the fusion engine's job.
package builder
