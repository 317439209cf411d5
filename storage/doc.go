// Package storage persists the pipeline's intermediate and final state.
//
// Every persisted artifact is JSON: one file per sub-logic section, one for
// the main-logic graph, one for the connection graph, and the unified graph
// in the schema the visualization collaborator consumes. Stage files let a
// run skip stages that already completed and let the fusion engine read a
// stage's output back verbatim.
//
// The badger subpackage provides the extraction response cache.
package storage
