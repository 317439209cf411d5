// Package fusion merges the pipeline's partial graphs into one unified
// knowledge graph.
//
// The fuser namespaces every node id, synthesizes hierarchy edges from
// chapter nodes to the top of each section graph, deduplicates edges
// order-independently, and validates every edge endpoint. A section whose
// graph cannot be fused cleanly is omitted and reported; fusion continues
// with the remaining sections. Fusion runs single-threaded after all stages
// complete and never mutates its inputs.
package fusion
