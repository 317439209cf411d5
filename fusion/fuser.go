// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fusion

import (
	"log/slog"
	"time"

	"github.com/poiesic/circuitkg/core"
)

// hierarchyWeight is the weight of synthesized chapter-to-section edges.
const hierarchyWeight = 0.9

// Fuser merges partial graphs into a unified graph. Create one per run.
type Fuser struct {
	synthesizeIntraLayer bool
	now                  func() time.Time
	logger               *slog.Logger
}

// Option configures a Fuser.
type Option func(*Fuser)

// WithIntraLayerLinks enables synthesized keyword-similarity edges between
// the node layers of each section (concept enables technology, technology
// implements application). Off by default: only extracted relations appear.
func WithIntraLayerLinks() Option {
	return func(f *Fuser) { f.synthesizeIntraLayer = true }
}

// NewFuser creates a fusion engine.
func NewFuser(opts ...Option) *Fuser {
	f := &Fuser{
		now:    time.Now,
		logger: slog.Default().With("component", "fuser"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fuse merges the main-logic graph, the per-section graphs, and the
// connection graph into one unified graph. Sections that fail integrity
// checks are omitted and recorded in the report; Fuse itself only errors
// when it produced nothing usable at all.
func (f *Fuser) Fuse(main *core.PartialGraph, sections []*core.PartialGraph, connections *core.PartialGraph, title string) (*core.UnifiedGraph, *core.Report) {
	report := &core.Report{}
	graph := &core.UnifiedGraph{
		Title:     title,
		Timestamp: f.now().UTC(),
	}

	known := make(map[string]core.NodeType)
	var edges []core.Edge

	// Chapter nodes and prerequisite edges, namespaced under "main".
	chapterIDs := make(map[string]string) // chapter num -> namespaced id
	if main != nil {
		for _, n := range main.Nodes {
			n.ID = core.ChapterNodeID(n.ID)
			if _, dup := known[n.ID]; dup {
				report.IntegrityErrors = append(report.IntegrityErrors, core.IntegrityError{
					Section: "main",
					Reason:  "duplicate chapter node id " + n.ID,
				})
				continue
			}
			known[n.ID] = n.Type
			chapterIDs[chapterNumOf(n.ID)] = n.ID
			graph.Nodes = append(graph.Nodes, n)
		}
		for _, e := range main.Edges {
			e.SourceID = core.ChapterNodeID(e.SourceID)
			e.TargetID = core.ChapterNodeID(e.TargetID)
			edges = append(edges, e)
		}
	}

	// Section graphs: namespace, hierarchy-link, and synthesize, or omit
	// the whole section on an integrity failure.
	for _, section := range sections {
		if section == nil {
			continue
		}
		sectionNodes, sectionEdges, integrityErrs := f.fuseSection(section, chapterIDs)
		if len(integrityErrs) > 0 {
			report.IntegrityErrors = append(report.IntegrityErrors, integrityErrs...)
			report.OmittedSections = append(report.OmittedSections, section.SectionNum)
			continue
		}
		for _, n := range sectionNodes {
			if _, dup := known[n.ID]; dup {
				// Two sections claiming the same namespaced id cannot be
				// resolved mechanically; the later section is omitted.
				report.IntegrityErrors = append(report.IntegrityErrors, core.IntegrityError{
					Section: section.SectionNum,
					Reason:  "node id " + n.ID + " collides with an already fused node",
				})
				report.OmittedSections = append(report.OmittedSections, section.SectionNum)
				sectionEdges = nil
				sectionNodes = nil
				break
			}
		}
		if sectionNodes == nil && sectionEdges == nil {
			continue
		}
		for _, n := range sectionNodes {
			known[n.ID] = n.Type
		}
		graph.Nodes = append(graph.Nodes, sectionNodes...)
		edges = append(edges, sectionEdges...)
	}

	// Connection edges arrive with namespaced endpoints already.
	if connections != nil {
		edges = append(edges, connections.Edges...)
	}

	// A dangling endpoint means its section failed or was omitted, or the
	// service named a chapter that produced no node. Reported, never kept.
	edges = f.dropDanglingEdges(edges, known, report)

	graph.Edges = dedupEdges(edges)
	graph.ComputeStatistics()

	f.logger.Info("fusion complete",
		"nodes", graph.TotalNodes, "edges", graph.TotalEdges,
		"omitted_sections", len(report.OmittedSections),
		"integrity_errors", len(report.IntegrityErrors))
	return graph, report
}

// fuseSection namespaces one section graph and attaches its hierarchy and
// synthesized edges. Integrity failures return the errors instead.
func (f *Fuser) fuseSection(section *core.PartialGraph, chapterIDs map[string]string) ([]core.Node, []core.Edge, []core.IntegrityError) {
	var errs []core.IntegrityError

	local := make(map[string]core.Node, len(section.Nodes))
	for _, n := range section.Nodes {
		if _, dup := local[n.ID]; dup {
			errs = append(errs, core.IntegrityError{
				Section: section.SectionNum,
				Reason:  "duplicate node id " + n.ID + " within section",
			})
		}
		local[n.ID] = n
	}

	inDegree := make(map[string]int)
	for _, e := range section.Edges {
		if _, ok := local[e.SourceID]; !ok {
			errs = append(errs, core.IntegrityError{
				Section:      section.SectionNum,
				SourceID:     e.SourceID,
				TargetID:     e.TargetID,
				Relationship: e.Relationship,
				Reason:       "edge source does not resolve within section",
			})
		}
		if _, ok := local[e.TargetID]; !ok {
			errs = append(errs, core.IntegrityError{
				Section:      section.SectionNum,
				SourceID:     e.SourceID,
				TargetID:     e.TargetID,
				Relationship: e.Relationship,
				Reason:       "edge target does not resolve within section",
			})
		}
		inDegree[e.TargetID]++
	}
	if len(errs) > 0 {
		return nil, nil, errs
	}

	nodes := make([]core.Node, 0, len(section.Nodes))
	for _, n := range section.Nodes {
		n.ID = core.SectionNodeID(section.SectionNum, n.ID)
		if n.SectionNum == "" {
			n.SectionNum = section.SectionNum
		}
		nodes = append(nodes, n)
	}

	edges := make([]core.Edge, 0, len(section.Edges))
	for _, e := range section.Edges {
		e.SourceID = core.SectionNodeID(section.SectionNum, e.SourceID)
		e.TargetID = core.SectionNodeID(section.SectionNum, e.TargetID)
		edges = append(edges, e)
	}

	// Hierarchy edges from the owning chapter to the section's top-level
	// nodes (zero in-degree within the section graph).
	if chapterID, ok := owningChapter(section.SectionNum, chapterIDs); ok {
		for _, n := range section.Nodes {
			if inDegree[n.ID] > 0 {
				continue
			}
			edges = append(edges, core.Edge{
				SourceID:     chapterID,
				TargetID:     core.SectionNodeID(section.SectionNum, n.ID),
				Relationship: "contains",
				Description:  "chapter contains section content",
				Weight:       hierarchyWeight,
				Type:         core.EdgeTypeHierarchy,
			})
		}
	} else {
		f.logger.Warn("no chapter node owns section, skipping hierarchy edges",
			"section", section.SectionNum)
	}

	if f.synthesizeIntraLayer {
		edges = append(edges, synthesizeIntraLayer(section)...)
	}
	return nodes, edges, nil
}

// owningChapter finds the chapter node for a section: exact match on the
// section number first, then the chapter prefix ("3.2" belongs to "3").
func owningChapter(sectionNum string, chapterIDs map[string]string) (string, bool) {
	if id, ok := chapterIDs[sectionNum]; ok {
		return id, true
	}
	if id, ok := chapterIDs[core.ChapterNumFor(sectionNum)]; ok {
		return id, true
	}
	return "", false
}

// chapterNumOf strips the "main::" prefix.
func chapterNumOf(namespacedID string) string {
	const prefix = "main::"
	if len(namespacedID) > len(prefix) && namespacedID[:len(prefix)] == prefix {
		return namespacedID[len(prefix):]
	}
	return namespacedID
}

// resolveEndpoints checks a cross-stage edge against the fused node set.
func resolveEndpoints(e core.Edge, known map[string]core.NodeType) *core.IntegrityError {
	section := ""
	if ns, ok := core.NamespaceOf(e.SourceID); ok {
		section = ns
	}
	if _, ok := known[e.SourceID]; !ok {
		return &core.IntegrityError{
			Section:      section,
			SourceID:     e.SourceID,
			TargetID:     e.TargetID,
			Relationship: e.Relationship,
			Reason:       "edge source does not resolve to a fused node",
		}
	}
	if _, ok := known[e.TargetID]; !ok {
		if ns, nsOK := core.NamespaceOf(e.TargetID); nsOK {
			section = ns
		}
		return &core.IntegrityError{
			Section:      section,
			SourceID:     e.SourceID,
			TargetID:     e.TargetID,
			Relationship: e.Relationship,
			Reason:       "edge target does not resolve to a fused node",
		}
	}
	return nil
}

// dropDanglingEdges filters the assembled edge list against the final node
// set, reporting every dropped edge.
func (f *Fuser) dropDanglingEdges(edges []core.Edge, known map[string]core.NodeType, report *core.Report) []core.Edge {
	kept := edges[:0]
	for _, e := range edges {
		if err := resolveEndpoints(e, known); err != nil {
			report.IntegrityErrors = append(report.IntegrityErrors, *err)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
