package core

import (
	"fmt"
	"io"
)

// UnitFailure records one work unit that exhausted its retries (or failed on
// a non-transient error). It carries enough context to re-run just that
// unit.
type UnitFailure struct {
	Stage    Stage  `json:"stage"`
	Key      string `json:"key"`                   // unit identifier: section number or pair key
	Section  string `json:"section,omitempty"`     // originating section, when applicable
	Attempts int    `json:"attempts"`
	Err      string `json:"error"`                 // the last attempt's error
}

// IntegrityError records a fusion-time structural problem: a dangling edge
// reference or an unresolvable node id collision. The affected section is
// omitted from the unified graph, never silently dropped.
type IntegrityError struct {
	Section      string `json:"section"`
	SourceID     string `json:"source_id,omitempty"`
	TargetID     string `json:"target_id,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Reason       string `json:"reason"`
}

// Report is the user-visible failure summary of a pipeline run. The pipeline
// never drops data without a corresponding report entry.
type Report struct {
	UnitFailures    []UnitFailure    `json:"unit_failures"`
	IntegrityErrors []IntegrityError `json:"integrity_errors"`
	OmittedSections []string         `json:"omitted_sections"`
}

// Empty reports whether the run completed without recorded failures.
func (r *Report) Empty() bool {
	return len(r.UnitFailures) == 0 && len(r.IntegrityErrors) == 0 && len(r.OmittedSections) == 0
}

// Merge appends another report's entries into r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.UnitFailures = append(r.UnitFailures, other.UnitFailures...)
	r.IntegrityErrors = append(r.IntegrityErrors, other.IntegrityErrors...)
	r.OmittedSections = append(r.OmittedSections, other.OmittedSections...)
}

// Write renders the report as human-readable text.
func (r *Report) Write(w io.Writer) {
	if r.Empty() {
		fmt.Fprintln(w, "pipeline completed with no failures")
		return
	}
	for _, f := range r.UnitFailures {
		fmt.Fprintf(w, "unit failure: stage=%s key=%s attempts=%d error=%s\n",
			f.Stage, f.Key, f.Attempts, f.Err)
	}
	for _, e := range r.IntegrityErrors {
		if e.SourceID != "" || e.TargetID != "" {
			fmt.Fprintf(w, "integrity error: section=%s edge=(%s -> %s, %s) reason=%s\n",
				e.Section, e.SourceID, e.TargetID, e.Relationship, e.Reason)
			continue
		}
		fmt.Fprintf(w, "integrity error: section=%s reason=%s\n", e.Section, e.Reason)
	}
	for _, s := range r.OmittedSections {
		fmt.Fprintf(w, "section omitted from unified graph: %s\n", s)
	}
}
