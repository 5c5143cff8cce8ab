package sequencer

import (
	"fmt"
	"strings"
)

// AnomalyKind categorizes structural anomalies found while sequencing.
type AnomalyKind string

const (
	// AnomalyDuplicateID indicates two records in the batch shared an
	// identifier. The first occurrence (by input order) wins; the later
	// one is dropped from processing.
	AnomalyDuplicateID AnomalyKind = "DUPLICATE_ID"

	// AnomalyDanglingParent indicates a parent reference that does not
	// resolve within the batch. The record is treated as a root and
	// still emitted.
	AnomalyDanglingParent AnomalyKind = "DANGLING_PARENT"

	// AnomalyDanglingReference indicates a list reference (set member,
	// answer) that does not resolve within the batch. The reference is
	// ignored for ordering; the record is still emitted.
	AnomalyDanglingReference AnomalyKind = "DANGLING_REFERENCE"

	// AnomalyCycleDetected indicates a parent-reference cycle,
	// including the self-reference case (cycle of length one). The
	// cycle is broken at the point of first detection.
	AnomalyCycleDetected AnomalyKind = "CYCLE_DETECTED"
)

// Anomaly is a recoverable structural problem detected during a
// Sequence call. Anomalies are data, not errors: the export still
// completes and the caller decides whether to log, warn, or abort.
type Anomaly struct {
	// Kind identifies the anomaly category.
	Kind AnomalyKind

	// RecordID is the record at which the anomaly was detected. For
	// cycles this is the member at which the walk closed the loop.
	RecordID string

	// ParentID is the unresolved reference for dangling-parent
	// anomalies.
	ParentID string

	// Members lists the cycle's member ids in walk order, starting at
	// RecordID. Empty for non-cycle anomalies.
	Members []string
}

// String renders the anomaly as an operator-facing warning line.
func (a Anomaly) String() string {
	switch a.Kind {
	case AnomalyDuplicateID:
		return fmt.Sprintf("duplicate id %q: first occurrence kept, later occurrence dropped", a.RecordID)
	case AnomalyDanglingParent:
		return fmt.Sprintf("record %q references missing parent %q: treated as root", a.RecordID, a.ParentID)
	case AnomalyDanglingReference:
		return fmt.Sprintf("record %q references missing record %q: reference ignored", a.RecordID, a.ParentID)
	case AnomalyCycleDetected:
		return fmt.Sprintf("parent cycle through [%s]: broken at %q", strings.Join(a.Members, " -> "), a.RecordID)
	}
	return fmt.Sprintf("%s: record %q", a.Kind, a.RecordID)
}
