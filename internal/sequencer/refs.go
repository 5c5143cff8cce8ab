package sequencer

import "github.com/openmrs-tools/inizexport/internal/record"

// RefsFunc extracts the identifiers a record references. References
// are ordering constraints only: every referenced record must be
// emitted before the referring one.
type RefsFunc func(record.Record) []string

// SequenceByRefs orders a batch so that every record precedes the
// records that reference it. Unlike Sequence, a record may reference
// any number of others (concept set members, concept answers), so the
// result is a dependency order rather than a tree walk: records are
// emitted in input order, except that a record's unemitted references
// are emitted first, depth-first, in list order.
//
// Anomaly semantics mirror Sequence: duplicate ids keep the first
// occurrence, references that do not resolve within the batch are
// reported and ignored, and reference cycles are reported and broken
// at the point of first detection. Every surviving record is emitted
// exactly once.
func SequenceByRefs(records []record.Record, refs RefsFunc, opts ...Option) ([]record.Record, []Anomaly, error) {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(records) == 0 {
		if cfg.requireRecords {
			return nil, nil, ErrNoRecords
		}
		return nil, nil, nil
	}

	var anomalies []Anomaly

	byID := make(map[string]record.Record, len(records))
	batch := make([]record.Record, 0, len(records))
	for _, r := range records {
		if _, dup := byID[r.ID]; dup {
			anomalies = append(anomalies, Anomaly{Kind: AnomalyDuplicateID, RecordID: r.ID})
			continue
		}
		byID[r.ID] = r
		batch = append(batch, r)
	}

	w := &refWalker{
		byID:  byID,
		refs:  refs,
		state: make(map[string]visitState, len(batch)),
		out:   make([]record.Record, 0, len(batch)),
	}
	for _, r := range batch {
		w.visit(r.ID)
	}

	return w.out, append(anomalies, w.anomalies...), nil
}

// refWalker emits records post-order: with multiple references per
// record, a record can only be placed after the last of its
// references, where the single-parent walker can emit pre-order.
type refWalker struct {
	byID      map[string]record.Record
	refs      RefsFunc
	state     map[string]visitState
	stack     []string
	out       []record.Record
	anomalies []Anomaly
}

func (w *refWalker) visit(id string) {
	if w.state[id] == stateDone {
		return
	}
	w.state[id] = stateVisiting
	w.stack = append(w.stack, id)

	for _, ref := range w.refs(w.byID[id]) {
		if ref == "" {
			continue
		}
		if _, ok := w.byID[ref]; !ok {
			w.anomalies = append(w.anomalies, Anomaly{
				Kind:     AnomalyDanglingReference,
				RecordID: id,
				ParentID: ref,
			})
			continue
		}
		if w.state[ref] == stateVisiting {
			w.anomalies = append(w.anomalies, Anomaly{
				Kind:     AnomalyCycleDetected,
				RecordID: ref,
				Members:  cycleMembers(w.stack, ref),
			})
			continue
		}
		w.visit(ref)
	}

	w.out = append(w.out, w.byID[id])
	w.stack = w.stack[:len(w.stack)-1]
	w.state[id] = stateDone
}
