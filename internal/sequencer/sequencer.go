package sequencer

import (
	"errors"

	"github.com/openmrs-tools/inizexport/internal/record"
)

// ErrNoRecords is returned by Sequence when the batch is empty and the
// caller opted into WithRequireRecords.
var ErrNoRecords = errors.New("sequencer: no records supplied")

// Option configures a Sequence call.
type Option func(*settings)

type settings struct {
	requireRecords bool
}

// WithRequireRecords makes an empty input batch a hard failure instead
// of an empty result. Use when the caller knows the source table is
// never empty, so an empty result set signals a broken extraction.
func WithRequireRecords() Option {
	return func(s *settings) {
		s.requireRecords = true
	}
}

// Sequence orders a batch of records so that, for every pair whose
// parent reference resolves cleanly, the parent's position precedes the
// child's. The walk is depth-first pre-order: after a record is
// emitted, its whole subtree is emitted before the record's next
// sibling. Roots and children are visited in input order.
//
// Structural anomalies are collected and returned, never thrown:
//   - duplicate ids keep the first occurrence and drop later ones
//   - dangling parent references are reported and treated as roots
//   - cycles (self-references included) are reported and broken at the
//     point of first detection
//
// Every record that survives duplicate resolution appears in the
// output exactly once. The ordering policy lives entirely in the walk
// below; callers depend only on the ancestor-before-descendant
// guarantee.
func Sequence(records []record.Record, opts ...Option) ([]record.Record, []Anomaly, error) {
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

	// Index by id, first occurrence wins.
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

	// Partition into roots and resolvable children. A parent reference
	// that does not resolve within the batch makes the record a root,
	// so nothing is silently lost.
	var roots []string
	children := make(map[string][]string)
	for _, r := range batch {
		if r.IsRoot() {
			roots = append(roots, r.ID)
			continue
		}
		if _, ok := byID[r.ParentID]; !ok {
			anomalies = append(anomalies, Anomaly{
				Kind:     AnomalyDanglingParent,
				RecordID: r.ID,
				ParentID: r.ParentID,
			})
			roots = append(roots, r.ID)
			continue
		}
		children[r.ParentID] = append(children[r.ParentID], r.ID)
	}

	w := &walker{
		byID:     byID,
		children: children,
		state:    make(map[string]visitState, len(batch)),
		out:      make([]record.Record, 0, len(batch)),
	}
	for _, id := range roots {
		w.visit(id)
	}

	// Records still unvisited have no root ancestor: their parent chain
	// ends in a cycle. Sweep them in input order, but start each visit
	// at a member of the cycle itself, never at a record hanging off
	// it, so those records still come after their parents. The first
	// cycle member reached becomes the effective root and the walk
	// flags the cycle where it closes.
	for _, r := range batch {
		if w.state[r.ID] != stateDone {
			w.visit(w.cycleEntry(r.ID))
		}
	}

	return w.out, append(anomalies, w.anomalies...), nil
}

type visitState uint8

const (
	stateUnvisited visitState = iota
	stateVisiting
	stateDone
)

// walker emits records depth-first pre-order, detecting cycles with a
// currently-visiting marker per node.
type walker struct {
	byID      map[string]record.Record
	children  map[string][]string
	state     map[string]visitState
	stack     []string
	out       []record.Record
	anomalies []Anomaly
}

func (w *walker) visit(id string) {
	if w.state[id] == stateDone {
		return
	}
	w.state[id] = stateVisiting
	w.stack = append(w.stack, id)
	w.out = append(w.out, w.byID[id])

	for _, child := range w.children[id] {
		if w.state[child] == stateVisiting {
			// Recursion reached a node whose visit is still open:
			// that branch is a cycle. Abort descent; the node was
			// already emitted when its visit began.
			w.anomalies = append(w.anomalies, Anomaly{
				Kind:     AnomalyCycleDetected,
				RecordID: child,
				Members:  w.cycleMembers(child),
			})
			continue
		}
		w.visit(child)
	}

	w.stack = w.stack[:len(w.stack)-1]
	w.state[id] = stateDone
}

// cycleMembers returns the open-visit chain from id to the top of the
// stack, which is exactly the cycle's membership in walk order.
func (w *walker) cycleMembers(id string) []string {
	return cycleMembers(w.stack, id)
}

// cycleEntry follows the parent chain upward from id and returns the
// first node seen twice, which is a member of the cycle the chain ends
// in. Every record left unemitted by the root walk has such a chain:
// roots and dangling-parent records were already visited, so an
// unemitted record's ancestors are all unemitted too.
func (w *walker) cycleEntry(id string) string {
	seen := make(map[string]bool)
	cur := id
	for !seen[cur] {
		seen[cur] = true
		parent, ok := w.byID[w.byID[cur].ParentID]
		if !ok {
			return cur
		}
		cur = parent.ID
	}
	return cur
}

func cycleMembers(stack []string, id string) []string {
	for i, v := range stack {
		if v == id {
			members := make([]string, len(stack)-i)
			copy(members, stack[i:])
			return members
		}
	}
	return []string{id}
}
