// Package sequencer orders export records so that every parent row
// precedes all of its descendants, as the downstream bulk-import tool
// requires.
//
// The input is a batch of records whose parent references induce a
// directed graph (edges point child to parent). In the well-formed case
// that graph is a forest and the output is a depth-first pre-order walk
// of each tree, roots taken in input order. Malformed structure -
// duplicate identifiers, dangling parent references, cycles (including
// self-references) - is reported as anomalies alongside the output
// rather than thrown, and every surviving record is still emitted
// exactly once so no data is silently lost.
//
// DETERMINISM:
//
// The walk never consults map iteration order. Roots and children are
// visited in first-seen input order, so the same batch always produces
// the same sequence, and a batch that is already correctly ordered is
// returned unchanged.
//
// The adjacency structure is explicit and keyed by identifier, never a
// native cyclic object graph, so cycle detection is a plain
// visited-set walk.
//
// Entities whose ordering references are multi-valued (a concept's set
// members and answers) are handled by SequenceByRefs, which emits a
// dependency order over the reference lists instead of a tree walk.
// The same determinism and anomaly rules apply.
package sequencer
