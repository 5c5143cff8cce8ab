package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmrs-tools/inizexport/internal/record"
)

func rec(id, parent string) record.Record {
	r, err := record.New(id, parent, false, nil)
	if err != nil {
		panic(err)
	}
	return r
}

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestSequence_EmptyInput(t *testing.T) {
	ordered, anomalies, err := Sequence(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
	assert.Empty(t, anomalies)
}

func TestSequence_EmptyInput_RequireRecords(t *testing.T) {
	_, _, err := Sequence(nil, WithRequireRecords())
	require.ErrorIs(t, err, ErrNoRecords)
}

func TestSequence_SimpleChain(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", ""),
		rec("B", "A"),
		rec("C", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(ordered))
	assert.Empty(t, anomalies)
}

func TestSequence_ChildBeforeParentInInput(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("C", "B"),
		rec("B", "A"),
		rec("A", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(ordered))
	assert.Empty(t, anomalies)
}

func TestSequence_ForestWithSiblings(t *testing.T) {
	// B's subtree is fully emitted before sibling C (pre-order).
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", ""),
		rec("B", "A"),
		rec("C", "A"),
		rec("D", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D", "C"}, ids(ordered))
	assert.Empty(t, anomalies)
}

func TestSequence_MultipleRoots_InputOrderPreserved(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("Z", ""),
		rec("A", ""),
		rec("M", "Z"),
	})
	require.NoError(t, err)
	// Roots are walked in input order, never re-sorted by identifier.
	assert.Equal(t, []string{"Z", "M", "A"}, ids(ordered))
	assert.Empty(t, anomalies)
}

func TestSequence_Idempotent(t *testing.T) {
	input := []record.Record{
		rec("A", ""),
		rec("B", "A"),
		rec("D", "B"),
		rec("C", "A"),
	}
	once, _, err := Sequence(input)
	require.NoError(t, err)
	assert.Equal(t, ids(input), ids(once), "already-ordered batch returned unchanged")

	twice, _, err := Sequence(once)
	require.NoError(t, err)
	assert.Equal(t, ids(once), ids(twice))
}

func TestSequence_DanglingParent(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("B", "Z"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(ordered))

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyDanglingParent, anomalies[0].Kind)
	assert.Equal(t, "B", anomalies[0].RecordID)
	assert.Equal(t, "Z", anomalies[0].ParentID)
}

func TestSequence_DanglingParent_ChildrenStillOrdered(t *testing.T) {
	// The dangling record becomes a root; its own subtree is intact.
	ordered, anomalies, err := Sequence([]record.Record{
		rec("B", "Z"),
		rec("C", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, ids(ordered))
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyDanglingParent, anomalies[0].Kind)
}

func TestSequence_DuplicateID_FirstWins(t *testing.T) {
	first, err := record.New("A", "", false, []record.Field{{Column: "Name", Value: "first"}})
	require.NoError(t, err)
	second, err := record.New("A", "", true, []record.Field{{Column: "Name", Value: "second"}})
	require.NoError(t, err)

	ordered, anomalies, err := Sequence([]record.Record{first, second})
	require.NoError(t, err)

	require.Len(t, ordered, 1)
	v, ok := ordered[0].Value("Name")
	require.True(t, ok)
	assert.Equal(t, "first", v, "first occurrence by input order wins")

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyDuplicateID, anomalies[0].Kind)
	assert.Equal(t, "A", anomalies[0].RecordID)
}

func TestSequence_SelfCycle(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", "A"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(ordered), "self-referencing record emitted exactly once")

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyCycleDetected, anomalies[0].Kind)
	assert.Equal(t, []string{"A"}, anomalies[0].Members)
}

func TestSequence_TwoNodeCycle(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", "B"),
		rec("B", "A"),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, ids(ordered))
	assert.Len(t, ordered, 2)

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyCycleDetected, anomalies[0].Kind)
	assert.ElementsMatch(t, []string{"A", "B"}, anomalies[0].Members)
}

func TestSequence_CycleBrokenAtFirstDetection(t *testing.T) {
	// The first cycle member in input order becomes the effective root.
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", "C"),
		rec("B", "A"),
		rec("C", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids(ordered))
	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyCycleDetected, anomalies[0].Kind)
	assert.Equal(t, []string{"A", "B", "C"}, anomalies[0].Members)
}

func TestSequence_CycleWithHangingSubtree(t *testing.T) {
	// D hangs off the A<->B cycle; it is emitted after its parent even
	// though the region is anomalous.
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", "B"),
		rec("B", "A"),
		rec("D", "A"),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B", "D"}, ids(ordered))
	assert.Less(t, index(ids(ordered), "A"), index(ids(ordered), "D"))

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyCycleDetected, anomalies[0].Kind)
}

func TestSequence_SubtreeBeforeCycleInInput(t *testing.T) {
	// A hangs off the B<->C cycle and precedes it in the input. A's
	// parent reference resolves cleanly, so A must still follow B even
	// though the cycle sweep scans in input order.
	ordered, anomalies, err := Sequence([]record.Record{
		rec("A", "B"),
		rec("B", "C"),
		rec("C", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, ids(ordered))

	require.Len(t, anomalies, 1)
	assert.Equal(t, AnomalyCycleDetected, anomalies[0].Kind)
	assert.Equal(t, []string{"B", "C"}, anomalies[0].Members)
	assert.Equal(t, "B", anomalies[0].RecordID)
}

func TestSequence_ChainBeforeCycleInInput(t *testing.T) {
	// A whole chain (A2 under A1) hangs off the cycle and precedes it
	// in the input; both links must follow their parents.
	ordered, _, err := Sequence([]record.Record{
		rec("A2", "A1"),
		rec("A1", "B"),
		rec("B", "C"),
		rec("C", "B"),
	})
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, id := range ids(ordered) {
		pos[id] = i
	}
	assert.Less(t, pos["B"], pos["A1"])
	assert.Less(t, pos["A1"], pos["A2"])
}

func TestSequence_MixedAnomalies(t *testing.T) {
	ordered, anomalies, err := Sequence([]record.Record{
		rec("root", ""),
		rec("kid", "root"),
		rec("orphan", "ghost"),
		rec("loop", "loop"),
		rec("kid", "root"), // duplicate
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "kid", "orphan", "loop"}, ids(ordered))

	kinds := make(map[AnomalyKind]int)
	for _, a := range anomalies {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[AnomalyDuplicateID])
	assert.Equal(t, 1, kinds[AnomalyDanglingParent])
	assert.Equal(t, 1, kinds[AnomalyCycleDetected])
}

// TestSequence_Completeness checks the completeness and
// parent-before-child properties over a batch mixing every anomaly
// kind with well-formed subtrees.
func TestSequence_Completeness(t *testing.T) {
	input := []record.Record{
		rec("f2", "f1"),
		rec("f1", ""),
		rec("f3", "f2"),
		rec("g1", ""),
		rec("g2", "g1"),
		rec("x", "y"),
		rec("y", "x"),
		rec("stray", "nowhere"),
	}
	ordered, _, err := Sequence(input)
	require.NoError(t, err)

	require.Len(t, ordered, len(input))
	seen := make(map[string]int)
	for i, r := range ordered {
		_, dup := seen[r.ID]
		require.False(t, dup, "record %q emitted more than once", r.ID)
		seen[r.ID] = i
	}

	// Non-anomalous parent/child pairs respect ancestor-before-descendant.
	for _, pair := range [][2]string{{"f1", "f2"}, {"f2", "f3"}, {"g1", "g2"}} {
		assert.Less(t, seen[pair[0]], seen[pair[1]], "%s must precede %s", pair[0], pair[1])
	}
}

func TestAnomaly_String(t *testing.T) {
	tests := []struct {
		name    string
		anomaly Anomaly
		want    string
	}{
		{
			name:    "duplicate",
			anomaly: Anomaly{Kind: AnomalyDuplicateID, RecordID: "A"},
			want:    `duplicate id "A": first occurrence kept, later occurrence dropped`,
		},
		{
			name:    "dangling",
			anomaly: Anomaly{Kind: AnomalyDanglingParent, RecordID: "B", ParentID: "Z"},
			want:    `record "B" references missing parent "Z": treated as root`,
		},
		{
			name:    "dangling reference",
			anomaly: Anomaly{Kind: AnomalyDanglingReference, RecordID: "Panel", ParentID: "Weight"},
			want:    `record "Panel" references missing record "Weight": reference ignored`,
		},
		{
			name:    "cycle",
			anomaly: Anomaly{Kind: AnomalyCycleDetected, RecordID: "A", Members: []string{"A", "B"}},
			want:    `parent cycle through [A -> B]: broken at "A"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.anomaly.String())
		})
	}
}

func index(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
