package record

import "strings"

// Field is a single payload cell: a column name paired with its string
// value. Field order is significant and preserved end to end; the
// sequencer never inspects or reorders payload fields.
type Field struct {
	Column string
	Value  string
}

// Record is one exported row in typed form.
//
// Identity is the value the import tool uses to resolve parent
// references (e.g. the location Name), unique within a single export
// batch. ParentID is empty for roots; it may also reference an ID that
// is absent from the batch (dangling) or the record's own ID
// (self-cycle) - resolving those is the sequencer's job, not the
// record's, because validity of a parent reference depends on the
// whole batch.
//
// Records are plain values: constructed fresh per export run, held in
// memory for the duration of one run, and discarded after the ordered
// sequence is serialized.
type Record struct {
	ID       string
	ParentID string

	// Retired is carried through unchanged. Retired records still need
	// correct positional placement relative to their children, so it
	// never affects ordering.
	Retired bool

	// Payload holds the remaining CSV fields in column order.
	Payload []Field
}

// New constructs a Record, rejecting empty or blank identifiers with a
// *MalformedRecordError. No other validation happens here.
func New(id, parentID string, retired bool, payload []Field) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return Record{}, &MalformedRecordError{Reason: "identifier is empty or blank"}
	}
	return Record{
		ID:       id,
		ParentID: parentID,
		Retired:  retired,
		Payload:  payload,
	}, nil
}

// IsRoot reports whether the record carries no parent reference.
func (r Record) IsRoot() bool {
	return r.ParentID == ""
}

// Equal reports record equality, keyed on ID alone.
func (r Record) Equal(other Record) bool {
	return r.ID == other.ID
}

// Value returns the payload value for the given column and whether the
// column is present in the payload.
func (r Record) Value(column string) (string, bool) {
	for _, f := range r.Payload {
		if f.Column == column {
			return f.Value, true
		}
	}
	return "", false
}
