package record

import (
	"errors"
	"fmt"
)

// MalformedRecordError indicates a row too structurally broken to build
// a Record from. Unlike sequencing anomalies this is fatal to the whole
// export run: an unreadable row set cannot be trusted at all, so
// nothing is written.
type MalformedRecordError struct {
	// Reason is a human-readable description of what was wrong.
	Reason string

	// Row is the 1-based position of the offending row in the source
	// result set, when known. Zero means unknown.
	Row int
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("malformed record at row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("malformed record: %s", e.Reason)
}

// IsMalformedRecord reports whether err is (or wraps) a
// *MalformedRecordError. Uses errors.As to handle wrapped errors.
func IsMalformedRecord(err error) bool {
	var me *MalformedRecordError
	return errors.As(err, &me)
}
