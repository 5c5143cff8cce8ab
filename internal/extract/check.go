package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/openmrs-tools/inizexport/internal/profile"
)

// Finding is one data-quality check that matched rows. The import
// tool's stop character (';') inside names or codes breaks its field
// splitting, so these are surfaced to the operator before an export.
type Finding struct {
	Description string
	Rows        []Row
}

// String renders the finding as an operator-facing block. Callers add
// their own warning prefix.
func (f Finding) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d row(s)):", f.Description, len(f.Rows))
	for _, r := range f.Rows {
		b.WriteString("\n  ")
		for i, c := range r.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", c, r.Values[i])
		}
	}
	return b.String()
}

// RunChecks executes a profile's data-quality queries and returns a
// finding for each one that matched rows. A failing query aborts: a
// check that cannot run is indistinguishable from broken data.
func (s *Source) RunChecks(ctx context.Context, checks []profile.Check) ([]Finding, error) {
	var findings []Finding
	for _, check := range checks {
		rows, err := s.Rows(ctx, check.Query)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", check.Description, err)
		}
		if len(rows) > 0 {
			findings = append(findings, Finding{Description: check.Description, Rows: rows})
		}
	}
	return findings, nil
}
