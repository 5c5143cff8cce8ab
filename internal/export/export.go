// Package export runs one export end to end: extraction query, record
// construction, hierarchy sequencing, packed-column spreading, and CSV
// assembly. The ordering contract lives in the sequencer; this package
// only plumbs rows through it and lays the result out as columns.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/openmrs-tools/inizexport/internal/extract"
	"github.com/openmrs-tools/inizexport/internal/profile"
	"github.com/openmrs-tools/inizexport/internal/record"
	"github.com/openmrs-tools/inizexport/internal/sequencer"
)

// RowSource supplies extraction query results. *extract.Source is the
// production implementation.
type RowSource interface {
	Rows(ctx context.Context, query string) ([]extract.Row, error)
}

// Result is one completed export, ready for CSV serialization.
type Result struct {
	// RunID is a UUIDv7 identifying this export run in logs.
	RunID string

	// Profile names the profile that produced the result.
	Profile string

	// Columns is the output header: the profile's base columns plus
	// spread columns in deterministic order.
	Columns []string

	// Rows are the ordered CSV rows, parallel to Columns.
	Rows [][]string

	// Anomalies are the structural problems the sequencer found. The
	// export still completes; these are operator warnings.
	Anomalies []sequencer.Anomaly
}

// Exporter runs exports for one profile against one source.
type Exporter struct {
	src  RowSource
	spec *profile.Spec
	log  *slog.Logger
}

// New creates an Exporter. A nil logger falls back to slog.Default().
func New(src RowSource, spec *profile.Spec, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{src: src, spec: spec, log: logger}
}

// Run executes the export. Data anomalies (duplicates, dangling
// parents, cycles) are reported in the Result, not returned as errors;
// the run fails only when a row is too broken to build a record from,
// in which case nothing should be written.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	runID := uuid.Must(uuid.NewV7()).String()
	log := e.log.With("run_id", runID, "profile", e.spec.Name)

	log.Info("querying")
	rows, err := e.src.Rows(ctx, e.spec.Query)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", e.spec.Name, err)
	}
	log.Info("rows fetched", "count", len(rows))

	records, err := buildRecords(rows, e.spec)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", e.spec.Name, err)
	}

	var ordered []record.Record
	var anomalies []sequencer.Anomaly
	if len(e.spec.Refs) > 0 {
		ordered, anomalies, err = sequencer.SequenceByRefs(records, refExtractor(e.spec.Refs))
	} else {
		ordered, anomalies, err = sequencer.Sequence(records)
	}
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", e.spec.Name, err)
	}
	for _, a := range anomalies {
		log.Warn("sequencing anomaly", "kind", string(a.Kind), "detail", a.String())
	}

	var queryColumns []string
	if len(rows) > 0 {
		queryColumns = rows[0].Columns
	}
	columns, outRows := assemble(ordered, e.spec, queryColumns)
	log.Info("export assembled", "rows", len(outRows), "columns", len(columns), "anomalies", len(anomalies))

	return &Result{
		RunID:     runID,
		Profile:   e.spec.Name,
		Columns:   columns,
		Rows:      outRows,
		Anomalies: anomalies,
	}, nil
}

// buildRecords turns raw rows into sequencer records. The identifier
// and parent columns are lifted out per the profile; everything else
// stays in the payload untouched, including the raw retire value.
func buildRecords(rows []extract.Row, spec *profile.Spec) ([]record.Record, error) {
	records := make([]record.Record, 0, len(rows))
	for i, row := range rows {
		id, ok := row.Get(spec.IDColumn)
		if !ok {
			return nil, &record.MalformedRecordError{
				Reason: fmt.Sprintf("result set has no identifier column %q", spec.IDColumn),
				Row:    i + 1,
			}
		}

		var parent string
		if spec.ParentColumn != "" {
			parent, _ = row.Get(spec.ParentColumn)
		}

		var retired bool
		if spec.RetireColumn != "" {
			raw, _ := row.Get(spec.RetireColumn)
			retired = parseRetired(raw)
		}

		payload := make([]record.Field, 0, len(row.Columns))
		for j, col := range row.Columns {
			if col == spec.IDColumn || col == spec.ParentColumn {
				continue
			}
			payload = append(payload, record.Field{Column: col, Value: row.Values[j]})
		}

		r, err := record.New(id, parent, retired, payload)
		if err != nil {
			var me *record.MalformedRecordError
			if errors.As(err, &me) {
				me.Row = i + 1
				return nil, me
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// refExtractor builds the reference lookup for profiles whose ordering
// references are packed list columns (concept set members, answers)
// rather than a single parent column.
func refExtractor(rules []profile.Ref) sequencer.RefsFunc {
	return func(r record.Record) []string {
		var refs []string
		for _, rule := range rules {
			packed, ok := r.Value(rule.Column)
			if !ok || packed == "" {
				continue
			}
			sep := rule.Sep
			if sep == "" {
				sep = ";"
			}
			for _, ref := range strings.Split(packed, sep) {
				if ref = strings.TrimSpace(ref); ref != "" {
					refs = append(refs, ref)
				}
			}
		}
		return refs
	}
}

// parseRetired interprets the raw void/retire cell. MySQL returns 0/1;
// hand-maintained snapshots sometimes carry TRUE/FALSE.
func parseRetired(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes":
		return true
	}
	return false
}
