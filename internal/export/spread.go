package export

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/openmrs-tools/inizexport/internal/profile"
	"github.com/openmrs-tools/inizexport/internal/record"
)

// assemble lays ordered records out as a header plus parallel rows.
//
// The header is the profile's base columns (or the query's own column
// order minus packed spread sources when the profile fixes none),
// followed by one group of spread columns per spread rule. Spread
// column names inside a group are collated so the header is stable
// between export runs and diffs stay readable.
func assemble(records []record.Record, spec *profile.Spec, queryColumns []string) ([]string, [][]string) {
	spreadSrc := make(map[string]bool, len(spec.Spreads))
	for _, s := range spec.Spreads {
		spreadSrc[s.Column] = true
	}

	base := spec.Columns
	if len(base) == 0 {
		for _, c := range queryColumns {
			if !spreadSrc[c] {
				base = append(base, c)
			}
		}
	}

	// Expand packed columns per record, collecting the column names
	// each spread rule produced across the whole batch.
	spreadCells := make([]map[string]string, len(records))
	groupCols := make([]map[string]bool, len(spec.Spreads))
	for gi := range groupCols {
		groupCols[gi] = make(map[string]bool)
	}
	for i, r := range records {
		spreadCells[i] = spreadRecord(r, spec.Spreads, groupCols)
	}

	columns := make([]string, 0, len(base))
	columns = append(columns, base...)
	collator := collate.New(language.English)
	for gi := range spec.Spreads {
		cols := make([]string, 0, len(groupCols[gi]))
		for c := range groupCols[gi] {
			cols = append(cols, c)
		}
		collator.SortStrings(cols)
		columns = append(columns, cols...)
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(columns))
		for j, col := range columns {
			switch col {
			case spec.IDColumn:
				row[j] = r.ID
			case spec.ParentColumn:
				row[j] = r.ParentID
			default:
				if v, ok := spreadCells[i][col]; ok {
					row[j] = v
				} else if v, ok := r.Value(col); ok {
					row[j] = v
				}
			}
		}
		rows[i] = row
	}
	return columns, rows
}

// spreadRecord expands one record's packed columns. Flag spreads emit
// the literal TRUE ("Tag|Login Location" = TRUE); value spreads split
// each entry on the rule's separator ("Attribute|Code" = CL-1). An
// entry with no separator becomes a name with an empty value.
func spreadRecord(r record.Record, rules []profile.Spread, groupCols []map[string]bool) map[string]string {
	if len(rules) == 0 {
		return nil
	}
	cells := make(map[string]string)
	for gi, rule := range rules {
		packed, ok := r.Value(rule.Column)
		if !ok || packed == "" {
			continue
		}
		for _, entry := range strings.Split(packed, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			var name, val string
			if rule.Flag {
				name, val = entry, "TRUE"
			} else {
				sep := rule.ValueSep
				if sep == "" {
					sep = ":"
				}
				parts := strings.SplitN(entry, sep, 2)
				name = parts[0]
				if len(parts) == 2 {
					val = parts[1]
				}
			}
			col := rule.Prefix + "|" + name
			groupCols[gi][col] = true
			cells[col] = val
		}
	}
	return cells
}
