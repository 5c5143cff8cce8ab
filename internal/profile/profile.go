// Package profile defines export profiles: per-entity descriptions of
// the extraction query, the identifier and parent columns the sequencer
// keys on, and how packed columns are spread into the output CSV.
//
// Profiles are written in CUE and compiled with the CUE Go API. The
// built-in profiles cover the locations and order-type exports;
// operators can point the CLI at a directory of additional .cue files
// for site-specific entities.
package profile

// Spec is a compiled export profile.
type Spec struct {
	// Name identifies the profile (the CUE struct label).
	Name string `json:"name"`

	// Description explains what the profile exports.
	Description string `json:"description,omitempty"`

	// Query is the extraction SQL. Its result set must include
	// IDColumn and, when the entity is hierarchical, ParentColumn.
	Query string `json:"query"`

	// IDColumn names the column parent references point at. For the
	// OpenMRS Initializer this is the entity name, not the UUID.
	IDColumn string `json:"id_column"`

	// ParentColumn names the nullable parent-reference column. Empty
	// means the entity is flat and sequencing degenerates to input
	// order.
	ParentColumn string `json:"parent_column,omitempty"`

	// RetireColumn names the void/retire flag column, if any.
	RetireColumn string `json:"retire_column,omitempty"`

	// Columns fixes the base output column order. When empty the
	// query's own column order is used.
	Columns []string `json:"columns,omitempty"`

	// Spreads describes packed group_concat columns to expand into
	// per-name output columns.
	Spreads []Spread `json:"spread,omitempty"`

	// Refs names packed columns holding multi-valued ordering
	// references (concept set members, concept answers). Mutually
	// exclusive with ParentColumn: an entity is ordered either by its
	// single parent reference or by its reference lists.
	Refs []Ref `json:"refs,omitempty"`

	// Checks are data-quality queries whose non-empty results are
	// surfaced as operator warnings before an export.
	Checks []Check `json:"checks,omitempty"`
}

// Spread expands a packed column ("a,b,c" or "k1:v1,k2:v2") into
// prefixed output columns ("Tag|a" = TRUE, "Attribute|k1" = v1).
type Spread struct {
	// Column is the packed source column, consumed by the spread.
	Column string `json:"column"`

	// Prefix is the output column prefix, joined to each name with "|".
	Prefix string `json:"prefix"`

	// ValueSep separates name from value inside one entry. Defaults
	// to ":". Ignored when Flag is set.
	ValueSep string `json:"value_sep,omitempty"`

	// Flag marks spreads whose entries are bare names; the output
	// value is the literal TRUE.
	Flag bool `json:"flag,omitempty"`
}

// Ref is a packed column whose entries reference other records'
// identifiers. Referenced records are ordered before the referring
// one; the column itself passes through to the output unchanged.
type Ref struct {
	// Column is the packed source column, e.g. "Members" or "Answers".
	Column string `json:"column"`

	// Sep separates entries inside the packed value. Defaults to ";".
	Sep string `json:"sep,omitempty"`
}

// Check is a data-quality query run before an export. Any rows it
// returns are reported to the operator.
type Check struct {
	Description string `json:"description"`
	Query       string `json:"query"`
}
