package profile

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile parses a CUE value into a profile Spec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the profile struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`profile: locations: { ... }`)
//	spec, err := Compile("locations", v.LookupPath(cue.ParsePath("profile.locations")))
func Compile(name string, v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{Name: name}

	var err error
	if spec.Query, err = requiredString(v, "query"); err != nil {
		return nil, err
	}
	if spec.IDColumn, err = requiredString(v, "id_column"); err != nil {
		return nil, err
	}
	if spec.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if spec.ParentColumn, err = optionalString(v, "parent_column"); err != nil {
		return nil, err
	}
	if spec.RetireColumn, err = optionalString(v, "retire_column"); err != nil {
		return nil, err
	}

	if spec.Columns, err = stringList(v, "columns"); err != nil {
		return nil, err
	}
	if spec.Spreads, err = parseSpreads(v); err != nil {
		return nil, err
	}
	if spec.Refs, err = parseRefs(v); err != nil {
		return nil, err
	}
	if spec.Checks, err = parseChecks(v); err != nil {
		return nil, err
	}

	if spec.ParentColumn != "" && len(spec.Refs) > 0 {
		return nil, &CompileError{
			Field:   "refs",
			Message: "refs and parent_column are mutually exclusive",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

func parseRefs(v cue.Value) ([]Ref, error) {
	listVal := v.LookupPath(cue.ParsePath("refs"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var refs []Ref
	for iter.Next() {
		rv := iter.Value()
		var r Ref
		if r.Column, err = requiredString(rv, "column"); err != nil {
			return nil, err
		}
		if r.Sep, err = optionalString(rv, "sep"); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

func parseSpreads(v cue.Value) ([]Spread, error) {
	listVal := v.LookupPath(cue.ParsePath("spread"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var spreads []Spread
	for iter.Next() {
		sv := iter.Value()
		var s Spread
		if s.Column, err = requiredString(sv, "column"); err != nil {
			return nil, err
		}
		if s.Prefix, err = requiredString(sv, "prefix"); err != nil {
			return nil, err
		}
		if s.ValueSep, err = optionalString(sv, "value_sep"); err != nil {
			return nil, err
		}
		flagVal := sv.LookupPath(cue.ParsePath("flag"))
		if flagVal.Exists() {
			if s.Flag, err = flagVal.Bool(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		spreads = append(spreads, s)
	}
	return spreads, nil
}

func parseChecks(v cue.Value) ([]Check, error) {
	listVal := v.LookupPath(cue.ParsePath("checks"))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var checks []Check
	for iter.Next() {
		cv := iter.Value()
		var c Check
		if c.Description, err = requiredString(cv, "description"); err != nil {
			return nil, err
		}
		if c.Query, err = requiredString(cv, "query"); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(field))
	if !fieldVal.Exists() {
		return "", nil
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}
	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileError represents a profile compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
