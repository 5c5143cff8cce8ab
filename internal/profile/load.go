package profile

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed builtin/*.cue
var builtinFS embed.FS

// LoadBytes compiles one CUE source file and returns every profile it
// declares under the top-level "profile" struct, sorted by name.
func LoadBytes(filename string, data []byte) ([]*Spec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	profVal := v.LookupPath(cue.ParsePath("profile"))
	if !profVal.Exists() {
		return nil, fmt.Errorf("%s: no profile declarations found", filename)
	}
	iter, err := profVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []*Spec
	for iter.Next() {
		spec, err := Compile(iter.Label(), iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s: profile %q: %w", filename, iter.Label(), err)
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// LoadDir compiles every .cue file in dir and returns the declared
// profiles keyed by name. Duplicate profile names across files are an
// error.
func LoadDir(dir string) (map[string]*Spec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cue") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .cue profile files found in %s", dir)
	}
	sort.Strings(files)

	out := make(map[string]*Spec)
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		specs, err := LoadBytes(path, data)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			if _, dup := out[spec.Name]; dup {
				return nil, fmt.Errorf("%s: profile %q declared more than once", path, spec.Name)
			}
			out[spec.Name] = spec
		}
	}
	return out, nil
}

// Builtins returns the profiles shipped with the binary (locations and
// ordertypes), keyed by name.
func Builtins() (map[string]*Spec, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, fmt.Errorf("reading built-in profiles: %w", err)
	}

	out := make(map[string]*Spec)
	for _, e := range entries {
		data, err := builtinFS.ReadFile("builtin/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading built-in profile %s: %w", e.Name(), err)
		}
		specs, err := LoadBytes(e.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("built-in profile %s: %w", e.Name(), err)
		}
		for _, spec := range specs {
			out[spec.Name] = spec
		}
	}
	return out, nil
}

// Builtin returns one built-in profile by name.
func Builtin(name string) (*Spec, error) {
	all, err := Builtins()
	if err != nil {
		return nil, err
	}
	spec, ok := all[name]
	if !ok {
		names := make([]string, 0, len(all))
		for n := range all {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("no built-in profile %q (have %s)", name, strings.Join(names, ", "))
	}
	return spec, nil
}
