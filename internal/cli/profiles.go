package cli

import (
	"fmt"

	"github.com/openmrs-tools/inizexport/internal/profile"
)

// resolveProfile finds a profile by name: from a directory of .cue
// files when one is given, otherwise from the built-ins compiled into
// the binary.
func resolveProfile(profilesDir, name string) (*profile.Spec, error) {
	if profilesDir == "" {
		return profile.Builtin(name)
	}
	specs, err := profile.LoadDir(profilesDir)
	if err != nil {
		return nil, err
	}
	spec, ok := specs[name]
	if !ok {
		return nil, fmt.Errorf("no profile %q in %s", name, profilesDir)
	}
	return spec, nil
}
