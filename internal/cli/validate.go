package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/openmrs-tools/inizexport/internal/profile"
)

// ValidationResult holds profile validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Profiles []string `json:"profiles,omitempty"`
}

func (r ValidationResult) String() string {
	if !r.Valid {
		return "invalid"
	}
	out := "valid:"
	for _, p := range r.Profiles {
		out += " " + p
	}
	return out
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profiles-dir>",
		Short: "Validate a directory of export profiles",
		Long: `Compile every .cue profile in a directory and report errors without
touching the database. Faster feedback than running an export when
writing site-specific profiles.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, profilesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	specs, err := profile.LoadDir(profilesDir)
	if err != nil {
		if ferr := formatter.Error(err.Error(), nil); ferr != nil {
			return ferr
		}
		return NewExitError(ExitFailure, "profile validation failed")
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	return formatter.Success(ValidationResult{Valid: true, Profiles: names})
}
