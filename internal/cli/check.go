package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmrs-tools/inizexport/internal/config"
	"github.com/openmrs-tools/inizexport/internal/extract"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	ProfilesDir string
}

// CheckSummary is the machine-readable result of a check command.
type CheckSummary struct {
	Profile  string   `json:"profile"`
	Checks   int      `json:"checks"`
	Findings []string `json:"findings,omitempty"`
}

func (s CheckSummary) String() string {
	if len(s.Findings) == 0 {
		return fmt.Sprintf("%d check(s) passed", s.Checks)
	}
	return fmt.Sprintf("%d of %d check(s) found problems", len(s.Findings), s.Checks)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <profile>",
		Short: "Run a profile's data-quality checks",
		Long: `Run a profile's data-quality checks against the configured database
without exporting anything. Exits non-zero when any check finds rows,
so broken data (like names containing the Initializer stop character
';') is caught before an export.

Example:
  inizexport check locations`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ProfilesDir, "profiles", "", "directory of .cue profiles (default: built-ins)")

	return cmd
}

func runCheck(opts *CheckOptions, name string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	spec, err := resolveProfile(opts.ProfilesDir, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving profile", err)
	}

	src, err := extract.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening database", err)
	}
	defer src.Close()

	findings, err := src.RunChecks(cmd.Context(), spec.Checks)
	if err != nil {
		return WrapExitError(ExitCommandError, "running data checks", err)
	}

	summary := CheckSummary{Profile: spec.Name, Checks: len(spec.Checks)}
	for _, f := range findings {
		summary.Findings = append(summary.Findings, f.String())
		formatter.Warn("%s", f)
	}
	if err := formatter.Success(summary); err != nil {
		return err
	}
	if len(findings) > 0 {
		return NewExitError(ExitFailure, "data checks found problems")
	}
	return nil
}
