package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Kind     string            `json:"kind"`
	Problems []queryir.Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a query document without compiling it",
		Long: `Decode a query document and check it for structural problems:
missing tables or columns, unbalanced groups, malformed BETWEEN values and
unknown connectors. No SQL is produced and no escaper is consulted.

Exit codes:
  0 - Document is valid
  1 - Structural problems found
  2 - Command error (missing or undecodable document)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	spec, err := LoadDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Validating %s query from %s", spec.Kind, path)

	res := queryir.Validate(spec)
	result := ValidationResult{Valid: res.Valid, Kind: spec.Kind.String(), Problems: res.Problems}

	if res.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationProblems(formatter, result)
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Valid %s query\n", result.Kind)
	return nil
}

// outputValidationProblems outputs every problem and returns exit code 1.
func outputValidationProblems(formatter *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("validation failed with %d problem(s)", len(result.Problems))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeInvalid, Message: msg},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	writeProblems(formatter.Writer, result.Problems)
	return NewExitError(ExitFailure, msg)
}

func writeProblems(w io.Writer, problems []queryir.Problem) {
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, p := range problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
}
