package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/sqlcomp/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of a successful compile.
type CompilationResult struct {
	Dialect string `json:"dialect"`
	Kind    string `json:"kind"`
	SQL     string `json:"sql"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Compile a query document to SQL",
		Long: `Compile a query document to a SQL statement for the configured dialect.

Exit codes:
  0 - Statement compiled
  1 - The compiler rejected the query (STRUCTURAL, UNSUPPORTED_VALUE, ...)
  2 - Command error (missing or undecodable document, etc.)

Examples:
  sqlcomp compile users.yaml
  sqlcomp compile --dialect postgres users.cue
  sqlcomp compile users.json -o users.sql --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	log := opts.logger()

	spec, err := LoadDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %s query from %s", spec.Kind, path)

	c, err := opts.compiler()
	if err != nil {
		return formatter.Fail(ExitCommandError, string(querysql.Code(err)), err.Error(), nil)
	}
	log.Debug("compiling", zap.String("dialect", c.Dialect().Name), zap.String("kind", spec.Kind.String()))

	sql, err := c.Compile(spec)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(sql+"\n"), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote SQL to %s", opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompilationResult{
			Dialect: c.Dialect().Name,
			Kind:    spec.Kind.String(),
			SQL:     sql,
		})
	}
	return formatter.Success(sql)
}

// outputLoadError reports a document load failure (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// outputCompileError reports a rejected query (exit code 1). Structural
// errors list their problems as details.
func outputCompileError(formatter *OutputFormatter, err error) error {
	var compileErr *querysql.CompileError
	if !errors.As(err, &compileErr) {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	var details any
	if len(compileErr.Problems) > 0 {
		problems := make([]string, len(compileErr.Problems))
		for i, p := range compileErr.Problems {
			problems[i] = p.String()
		}
		details = problems
	}
	return formatter.Fail(ExitFailure, string(compileErr.Code), compileErr.Error(), details)
}
