package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/sqlcomp/internal/querysql"
	"github.com/roach88/sqlcomp/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// RunResult is the JSON payload of an executed document.
type RunResult struct {
	SQL string `json:"sql"`
	*store.Result
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Compile a query document and execute it against SQLite",
		Long: `Compile a query document with the SQLite dialect and execute it against
a SQLite database, creating the database if it doesn't exist.

String literals are escaped by the database itself. SELECT statements print
their rows; other statements print the number of affected rows and are
recorded in the database's statement history (see "sqlcomp history").

Example:
  sqlcomp run --db ./app.db insert_users.yaml
  sqlcomp run --db ./app.db adults.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocument(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runDocument(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	log := opts.logger()

	spec, err := LoadDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	if d := opts.Config.Dialect; d != "" && !strings.EqualFold(d, "sqlite") && !strings.EqualFold(d, "sqlite3") {
		log.Warn("run always compiles for sqlite", zap.String("configured_dialect", d))
	}

	log.Debug("opening database", zap.String("path", opts.Database))
	st, err := store.Open(opts.Database, store.WithLogger(log))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", zap.Error(closeErr))
		}
	}()

	ctx, stop := signalContext(cmd)
	defer stop()

	sql, res, err := st.Run(ctx, spec)
	if err != nil {
		if querysql.Code(err) != "" {
			return outputCompileError(formatter, err)
		}
		return formatter.Fail(ExitFailure, ErrCodeDatabase, err.Error(), map[string]string{"sql": sql})
	}
	formatter.VerboseLog("Executed: %s", sql)

	if formatter.Format == "json" {
		return formatter.Success(RunResult{SQL: sql, Result: res})
	}

	w := formatter.Writer
	fmt.Fprintln(w, sql)
	if res.Columns != nil {
		writeRows(w, res)
		return nil
	}
	fmt.Fprintf(w, "%d row(s) affected\n", res.RowsAffected)
	return nil
}

// signalContext returns the command's context cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// writeRows prints a result set as an aligned table. NULL cells print as
// NULL.
func writeRows(w io.Writer, res *store.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
				continue
			}
			cells[i] = fmt.Sprint(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "(%d row(s))\n", len(res.Rows))
}
