package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlcomp/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Kind     string // optional - only statements of this kind
}

// HistoryResult holds the statements executed against a database.
type HistoryResult struct {
	Entries []store.Entry `json:"entries"`
	Total   int           `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List statements executed by sqlcomp run",
		Long: `List the statements "sqlcomp run" executed against a database, in
execution order. SELECT statements are not recorded.

Exit codes:
  0 - History listed
  2 - Command error (database not found, etc.)

Examples:
  sqlcomp history --db ./app.db
  sqlcomp history --db ./app.db --kind insert --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list statements of this kind (insert, update, ...)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)

	// Open would create a missing database; history only reads existing ones.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database, store.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	entries, err := st.History(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil)
	}

	if opts.Kind != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Kind == opts.Kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	result := HistoryResult{Entries: entries, Total: len(entries)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No statements recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tROWS\tSTATEMENT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", e.Seq, e.Kind, e.RowsAffected, e.Statement)
	}
	return tw.Flush()
}
