// Command sqlcomp compiles declarative query documents into SQL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/sqlcomp/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Subcommands report their own errors on stdout; repeat only the
		// summary on stderr.
		fmt.Fprintf(os.Stderr, "sqlcomp: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
