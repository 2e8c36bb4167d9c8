package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text for golden comparison: one
// block per case holding the compiled SQL or error code, plus executed rows.
func Snapshot(r *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(&sb, "dialect: %s\n", r.Dialect)

	for _, c := range r.Cases {
		fmt.Fprintf(&sb, "\n[%s]\n", c.Name)
		switch {
		case c.ErrorCode != "":
			fmt.Fprintf(&sb, "error %s\n", c.ErrorCode)
		case c.SQL != "":
			sb.WriteString(c.SQL + "\n")
		default:
			fmt.Fprintf(&sb, "error %s\n", c.Error)
		}
		for _, row := range c.Rows {
			fmt.Fprintf(&sb, "row %v\n", row)
		}
		if c.RowsAffected != nil {
			fmt.Fprintf(&sb, "rows_affected %d\n", *c.RowsAffected)
		}
	}
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
