package harness

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/sqlcomp/internal/querydoc"
	"github.com/roach88/sqlcomp/internal/queryir"
	"github.com/roach88/sqlcomp/internal/querysql"
	"github.com/roach88/sqlcomp/internal/store"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	filter string
	logger *zap.Logger
}

// WithFilter runs only cases whose name contains substr.
func WithFilter(substr string) Option {
	return func(c *runConfig) { c.filter = substr }
}

// WithLogger sets the logger for setup and execution. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Harness holds the per-run state of one scenario.
type Harness struct {
	compiler *querysql.Compiler
	store    *store.Store // nil unless the dialect is sqlite
	logger   *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// sqlite scenarios run in a fresh in-memory database for isolation, with
// string literals escaped by that database. Other dialects compile only.
//
// Execution flow:
// 1. Resolve the dialect and, for sqlite, open an in-memory store
// 2. Execute setup steps
// 3. Compile each case and compare against expect / error
// 4. Execute cases with an exec clause and compare rows
//
// The returned error reports infrastructure failures (store, setup). Case
// mismatches are reported in the Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	d, err := querysql.LookupDialect(scenario.Dialect)
	if err != nil {
		return nil, err
	}

	if d.Name != "sqlite" {
		if len(scenario.Setup) > 0 {
			return nil, fmt.Errorf("setup requires the sqlite dialect, got %q", d.Name)
		}
		for _, c := range scenario.Cases {
			if c.Exec != nil {
				return nil, fmt.Errorf("case %q: exec requires the sqlite dialect, got %q", c.Name, d.Name)
			}
		}
	}

	h := &Harness{logger: cfg.logger.With(zap.String("scenario", scenario.Name))}
	if d.Name == "sqlite" {
		st, err := store.OpenMemory(store.WithLogger(h.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		h.store = st
		h.compiler = st.Compiler()
	} else {
		h.compiler = querysql.New(d, nil)
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult(scenario.Name, d.Name)
	for _, c := range scenario.Cases {
		if cfg.filter != "" && !strings.Contains(c.Name, cfg.filter) {
			continue
		}
		result.addCase(h.runCase(ctx, c))
	}

	return result, nil
}

// executeSetup runs all setup steps sequentially.
func (h *Harness) executeSetup(ctx context.Context, setup []any) error {
	for i, step := range setup {
		switch s := step.(type) {
		case string:
			if _, err := h.store.Exec(ctx, "setup", s); err != nil {
				return fmt.Errorf("setup step %d: %w", i, err)
			}
		case map[string]any:
			spec, err := querydoc.Decode(s)
			if err != nil {
				return fmt.Errorf("setup step %d: %w", i, err)
			}
			if _, _, err := h.store.Run(ctx, spec); err != nil {
				return fmt.Errorf("setup step %d: %w", i, err)
			}
		default:
			return fmt.Errorf("setup step %d: unsupported step %T", i, step)
		}
		h.logger.Debug("setup step completed", zap.Int("step", i))
	}
	return nil
}

func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	res := CaseResult{Name: c.Name, Pass: true}

	spec, err := querydoc.Decode(c.Query)
	if err != nil {
		res.Error = err.Error()
		res.fail("decode query: %v", err)
		return res
	}

	sql, err := h.compiler.Compile(spec)
	if err != nil {
		res.ErrorCode = string(querysql.Code(err))
		res.Error = err.Error()
		if c.Error == "" {
			res.fail("unexpected error: %v", err)
		} else if !strings.EqualFold(res.ErrorCode, c.Error) {
			res.fail("expected error %s, got %s (%v)", c.Error, res.ErrorCode, err)
		}
		return res
	}
	res.SQL = sql

	if c.Error != "" {
		res.fail("expected error %s, compiled to %q", c.Error, sql)
		return res
	}
	if c.Expect != "" && c.Expect != sql {
		res.fail("expected SQL\n  %s\ngot\n  %s", c.Expect, sql)
	}

	if c.Exec != nil {
		h.execCase(ctx, spec, sql, c.Exec, &res)
	}
	return res
}

func (h *Harness) execCase(ctx context.Context, spec *queryir.Spec, sql string, want *ExecClause, res *CaseResult) {
	if spec.Kind == queryir.KindSelect {
		out, err := h.store.QueryRows(ctx, sql)
		if err != nil {
			res.fail("exec: %v", err)
			return
		}
		res.Rows = out.Rows
		if want.Rows != nil && !rowsEqual(want.Rows, out.Rows) {
			res.fail("expected rows %v, got %v", want.Rows, out.Rows)
		}
		return
	}

	n, err := h.store.Exec(ctx, spec.Kind.String(), sql)
	if err != nil {
		res.fail("exec: %v", err)
		return
	}
	res.RowsAffected = &n
	if want.RowsAffected != nil && *want.RowsAffected != n {
		res.fail("expected %d rows affected, got %d", *want.RowsAffected, n)
	}
}

// rowsEqual compares rows cell by cell on their printed form, so YAML ints
// match SQLite int64s.
func rowsEqual(want, got [][]any) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if len(want[i]) != len(got[i]) {
			return false
		}
		for k := range want[i] {
			if fmt.Sprint(want[i][k]) != fmt.Sprint(got[i][k]) {
				return false
			}
		}
	}
	return true
}
