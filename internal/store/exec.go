package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// Result is the outcome of one executed statement. Columns and Rows are set
// for SELECT, RowsAffected for everything else.
type Result struct {
	Columns      []string `json:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected"`
}

// Exec runs a statement that returns no rows and records it in the history.
func (s *Store) Exec(ctx context.Context, kind, stmt string) (int64, error) {
	res, err := s.db.ExecContext(ctx, stmt)
	if err != nil {
		s.log.Debug("exec failed", zap.String("sql", stmt), zap.Error(err))
		return 0, fmt.Errorf("exec: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := s.record(ctx, kind, stmt, n); err != nil {
		return n, err
	}
	s.log.Debug("exec", zap.String("kind", kind), zap.String("sql", stmt), zap.Int64("rows_affected", n))
	return n, nil
}

// QueryRows runs a statement and collects every row. Byte slices are
// returned as strings.
func (s *Store) QueryRows(ctx context.Context, stmt string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		s.log.Debug("query failed", zap.String("sql", stmt), zap.Error(err))
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := &Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	s.log.Debug("query", zap.String("sql", stmt), zap.Int("rows", len(result.Rows)))
	return result, nil
}

// Run compiles spec with the store's compiler and executes it. SELECT
// statements return their rows, other kinds their affected row count.
func (s *Store) Run(ctx context.Context, spec *queryir.Spec) (string, *Result, error) {
	stmt, err := s.Compiler().Compile(spec)
	if err != nil {
		return "", nil, err
	}

	if spec.Kind == queryir.KindSelect {
		res, err := s.QueryRows(ctx, stmt)
		return stmt, res, err
	}

	n, err := s.Exec(ctx, spec.Kind.String(), stmt)
	if err != nil {
		return stmt, nil, err
	}
	return stmt, &Result{RowsAffected: n}, nil
}
