package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Entry is one executed statement.
type Entry struct {
	Seq          int64  `json:"seq"`
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Statement    string `json:"statement"`
	RowsAffected int64  `json:"rows_affected"`
}

func (s *Store) record(ctx context.Context, kind, stmt string, rowsAffected int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sqlcomp_history (id, kind, statement, rows_affected)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), kind, stmt, rowsAffected)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// History returns executed statements in execution order.
//
// Returns an empty slice (not nil) if nothing was executed.
func (s *Store) History(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, kind, statement, rows_affected
		FROM sqlcomp_history
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.ID, &e.Kind, &e.Statement, &e.RowsAffected); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
