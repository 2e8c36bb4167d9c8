package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// writeDoc writes a query document into dir and returns its path.
func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func executeRun(t *testing.T, opts *RootOptions, db, doc string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", db, doc})
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunRequiresDB(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join("testdata", "users.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"db" not set`)
}

func TestRunExecutesAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "app.db")
	opts := &RootOptions{Format: "text"}

	create := writeDoc(t, dir, "create.yaml", `
kind: create_table
table: users
fields:
  - {name: id, type: INTEGER, not_null: true}
  - {name: name, type: TEXT}
primary_key: [id]
`)
	out, err := executeRun(t, opts, db, create)
	require.NoError(t, err)
	assert.Contains(t, out, "0 row(s) affected")

	insert := writeDoc(t, dir, "insert.yaml", `
kind: insert
table: users
values:
  - {id: 1, name: "o'neil"}
  - {id: 2}
`)
	out, err = executeRun(t, opts, db, insert)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id , name) VALUES (1, 'o''neil'), (2, NULL)\n2 row(s) affected\n", out)

	sel := writeDoc(t, dir, "select.yaml", `
table: users
columns: [id, name]
order_by: [id]
`)
	out, err = executeRun(t, opts, db, sel)
	require.NoError(t, err)
	assert.Contains(t, out, `SELECT "id", "name" FROM "users" ORDER BY "id"`)
	assert.Contains(t, out, "o'neil")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 row(s))")

	out, err = executeRun(t, &RootOptions{Format: "json"}, db, sel)
	require.NoError(t, err)
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			SQL     string   `json:"sql"`
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"id", "name"}, resp.Data.Columns)
	assert.Equal(t, [][]any{{float64(1), "o'neil"}, {float64(2), nil}}, resp.Data.Rows)
}

func TestRunExecutionError(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "missing.yaml", "table: nowhere\n")

	out, err := executeRun(t, &RootOptions{Format: "json"}, filepath.Join(dir, "app.db"), doc)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDatabase, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "no such table")
}

func TestRunStructuralError(t *testing.T) {
	dir := t.TempDir()
	_, err := executeRun(t, &RootOptions{Format: "text"}, filepath.Join(dir, "app.db"), filepath.Join("testdata", "unbalanced.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "STRUCTURAL")
}

func TestRunWarnsAboutDialect(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := &RootOptions{Format: "text", Config: Config{Dialect: "postgres"}, Logger: zap.New(core)}

	dir := t.TempDir()
	doc := writeDoc(t, dir, "create.yaml", "kind: create_table\ntable: t\nfields: [{name: a, type: INTEGER}]\n")
	_, err := executeRun(t, opts, filepath.Join(dir, "app.db"), doc)
	require.NoError(t, err)

	warnings := logs.FilterMessage("run always compiles for sqlite").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "postgres", warnings[0].ContextMap()["configured_dialect"])
}

func TestHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "app.db")
	opts := &RootOptions{Format: "text"}

	_, err := executeRun(t, opts, db, writeDoc(t, dir, "create.yaml", "kind: create_table\ntable: t\nfields: [{name: a, type: INTEGER}]\n"))
	require.NoError(t, err)
	_, err = executeRun(t, opts, db, writeDoc(t, dir, "insert.yaml", "kind: insert\ntable: t\nvalues: [{a: 1}, {a: 2}]\n"))
	require.NoError(t, err)
	_, err = executeRun(t, opts, db, writeDoc(t, dir, "select.yaml", "table: t\n"))
	require.NoError(t, err)

	history := func(format string, args ...string) (string, error) {
		buf := &bytes.Buffer{}
		cmd := NewHistoryCommand(&RootOptions{Format: format})
		cmd.SetOut(buf)
		cmd.SetArgs(append([]string{"--db", db}, args...))
		err := cmd.Execute()
		return buf.String(), err
	}

	out, err := history("text")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "create_table")
	assert.Contains(t, out, "INSERT INTO t (a) VALUES (1), (2)")
	assert.NotContains(t, out, "SELECT")

	out, err = history("json", "--kind", "insert")
	require.NoError(t, err)
	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, int64(2), resp.Data.Entries[0].RowsAffected)
}

func TestHistoryMissingDatabase(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "none.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "database not found")
}
