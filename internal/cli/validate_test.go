package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeValidate(t *testing.T, format, file string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{filepath.Join("testdata", file)})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValid(t *testing.T) {
	out, err := executeValidate(t, "text", "users.yaml")
	require.NoError(t, err)
	assert.Equal(t, "✓ Valid select query\n", out)
}

func TestValidateValidJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "users.yaml")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.NotContains(t, data, "problems")
}

func TestValidateProblems(t *testing.T) {
	out, err := executeValidate(t, "text", "unbalanced.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "  where: 1 open marker(s) without matching close")
}

func TestValidateProblemsJSON(t *testing.T) {
	out, err := executeValidate(t, "json", "unbalanced.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Problems, 1)
	assert.Equal(t, "where", resp.Data.Problems[0].Clause)
}

func TestValidateLoadError(t *testing.T) {
	out, err := executeValidate(t, "text", "typo.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
	assert.Contains(t, out, "tabel")
}
