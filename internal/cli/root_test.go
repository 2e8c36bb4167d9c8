package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlcomp/internal/queryir"
	"github.com/roach88/sqlcomp/internal/querysql"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sqlcomp", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLCOMP_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "run", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dialectFlag := cmd.PersistentFlags().Lookup("dialect")
	require.NotNil(t, dialectFlag)
	assert.Equal(t, "d", dialectFlag.Shorthand)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "--format", "xml", filepath.Join("testdata", "users.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRootUnknownDialect(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compile", "--dialect", "oracle", filepath.Join("testdata", "users.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, querysql.ErrCodeUnknownDialect, querysql.Code(err))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Dialect)
	assert.False(t, cfg.NormalizeStrings)
	assert.Nil(t, cfg.BackslashEscapes)
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "config.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join("testdata", "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("SQLCOMP_DIALECT", "mssql")
	t.Setenv("SQLCOMP_NORMALIZE_STRINGS", "true")
	t.Setenv("SQLCOMP_BACKSLASH_ESCAPES", "false")

	cfg, err := LoadConfig(filepath.Join("testdata", "config.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "mssql", cfg.Dialect)
	assert.True(t, cfg.NormalizeStrings)
	require.NotNil(t, cfg.BackslashEscapes)
	assert.False(t, *cfg.BackslashEscapes)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("SQLCOMP_DIALECT", "mssql")

	cmd := NewRootCommand()
	require.NoError(t, cmd.PersistentFlags().Set("dialect", "sqlite"))

	cfg, err := LoadConfig("", cmd)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
}

func TestLoadConfig_UnknownDialect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlcomp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: db2\n"), 0o644))

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Equal(t, querysql.ErrCodeUnknownDialect, querysql.Code(err))
}

func TestConfigCompiler(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name string
		cfg  Config
		in   string
		want string
	}{
		{"mysql default", Config{}, "it's", `'it\'s'`},
		{"backslashes off", Config{BackslashEscapes: &no}, "it's", `'it''s'`},
		{"sqlite backslashes on", Config{Dialect: "sqlite", BackslashEscapes: &yes}, `a\b`, `'a\\b'`},
		{"normalize keeps dialect backslashes", Config{NormalizeStrings: true}, "cafe\u0301's", "'caf\u00e9\\'s'"},
		{"postgres keeps its escaper", Config{Dialect: "postgres", BackslashEscapes: &no}, `a\b`, `E'a\\b'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.cfg.Compiler()
			require.NoError(t, err)
			got, err := c.Quote(queryir.Text(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	quiet := NewLogger(buf, false)
	quiet.Debug("hidden")
	quiet.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	NewLogger(buf, true).Debug("details")
	assert.Contains(t, buf.String(), "debug")
	assert.Contains(t, buf.String(), "sqlcomp")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))

	wrapped := WrapExitError(ExitFailure, "outer", errors.New("inner"))
	assert.Equal(t, "outer: inner", wrapped.Error())
	assert.Equal(t, "inner", errors.Unwrap(wrapped).Error())
}
