package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/sqlcomp/internal/querysql"
)

// EnvPrefix prefixes environment overrides, e.g. SQLCOMP_DIALECT.
const EnvPrefix = "SQLCOMP"

// Config holds the settings that shape compilation.
type Config struct {
	// Dialect names the target dialect. Empty selects MySQL.
	Dialect string

	// NormalizeStrings applies Unicode NFC normalisation to string literals.
	NormalizeStrings bool

	// BackslashEscapes overrides the dialect's backslash escaping of string
	// literals. Nil keeps the dialect default.
	BackslashEscapes *bool
}

// LoadConfig resolves the configuration from the optional config file, the
// SQLCOMP_ environment and the command's --dialect flag, in increasing order
// of precedence.
func LoadConfig(path string, cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dialect", "")
	v.SetDefault("normalize_strings", false)

	if cmd != nil {
		if f := cmd.Flag("dialect"); f != nil {
			if err := v.BindPFlag("dialect", f); err != nil {
				return Config{}, err
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg := Config{
		Dialect:          v.GetString("dialect"),
		NormalizeStrings: v.GetBool("normalize_strings"),
	}
	if v.IsSet("backslash_escapes") {
		b := v.GetBool("backslash_escapes")
		cfg.BackslashEscapes = &b
	}

	if _, err := querysql.LookupDialect(cfg.Dialect); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Compiler builds a compiler for the configured dialect. String escaping
// follows the dialect unless the config asks for normalisation or
// overrides backslash handling, in which case a StandardEscaper is used.
// PostgreSQL keeps its own escaper.
func (c Config) Compiler() (*querysql.Compiler, error) {
	d, err := querysql.LookupDialect(c.Dialect)
	if err != nil {
		return nil, err
	}

	if d.Name == "postgres" || (!c.NormalizeStrings && c.BackslashEscapes == nil) {
		return querysql.New(d, nil), nil
	}

	esc := querysql.StandardEscaper{NormalizeNFC: c.NormalizeStrings}
	if std, ok := d.Escaper.(querysql.StandardEscaper); ok {
		esc.Backslashes = std.Backslashes
	}
	if c.BackslashEscapes != nil {
		esc.Backslashes = *c.BackslashEscapes
	}
	return querysql.New(d, esc), nil
}

// compiler resolves the effective config of a subcommand. A --dialect
// flag set on opts wins when the root pre-run did not resolve one.
func (o *RootOptions) compiler() (*querysql.Compiler, error) {
	cfg := o.Config
	if cfg.Dialect == "" {
		cfg.Dialect = o.Dialect
	}
	return cfg.Compiler()
}
