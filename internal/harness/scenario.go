package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlcomp/internal/querysql"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dialect selects the compiler dialect. Empty means mysql.
	Dialect string `yaml:"dialect,omitempty"`

	// Setup runs before the cases, in order. Each entry is a raw SQL string
	// or a query document. Requires the sqlite dialect.
	Setup []any `yaml:"setup,omitempty"`

	// Cases are compiled in order.
	Cases []Case `yaml:"cases"`
}

// Case is one query and its expected outcome.
type Case struct {
	// Name identifies the case within its scenario.
	Name string `yaml:"name"`

	// Query is a query document (see package querydoc).
	Query map[string]any `yaml:"query"`

	// Expect is the exact SQL the query must compile to.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected compile error code, e.g. STRUCTURAL.
	Error string `yaml:"error,omitempty"`

	// Exec executes the compiled statement and checks its outcome.
	Exec *ExecClause `yaml:"exec,omitempty"`
}

// ExecClause specifies the expected outcome of executing a case.
type ExecClause struct {
	// Rows are the expected result rows of a SELECT, in order.
	Rows [][]any `yaml:"rows,omitempty"`

	// RowsAffected is the expected affected row count of other statements.
	RowsAffected *int64 `yaml:"rows_affected,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "case:" vs "cases:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml scenario in dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	d, err := querysql.LookupDialect(s.Dialect)
	if err != nil {
		return err
	}
	live := d.Name == "sqlite"

	if len(s.Setup) > 0 && !live {
		return fmt.Errorf("setup requires the sqlite dialect, got %q", d.Name)
	}
	for i, step := range s.Setup {
		switch step.(type) {
		case string, map[string]any:
		default:
			return fmt.Errorf("setup[%d]: must be a SQL string or a query document, got %T", i, step)
		}
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Query == nil {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		if c.Expect != "" && c.Error != "" {
			return fmt.Errorf("cases[%d]: expect and error are mutually exclusive", i)
		}
		if c.Exec != nil {
			if !live {
				return fmt.Errorf("cases[%d]: exec requires the sqlite dialect, got %q", i, d.Name)
			}
			if c.Error != "" {
				return fmt.Errorf("cases[%d]: exec cannot be combined with error", i)
			}
		}
	}

	return nil
}
