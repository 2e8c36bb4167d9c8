package harness

import "fmt"

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`

	// SQL is the compiled statement, empty when compilation failed.
	SQL string `json:"sql,omitempty"`

	// ErrorCode and Error describe the compile error, if any.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// Rows and RowsAffected are set when the case was executed.
	Rows         [][]any `json:"rows,omitempty"`
	RowsAffected *int64  `json:"rows_affected,omitempty"`

	Pass     bool     `json:"pass"`
	Failures []string `json:"failures,omitempty"`
}

func (c *CaseResult) fail(format string, args ...any) {
	c.Failures = append(c.Failures, fmt.Sprintf(format, args...))
	c.Pass = false
}

// Result is the outcome of a test scenario execution.
type Result struct {
	Scenario string `json:"scenario"`
	Dialect  string `json:"dialect"`

	// Pass indicates overall test success.
	// True if every case passed.
	Pass bool `json:"pass"`

	// Cases holds one entry per executed case, in scenario order.
	Cases []CaseResult `json:"cases"`

	// Errors contains one message per failed expectation, prefixed with the
	// case name. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario, dialect string) *Result {
	return &Result{
		Scenario: scenario,
		Dialect:  dialect,
		Pass:     true,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addCase appends a case and folds its failures into the result.
func (r *Result) addCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	for _, f := range c.Failures {
		r.AddError(c.Name + ": " + f)
	}
}
