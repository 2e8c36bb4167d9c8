package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeStructural indicates a Spec that cannot form a valid statement:
	// unbalanced grouping markers, missing required fields, a malformed
	// BETWEEN value.
	ErrCodeStructural ErrorCode = "STRUCTURAL"

	// ErrCodeUnsupportedValue indicates a value or reference with no
	// rendering, e.g. a nil Custom or a NaN float.
	ErrCodeUnsupportedValue ErrorCode = "UNSUPPORTED_VALUE"

	// ErrCodeEscapeFailed indicates the connection's escaper returned an error.
	ErrCodeEscapeFailed ErrorCode = "ESCAPE_FAILED"

	// ErrCodeUnknownDialect indicates a dialect name with no registration.
	ErrCodeUnknownDialect ErrorCode = "UNKNOWN_DIALECT"
)

// CompileError is returned by every Compiler method.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Clause names the fragment being compiled ("where", "set", ...), if known.
	Clause string

	// Message is a human-readable description.
	Message string

	// Problems holds the validation findings for structural errors.
	Problems []queryir.Problem

	// Err is the underlying error, e.g. from the escaper.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Clause != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Clause)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsStructuralError returns true if err is, or wraps, a structural CompileError.
func IsStructuralError(err error) bool {
	return hasCode(err, ErrCodeStructural)
}

// IsUnsupportedValueError returns true if err is, or wraps, an
// unsupported-value CompileError.
func IsUnsupportedValueError(err error) bool {
	return hasCode(err, ErrCodeUnsupportedValue)
}

// IsEscapeError returns true if err is, or wraps, an escaper failure.
func IsEscapeError(err error) bool {
	return hasCode(err, ErrCodeEscapeFailed)
}

// Code returns the ErrorCode of err, or "" if err is not a CompileError.
func Code(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return Code(err) == code
}

func newStructuralError(clause, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeStructural,
		Clause:  clause,
		Message: fmt.Sprintf(format, args...),
	}
}

func newUnsupportedError(format string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedValue,
		Message: fmt.Sprintf(format, args...),
	}
}

func fromValidation(res queryir.ValidationResult) *CompileError {
	msgs := make([]string, len(res.Problems))
	for i, p := range res.Problems {
		msgs[i] = p.String()
	}
	return &CompileError{
		Code:     ErrCodeStructural,
		Message:  strings.Join(msgs, "; "),
		Problems: res.Problems,
	}
}
