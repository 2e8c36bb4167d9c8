package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
	"golang.org/x/text/unicode/norm"
)

// Escaper turns a string into a delimited string literal for the target
// driver. It is the compiler's only view of the connection.
//
// Implementations must be safe for concurrent use.
type Escaper interface {
	Quote(s string) (string, error)
}

// EscaperFunc adapts a function to the Escaper interface.
type EscaperFunc func(s string) (string, error)

// Quote calls f(s).
func (f EscaperFunc) Quote(s string) (string, error) {
	return f(s)
}

// StandardEscaper produces single-quoted literals.
//
// Embedded quotes are doubled. With Backslashes set it escapes the way
// MySQL expects without NO_BACKSLASH_ESCAPES: NUL, newline, carriage
// return, Ctrl-Z, quotes and backslashes get a backslash prefix.
// NormalizeNFC applies Unicode NFC normalization before escaping.
type StandardEscaper struct {
	Backslashes  bool
	NormalizeNFC bool
}

// Quote implements Escaper. Invalid UTF-8 is rejected.
func (e StandardEscaper) Quote(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("string literal is not valid UTF-8")
	}
	if e.NormalizeNFC {
		s = norm.NFC.String(s)
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('\'')
	if e.Backslashes {
		writeBackslashEscaped(&sb, s)
	} else {
		sb.WriteString(strings.ReplaceAll(s, "'", "''"))
	}
	sb.WriteByte('\'')
	return sb.String(), nil
}

func writeBackslashEscaped(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			sb.WriteString(`\0`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\x1a':
			sb.WriteString(`\Z`)
		case '\'':
			sb.WriteString(`\'`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(c)
		}
	}
}

// PostgresEscaper quotes literals with lib/pq, producing E'...' syntax when
// the string contains backslashes.
type PostgresEscaper struct{}

// Quote implements Escaper. NUL bytes are rejected since PostgreSQL text
// cannot hold them.
func (PostgresEscaper) Quote(s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("string literal contains NUL byte")
	}
	return strings.TrimPrefix(pq.QuoteLiteral(s), " "), nil
}
