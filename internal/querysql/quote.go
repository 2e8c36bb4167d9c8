package querysql

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// embeddedIdent matches a double-quoted identifier inside a larger
// expression, e.g. the "col" in COUNT("col").
var embeddedIdent = regexp.MustCompile(`"(.+?)"`)

// Quote renders v as SQL literal text.
func (c *Compiler) Quote(v queryir.Value) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", newUnsupportedError("nil value")
	case queryir.Null:
		return "NULL", nil
	case queryir.Bool:
		if v {
			return c.dialect.True, nil
		}
		return c.dialect.False, nil
	case queryir.Int:
		return strconv.FormatInt(int64(v), 10), nil
	case queryir.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", newUnsupportedError("float %v has no SQL literal", f)
		}
		return strconv.FormatFloat(f, 'f', 6, 64), nil
	case queryir.Text:
		return c.escape(string(v))
	case queryir.RawValue:
		return c.escape(string(v))
	case queryir.List:
		parts := make([]string, len(v))
		for i, elem := range v {
			s, err := c.Quote(elem)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case queryir.SubQuery:
		return c.compileSubQuery(v)
	case queryir.Identifier:
		return c.QuoteIdentifier(v.Ref)
	case queryir.Fn:
		return c.compileFn(v)
	case queryir.Expr:
		return string(v), nil
	case queryir.Custom:
		if v.Stringer == nil {
			return "", newUnsupportedError("custom value has no string form")
		}
		return c.escape(v.String())
	default:
		return "", newUnsupportedError("unsupported value type %T", v)
	}
}

// QuoteIdentifier renders r as identifier text using the dialect's
// delimiters.
func (c *Compiler) QuoteIdentifier(r queryir.Ref) (string, error) {
	switch r := r.(type) {
	case nil:
		return "", newUnsupportedError("nil identifier")
	case queryir.Name:
		return c.quoteName(string(r)), nil
	case queryir.Alias:
		expr, err := c.QuoteIdentifier(r.Expr)
		if err != nil {
			return "", err
		}
		alias, err := c.QuoteIdentifier(r.As)
		if err != nil {
			return "", err
		}
		return expr + " AS " + alias, nil
	case queryir.SubQuery:
		return c.compileSubQuery(r)
	case queryir.Expr:
		return string(r), nil
	case queryir.Fn:
		return c.compileFn(r)
	case queryir.Custom:
		if r.Stringer == nil {
			return "", newUnsupportedError("custom identifier has no string form")
		}
		return c.quoteName(r.String()), nil
	default:
		return "", newUnsupportedError("unsupported identifier type %T", r)
	}
}

// quoteName handles the string forms of an identifier: the wildcard,
// embedded "quoted" spans, dotted paths and plain names. A stray " that
// opens no complete span is part of the name and gets wrapped with it.
func (c *Compiler) quoteName(name string) string {
	if name == string(queryir.Wildcard) {
		return name
	}

	if embeddedIdent.MatchString(name) {
		return embeddedIdent.ReplaceAllStringFunc(name, func(m string) string {
			return c.quoteName(m[1 : len(m)-1])
		})
	}

	if strings.Contains(name, ".") {
		segs := strings.Split(name, ".")
		for i, s := range segs {
			segs[i] = c.quoteName(s)
		}
		return strings.Join(segs, ".")
	}

	return c.dialect.quoteSegment(name)
}

func (c *Compiler) escape(s string) (string, error) {
	out, err := c.escaper.Quote(s)
	if err != nil {
		return "", &CompileError{
			Code:    ErrCodeEscapeFailed,
			Message: "escaping string literal",
			Err:     err,
		}
	}
	return out, nil
}

func (c *Compiler) compileSubQuery(sq queryir.SubQuery) (string, error) {
	if sq.Spec == nil {
		return "", newUnsupportedError("sub-query without a statement")
	}
	sql, err := c.Compile(sq.Spec)
	if err != nil {
		return "", err
	}
	return "(" + sql + ")", nil
}

// compileFn renders NAME(args...) unless the dialect overrides the function.
func (c *Compiler) compileFn(fn queryir.Fn) (string, error) {
	if override, ok := c.dialect.Functions[strings.ToLower(fn.Name)]; ok {
		return override(c, fn)
	}

	args := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		var (
			s   string
			err error
		)
		if fn.QuoteAs == queryir.QuoteAsIdentifier {
			s, err = c.quoteArgIdentifier(a)
		} else {
			s, err = c.Quote(a)
		}
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	return strings.ToUpper(fn.Name) + "(" + strings.Join(args, ", ") + ")", nil
}

func (c *Compiler) quoteArgIdentifier(v queryir.Value) (string, error) {
	switch v := v.(type) {
	case queryir.Text:
		return c.QuoteIdentifier(queryir.Name(v))
	case queryir.Identifier:
		return c.QuoteIdentifier(v.Ref)
	case queryir.Expr:
		return c.QuoteIdentifier(v)
	case queryir.Fn:
		return c.QuoteIdentifier(v)
	case queryir.SubQuery:
		return c.QuoteIdentifier(v)
	case queryir.Custom:
		return c.QuoteIdentifier(v)
	default:
		return "", newUnsupportedError("%T cannot be used as an identifier argument", v)
	}
}
