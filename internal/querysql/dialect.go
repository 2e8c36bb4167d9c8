package querysql

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// FragmentFunc compiles one clause of a statement. Returning "" omits the
// clause.
type FragmentFunc func(c *Compiler, spec *queryir.Spec) (string, error)

// FnFunc renders a function call in place of the generic NAME(args) form.
type FnFunc func(c *Compiler, fn queryir.Fn) (string, error)

// Fragments holds per-clause overrides. A nil field keeps the generic
// compiler for that clause.
type Fragments struct {
	Select       FragmentFunc
	From         FragmentFunc
	Join         FragmentFunc
	Where        FragmentFunc
	GroupBy      FragmentFunc
	Having       FragmentFunc
	OrderBy      FragmentFunc
	LimitOffset  FragmentFunc
	Update       FragmentFunc
	Set          FragmentFunc
	Delete       FragmentFunc
	Insert       FragmentFunc
	InsertValues FragmentFunc
	Fields       FragmentFunc
	PrimaryKey   FragmentFunc
	Engine       FragmentFunc
	Charset      FragmentFunc

	// DatabaseTarget renders CREATE/DROP DATABASE [guard] name and
	// TableTarget the CREATE/DROP TABLE [guard] name header. spec.Kind
	// tells create from drop.
	DatabaseTarget FragmentFunc
	TableTarget    FragmentFunc
}

// Dialect selects the syntax variant a Compiler emits.
type Dialect struct {
	Name string

	// OpenQuote and CloseQuote delimit identifiers. Embedded CloseQuote
	// characters are doubled.
	OpenQuote  string
	CloseQuote string

	// QuoteName replaces delimiter wrapping for a single identifier segment.
	QuoteName func(name string) string

	// True and False are the boolean literals.
	True  string
	False string

	// Escaper is used when New is given a nil escaper.
	Escaper Escaper

	Fragments Fragments

	// Functions overrides the rendering of SQL functions, keyed by
	// lower-case function name.
	Functions map[string]FnFunc
}

// quoteSegment wraps one identifier segment.
func (d *Dialect) quoteSegment(name string) string {
	if d.QuoteName != nil {
		return d.QuoteName(name)
	}
	if d.CloseQuote != "" {
		name = strings.ReplaceAll(name, d.CloseQuote, d.CloseQuote+d.CloseQuote)
	}
	return d.OpenQuote + name + d.CloseQuote
}

// MySQL is the default dialect: backtick identifiers, '1'/'0' booleans and
// backslash-aware string escaping.
func MySQL() Dialect {
	return Dialect{
		Name:       "mysql",
		OpenQuote:  "`",
		CloseQuote: "`",
		True:       "'1'",
		False:      "'0'",
		Escaper:    StandardEscaper{Backslashes: true},
	}
}

// SQLite uses ANSI double-quoted identifiers and 1/0 booleans. SQLite
// rejects OFFSET without LIMIT, so a lone offset renders as LIMIT -1 OFFSET n.
func SQLite() Dialect {
	return Dialect{
		Name:       "sqlite",
		OpenQuote:  `"`,
		CloseQuote: `"`,
		True:       "1",
		False:      "0",
		Escaper:    StandardEscaper{},
		Fragments: Fragments{
			LimitOffset: sqliteLimitOffset,
		},
	}
}

// Postgres quotes identifiers and literals with lib/pq and uses TRUE/FALSE.
func Postgres() Dialect {
	return Dialect{
		Name:       "postgres",
		OpenQuote:  `"`,
		CloseQuote: `"`,
		QuoteName:  pq.QuoteIdentifier,
		True:       "TRUE",
		False:      "FALSE",
		Escaper:    PostgresEscaper{},
	}
}

// MSSQL uses bracketed identifiers and OFFSET ... FETCH paging. UPDATE and
// DELETE take TOP (n) instead and cannot be ordered or offset.
func MSSQL() Dialect {
	return Dialect{
		Name:       "mssql",
		OpenQuote:  "[",
		CloseQuote: "]",
		True:       "1",
		False:      "0",
		Escaper:    StandardEscaper{},
		Fragments: Fragments{
			Update:      mssqlUpdate,
			Delete:      mssqlDelete,
			OrderBy:     mssqlOrderBy,
			LimitOffset: mssqlLimitOffset,
		},
		Functions: map[string]FnFunc{
			"now": func(c *Compiler, fn queryir.Fn) (string, error) {
				return "GETDATE()", nil
			},
		},
	}
}

var dialects = map[string]func() Dialect{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
}

// LookupDialect returns the built-in dialect registered under name.
// An empty name selects MySQL.
func LookupDialect(name string) (Dialect, error) {
	if name == "" {
		return MySQL(), nil
	}
	ctor, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, &CompileError{
			Code:    ErrCodeUnknownDialect,
			Message: fmt.Sprintf("unknown dialect %q (known: %s)", name, strings.Join(DialectNames(), ", ")),
		}
	}
	return ctor(), nil
}

// DialectNames lists the registered dialect names in sorted order.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sqliteLimitOffset(c *Compiler, spec *queryir.Spec) (string, error) {
	if spec.Offset != nil && spec.Limit == nil {
		return " LIMIT -1 OFFSET " + strconv.FormatInt(*spec.Offset, 10), nil
	}
	return c.partLimitOffset(spec)
}

func mssqlTop(spec *queryir.Spec) string {
	if spec.Limit == nil {
		return ""
	}
	return fmt.Sprintf("TOP (%d) ", *spec.Limit)
}

func mssqlUpdate(c *Compiler, spec *queryir.Spec) (string, error) {
	table, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	return "UPDATE " + mssqlTop(spec) + table, nil
}

func mssqlDelete(c *Compiler, spec *queryir.Spec) (string, error) {
	table, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	return "DELETE " + mssqlTop(spec) + "FROM " + table, nil
}

func isDML(spec *queryir.Spec) bool {
	return spec.Kind == queryir.KindUpdate || spec.Kind == queryir.KindDelete
}

func mssqlOrderBy(c *Compiler, spec *queryir.Spec) (string, error) {
	if isDML(spec) && len(spec.OrderBy) > 0 {
		return "", newStructuralError("", "mssql cannot order %s statements", spec.Kind)
	}
	return c.partOrderBy(spec)
}

func mssqlLimitOffset(c *Compiler, spec *queryir.Spec) (string, error) {
	if isDML(spec) {
		if spec.Offset != nil {
			return "", newStructuralError("", "mssql cannot offset %s statements", spec.Kind)
		}
		// The row limit is rendered as TOP (n) after the keyword.
		return "", nil
	}
	if spec.Limit == nil && spec.Offset == nil {
		return "", nil
	}

	var sb strings.Builder
	if len(spec.OrderBy) == 0 {
		sb.WriteString(" ORDER BY (SELECT NULL)")
	}
	offset := int64(0)
	if spec.Offset != nil {
		offset = *spec.Offset
	}
	fmt.Fprintf(&sb, " OFFSET %d ROWS", offset)
	if spec.Limit != nil {
		fmt.Fprintf(&sb, " FETCH NEXT %d ROWS ONLY", *spec.Limit)
	}
	return sb.String(), nil
}
