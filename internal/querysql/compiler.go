package querysql

import (
	"errors"
	"strings"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// Compiler turns Specs into SQL text for one dialect and connection.
//
// A Compiler holds no mutable state; it is safe for concurrent use when its
// Escaper is.
type Compiler struct {
	dialect Dialect
	escaper Escaper
}

// New creates a Compiler. A nil conn falls back to the dialect's escaper,
// or StandardEscaper when the dialect has none.
func New(d Dialect, conn Escaper) *Compiler {
	if conn == nil {
		conn = d.Escaper
	}
	if conn == nil {
		conn = StandardEscaper{}
	}
	return &Compiler{dialect: d, escaper: conn}
}

// Dialect returns the dialect the compiler renders.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Compile dispatches on spec.Kind.
func (c *Compiler) Compile(spec *queryir.Spec) (string, error) {
	if spec == nil {
		return "", newStructuralError("", "nil query")
	}
	switch spec.Kind {
	case queryir.KindSelect:
		return c.CompileSelect(spec)
	case queryir.KindInsert:
		return c.CompileInsert(spec)
	case queryir.KindUpdate:
		return c.CompileUpdate(spec)
	case queryir.KindDelete:
		return c.CompileDelete(spec)
	case queryir.KindDatabaseCreate:
		return c.CompileDatabaseCreate(spec)
	case queryir.KindDatabaseDrop:
		return c.CompileDatabaseDrop(spec)
	case queryir.KindTableCreate:
		return c.CompileTableCreate(spec)
	case queryir.KindTableDrop:
		return c.CompileTableDrop(spec)
	default:
		return "", newStructuralError("kind", "unknown statement kind %d", int(spec.Kind))
	}
}

// CompileSelect renders SELECT ... FROM ... JOIN ... WHERE ... GROUP BY ...
// HAVING ... ORDER BY ... LIMIT/OFFSET.
func (c *Compiler) CompileSelect(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindSelect,
		part{"select", f.Select, c.partSelect},
		part{"from", f.From, c.partFrom},
		part{"join", f.Join, c.partJoin},
		part{"where", f.Where, c.partWhere},
		part{"group_by", f.GroupBy, c.partGroupBy},
		part{"having", f.Having, c.partHaving},
		part{"order_by", f.OrderBy, c.partOrderBy},
		part{"limit", f.LimitOffset, c.partLimitOffset},
	)
}

// CompileUpdate renders UPDATE ... SET ... WHERE ... ORDER BY ... LIMIT/OFFSET.
func (c *Compiler) CompileUpdate(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindUpdate,
		part{"update", f.Update, c.partUpdate},
		part{"set", f.Set, c.partSet},
		part{"where", f.Where, c.partWhere},
		part{"order_by", f.OrderBy, c.partOrderBy},
		part{"limit", f.LimitOffset, c.partLimitOffset},
	)
}

// CompileDelete renders DELETE FROM ... WHERE ... ORDER BY ... LIMIT/OFFSET.
func (c *Compiler) CompileDelete(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindDelete,
		part{"delete", f.Delete, c.partDelete},
		part{"where", f.Where, c.partWhere},
		part{"order_by", f.OrderBy, c.partOrderBy},
		part{"limit", f.LimitOffset, c.partLimitOffset},
	)
}

// CompileInsert renders INSERT INTO t (cols) VALUES (...), (...).
func (c *Compiler) CompileInsert(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindInsert,
		part{"insert", f.Insert, c.partInsert},
		part{"values", f.InsertValues, c.partInsertValues},
	)
}

// CompileDatabaseCreate renders CREATE DATABASE [IF NOT EXISTS] db [charset].
func (c *Compiler) CompileDatabaseCreate(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindDatabaseCreate,
		part{"database", f.DatabaseTarget, c.partDatabaseTarget},
		part{"charset", f.Charset, c.partCharset},
	)
}

// CompileDatabaseDrop renders DROP DATABASE [IF EXISTS] db.
func (c *Compiler) CompileDatabaseDrop(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindDatabaseDrop,
		part{"database", f.DatabaseTarget, c.partDatabaseTarget},
	)
}

// CompileTableCreate renders CREATE TABLE [IF NOT EXISTS] t ( fields
// [, PRIMARY KEY (...)] ) [ENGINE = x] [charset].
func (c *Compiler) CompileTableCreate(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindTableCreate,
		part{"table", f.TableTarget, c.partTableTarget},
		part{"fields", f.Fields, c.partFields},
		part{"primary_key", f.PrimaryKey, c.partPrimaryKey},
		part{"engine", f.Engine, c.partEngine},
		part{"charset", f.Charset, c.partCharset},
	)
}

// CompileTableDrop renders DROP TABLE [IF EXISTS] t.
func (c *Compiler) CompileTableDrop(spec *queryir.Spec) (string, error) {
	f := c.dialect.Fragments
	return c.assemble(spec, queryir.KindTableDrop,
		part{"table", f.TableTarget, c.partTableTarget},
	)
}

// part is one clause of a statement: the dialect override, if any, and the
// generic compiler.
type part struct {
	clause   string
	override FragmentFunc
	generic  func(*queryir.Spec) (string, error)
}

// assemble validates spec as a statement of the given kind and
// concatenates its parts in order.
func (c *Compiler) assemble(spec *queryir.Spec, kind queryir.Kind, parts ...part) (string, error) {
	if spec == nil {
		return "", newStructuralError("", "nil query")
	}
	checked := *spec
	checked.Kind = kind
	if res := queryir.Validate(&checked); !res.Valid {
		return "", fromValidation(res)
	}

	var sb strings.Builder
	for _, p := range parts {
		var (
			s   string
			err error
		)
		if p.override != nil {
			s, err = p.override(c, &checked)
		} else {
			s, err = p.generic(&checked)
		}
		if err != nil {
			return "", withClause(err, p.clause)
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// withClause records the clause on a CompileError that has none yet.
func withClause(err error, clause string) error {
	var ce *CompileError
	if errors.As(err, &ce) && ce.Clause == "" {
		ce.Clause = clause
	}
	return err
}
