package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// Generic clause compilers. Each returns "" when its clause is empty so
// that statements can be assembled by plain concatenation.

func (c *Compiler) partSelect(spec *queryir.Spec) (string, error) {
	cols := spec.Columns
	if len(cols) == 0 {
		cols = []queryir.Ref{queryir.Wildcard}
	}
	list, err := c.quoteRefs(cols)
	if err != nil {
		return "", err
	}
	if spec.Distinct {
		return "SELECT DISTINCT " + list, nil
	}
	return "SELECT " + list, nil
}

func (c *Compiler) partFrom(spec *queryir.Spec) (string, error) {
	list, err := c.quoteRefs(spec.Tables)
	if err != nil {
		return "", err
	}
	return " FROM " + list, nil
}

func (c *Compiler) partJoin(spec *queryir.Spec) (string, error) {
	if len(spec.Joins) == 0 {
		return "", nil
	}

	joins := make([]string, len(spec.Joins))
	for i, j := range spec.Joins {
		var sb strings.Builder
		if t := strings.TrimSpace(j.Type); t != "" {
			sb.WriteString(strings.ToUpper(t) + " ")
		}
		table, err := c.QuoteIdentifier(j.Table)
		if err != nil {
			return "", err
		}
		sb.WriteString("JOIN " + table)

		if len(j.On) > 0 {
			sb.WriteString(" ON (")
			for k, on := range j.On {
				if k > 0 {
					conn, err := connectorText(on.Connector)
					if err != nil {
						return "", err
					}
					sb.WriteString(" " + conn + " ")
				}
				left, err := c.QuoteIdentifier(on.Left)
				if err != nil {
					return "", err
				}
				right, err := c.QuoteIdentifier(on.Right)
				if err != nil {
					return "", err
				}
				sb.WriteString(left)
				if op := strings.TrimSpace(on.Op); op != "" {
					sb.WriteString(" " + strings.ToUpper(op))
				}
				sb.WriteString(" " + right)
			}
			sb.WriteByte(')')
		}
		joins[i] = sb.String()
	}
	return " " + strings.Join(joins, " "), nil
}

func (c *Compiler) partWhere(spec *queryir.Spec) (string, error) {
	return c.conditionClause(" WHERE ", spec.Where)
}

func (c *Compiler) partHaving(spec *queryir.Spec) (string, error) {
	return c.conditionClause(" HAVING ", spec.Having)
}

func (c *Compiler) conditionClause(keyword string, conds []queryir.Condition) (string, error) {
	if len(conds) == 0 {
		return "", nil
	}
	expr, err := c.CompileConditions(conds)
	if err != nil {
		return "", err
	}
	if expr == "" {
		return "", nil
	}
	return keyword + expr, nil
}

func (c *Compiler) partGroupBy(spec *queryir.Spec) (string, error) {
	if len(spec.GroupBy) == 0 {
		return "", nil
	}
	list, err := c.quoteRefs(spec.GroupBy)
	if err != nil {
		return "", err
	}
	return " GROUP BY " + list, nil
}

func (c *Compiler) partOrderBy(spec *queryir.Spec) (string, error) {
	if len(spec.OrderBy) == 0 {
		return "", nil
	}
	keys := make([]string, len(spec.OrderBy))
	for i, o := range spec.OrderBy {
		col, err := c.QuoteIdentifier(o.Column)
		if err != nil {
			return "", err
		}
		if dir := strings.TrimSpace(o.Direction); dir != "" {
			col += " " + strings.ToUpper(dir)
		}
		keys[i] = col
	}
	return " ORDER BY " + strings.Join(keys, ", "), nil
}

func (c *Compiler) partLimitOffset(spec *queryir.Spec) (string, error) {
	var part string
	if spec.Limit != nil {
		part += " LIMIT " + strconv.FormatInt(*spec.Limit, 10)
	}
	if spec.Offset != nil {
		part += " OFFSET " + strconv.FormatInt(*spec.Offset, 10)
	}
	return part, nil
}

// partDatabaseTarget renders CREATE DATABASE [IF NOT EXISTS] db or
// DROP DATABASE [IF EXISTS] db.
func (c *Compiler) partDatabaseTarget(spec *queryir.Spec) (string, error) {
	name, err := c.QuoteIdentifier(queryir.Name(spec.Database))
	if err != nil {
		return "", err
	}
	if spec.Kind == queryir.KindDatabaseDrop {
		return ddlHeader("DROP DATABASE ", spec.IfExists, "IF EXISTS ", name), nil
	}
	return ddlHeader("CREATE DATABASE ", spec.IfNotExists, "IF NOT EXISTS ", name), nil
}

// partTableTarget renders DROP TABLE [IF EXISTS] t, or the CREATE TABLE
// header up to the opening parenthesis of the field list.
func (c *Compiler) partTableTarget(spec *queryir.Spec) (string, error) {
	name, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	if spec.Kind == queryir.KindTableDrop {
		return ddlHeader("DROP TABLE ", spec.IfExists, "IF EXISTS ", name), nil
	}
	return ddlHeader("CREATE TABLE ", spec.IfNotExists, "IF NOT EXISTS ", name) + " ( ", nil
}

func ddlHeader(verb string, guarded bool, guard, name string) string {
	if guarded {
		return verb + guard + name
	}
	return verb + name
}

func (c *Compiler) partUpdate(spec *queryir.Spec) (string, error) {
	table, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	return "UPDATE " + table, nil
}

func (c *Compiler) partSet(spec *queryir.Spec) (string, error) {
	if len(spec.Set) == 0 {
		return "", nil
	}
	parts := make([]string, len(spec.Set))
	for i, a := range spec.Set {
		col, err := c.QuoteIdentifier(queryir.Name(a.Column))
		if err != nil {
			return "", err
		}
		val, err := c.Quote(a.Value)
		if err != nil {
			return "", err
		}
		parts[i] = col + " = " + val
	}
	return " SET " + strings.Join(parts, ", "), nil
}

func (c *Compiler) partDelete(spec *queryir.Spec) (string, error) {
	table, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	return "DELETE FROM " + table, nil
}

// partInsert emits a plain table name as given. Other references are
// quoted.
func (c *Compiler) partInsert(spec *queryir.Spec) (string, error) {
	if name, ok := spec.Table().(queryir.Name); ok {
		return "INSERT INTO " + string(name), nil
	}
	table, err := c.QuoteIdentifier(spec.Table())
	if err != nil {
		return "", err
	}
	return "INSERT INTO " + table, nil
}

// partInsertValues emits the column list and one value tuple per row.
// Columns missing from a row are filled with NULL.
func (c *Compiler) partInsertValues(spec *queryir.Spec) (string, error) {
	tuples := make([]string, len(spec.Rows))
	for i, row := range spec.Rows {
		vals := make([]string, len(spec.InsertColumns))
		for k, col := range spec.InsertColumns {
			v, ok := row[col]
			if !ok {
				vals[k] = "NULL"
				continue
			}
			s, err := c.Quote(v)
			if err != nil {
				return "", err
			}
			vals[k] = s
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}
	return " (" + strings.Join(spec.InsertColumns, " , ") + ") VALUES " + strings.Join(tuples, ", "), nil
}

func (c *Compiler) partFields(spec *queryir.Spec) (string, error) {
	defs := make([]string, len(spec.Fields))
	for i, f := range spec.Fields {
		name, err := c.QuoteIdentifier(queryir.Name(f.Name))
		if err != nil {
			return "", err
		}
		def := name + " " + f.Type
		if f.NotNull {
			def += " NOT NULL"
		}
		if f.Default != nil {
			v, err := c.Quote(f.Default)
			if err != nil {
				return "", err
			}
			def += " DEFAULT " + v
		}
		if f.AutoIncrement {
			def += " AUTO_INCREMENT"
		}
		defs[i] = def
	}
	return strings.Join(defs, ", "), nil
}

func (c *Compiler) partPrimaryKey(spec *queryir.Spec) (string, error) {
	if len(spec.PrimaryKey) == 0 {
		return "", nil
	}
	list, err := c.quoteRefs(queryir.Names(spec.PrimaryKey...))
	if err != nil {
		return "", err
	}
	return ", PRIMARY KEY (" + list + ")", nil
}

// partEngine closes the field list opened by CREATE TABLE.
func (c *Compiler) partEngine(spec *queryir.Spec) (string, error) {
	if spec.Engine == "" {
		return " )", nil
	}
	return " ) ENGINE = " + spec.Engine, nil
}

// partCharset splits "utf8_general_ci" into CHARACTER SET utf8 COLLATE
// utf8_general_ci.
func (c *Compiler) partCharset(spec *queryir.Spec) (string, error) {
	cs := spec.Charset
	if cs == "" {
		return "", nil
	}
	var part string
	if set, _, ok := strings.Cut(cs, "_"); ok {
		part = fmt.Sprintf(" CHARACTER SET %s COLLATE %s", set, cs)
	} else {
		part = " CHARACTER SET " + cs
	}
	if spec.CharsetDefault {
		part = " DEFAULT" + part
	}
	return part, nil
}

func (c *Compiler) quoteRefs(refs []queryir.Ref) (string, error) {
	parts := make([]string, len(refs))
	for i, r := range refs {
		s, err := c.QuoteIdentifier(r)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}
