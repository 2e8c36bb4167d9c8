package queryir

import (
	"fmt"
	"strings"
)

// Problem is one structural defect found by Validate.
type Problem struct {
	Clause  string `json:"clause"` // "where", "having[2]", "join[0].on", ...
	Message string `json:"message"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Clause, p.Message)
}

// ValidationResult contains the structural analysis of a Spec.
type ValidationResult struct {
	// Valid is true when no problems were found.
	Valid bool

	// Problems lists every defect in traversal order.
	Problems []Problem
}

// Validate checks that a Spec is structurally sound for its Kind. Only the
// clauses the kind renders are checked; the rest are ignored:
//   - the fields its statement kind requires are present
//   - grouping markers in WHERE and HAVING balance
//   - connectors are AND or OR
//   - BETWEEN predicates carry exactly two values
//   - LIMIT and OFFSET are not negative
//
// Sub-queries are validated recursively. Validate is a pure function.
func Validate(spec *Spec) ValidationResult {
	v := &validator{}
	v.validateSpec("", spec)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []Problem
}

func (v *validator) add(clause, format string, args ...any) {
	v.problems = append(v.problems, Problem{Clause: clause, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validateSpec(prefix string, spec *Spec) {
	if spec == nil {
		v.add(prefix+"query", "nil query")
		return
	}

	switch spec.Kind {
	case KindSelect, KindDelete, KindTableDrop:
		v.requireTable(prefix, spec)
	case KindUpdate:
		v.requireTable(prefix, spec)
		if len(spec.Set) == 0 {
			v.add(prefix+"set", "at least one assignment is required")
		}
		for i, a := range spec.Set {
			if a.Column == "" {
				v.add(fmt.Sprintf("%sset[%d]", prefix, i), "column is required")
			}
			v.validateValue(fmt.Sprintf("%sset[%d]", prefix, i), a.Value)
		}
	case KindInsert:
		v.requireTable(prefix, spec)
		if len(spec.InsertColumns) == 0 {
			v.add(prefix+"columns", "at least one insert column is required")
		}
		if len(spec.Rows) == 0 {
			v.add(prefix+"values", "at least one row is required")
		}
		for i, row := range spec.Rows {
			for col, val := range row {
				v.validateValue(fmt.Sprintf("%svalues[%d].%s", prefix, i, col), val)
			}
		}
	case KindDatabaseCreate, KindDatabaseDrop:
		if spec.Database == "" {
			v.add(prefix+"database", "database name is required")
		}
	case KindTableCreate:
		v.requireTable(prefix, spec)
		if len(spec.Fields) == 0 {
			v.add(prefix+"fields", "at least one field is required")
		}
		for i, f := range spec.Fields {
			if f.Name == "" || f.Type == "" {
				v.add(fmt.Sprintf("%sfields[%d]", prefix, i), "field name and type are required")
			}
		}
	default:
		v.add(prefix+"kind", "unknown statement kind %d", int(spec.Kind))
		return
	}

	switch spec.Kind {
	case KindSelect:
		for i := 1; i < len(spec.Tables); i++ {
			v.validateRef(fmt.Sprintf("%stable[%d]", prefix, i), spec.Tables[i])
		}
		for i, c := range spec.Columns {
			v.validateRef(fmt.Sprintf("%scolumns[%d]", prefix, i), c)
		}
		for i, j := range spec.Joins {
			v.validateJoin(fmt.Sprintf("%sjoin[%d]", prefix, i), j)
		}
		v.validateConditions(prefix+"where", spec.Where)
		for i, g := range spec.GroupBy {
			v.validateRef(fmt.Sprintf("%sgroup_by[%d]", prefix, i), g)
		}
		v.validateConditions(prefix+"having", spec.Having)
		v.validateOrdering(prefix, spec)
	case KindUpdate, KindDelete:
		v.validateConditions(prefix+"where", spec.Where)
		v.validateOrdering(prefix, spec)
	}
}

// validateOrdering checks ORDER BY and LIMIT/OFFSET.
func (v *validator) validateOrdering(prefix string, spec *Spec) {
	for i, o := range spec.OrderBy {
		if o.Column == nil {
			v.add(fmt.Sprintf("%sorder_by[%d]", prefix, i), "column is required")
		}
	}
	if spec.Limit != nil && *spec.Limit < 0 {
		v.add(prefix+"limit", "must not be negative")
	}
	if spec.Offset != nil && *spec.Offset < 0 {
		v.add(prefix+"offset", "must not be negative")
	}
}

// requireTable checks the statement's target table, the first of Tables.
func (v *validator) requireTable(prefix string, spec *Spec) {
	t := spec.Table()
	if t == nil || isBlankName(t) {
		v.add(prefix+"table", "table is required for %s", spec.Kind)
		return
	}
	v.validateRef(prefix+"table", t)
}

func isBlankName(r Ref) bool {
	n, ok := r.(Name)
	return ok && strings.TrimSpace(string(n)) == ""
}

// validateConditions checks marker balance and leaf shape in one pass.
func (v *validator) validateConditions(clause string, conds []Condition) {
	depth := 0
	for i, c := range conds {
		at := fmt.Sprintf("%s[%d]", clause, i)
		if !validConnector(c.Connector) {
			v.add(at, "unknown connector %q", c.Connector)
		}

		switch c.Nesting {
		case NestOpen:
			depth++
			continue
		case NestClose:
			depth--
			if depth < 0 {
				v.add(at, "close marker without matching open")
				depth = 0
			}
			continue
		case NestNone:
		default:
			v.add(at, "unknown nesting marker %d", int(c.Nesting))
			continue
		}

		if c.Field == nil {
			v.add(at, "field is required")
		} else {
			v.validateRef(at, c.Field)
		}
		if strings.TrimSpace(c.Op) == "" {
			v.add(at, "operator is required")
		}
		if op := strings.ToUpper(strings.TrimSpace(c.Op)); op == "BETWEEN" || op == "NOT BETWEEN" {
			if list, ok := c.Value.(List); !ok || len(list) != 2 {
				v.add(at, "BETWEEN requires exactly two values")
			}
		}
		v.validateValue(at, c.Value)
	}
	if depth > 0 {
		v.add(clause, "%d open marker(s) without matching close", depth)
	}
}

func (v *validator) validateJoin(at string, j Join) {
	if j.Table == nil {
		v.add(at, "table is required")
	} else {
		v.validateRef(at, j.Table)
	}
	for i, on := range j.On {
		onAt := fmt.Sprintf("%s.on[%d]", at, i)
		if on.Left == nil || on.Right == nil {
			v.add(onAt, "both sides of a join condition are required")
		}
		if !validConnector(on.Connector) {
			v.add(onAt, "unknown connector %q", on.Connector)
		}
	}
}

// validateValue descends into composite values looking for sub-queries.
func (v *validator) validateValue(at string, val Value) {
	switch x := val.(type) {
	case nil:
		v.add(at, "value is required (use Null for NULL)")
	case List:
		for _, item := range x {
			v.validateValue(at, item)
		}
	case SubQuery:
		v.validateSpec(at+".", x.Spec)
	case Fn:
		for _, arg := range x.Args {
			v.validateValue(at, arg)
		}
	case Identifier:
		v.validateRef(at, x.Ref)
	}
}

func (v *validator) validateRef(at string, ref Ref) {
	switch x := ref.(type) {
	case nil:
		v.add(at, "identifier is required")
	case Name:
		if strings.TrimSpace(string(x)) == "" {
			v.add(at, "identifier is empty")
		}
	case Alias:
		v.validateRef(at, x.Expr)
		v.validateRef(at, x.As)
	case SubQuery:
		v.validateSpec(at+".", x.Spec)
	case Fn:
		for _, arg := range x.Args {
			v.validateValue(at, arg)
		}
	}
}

func validConnector(c Connector) bool {
	switch Connector(strings.ToUpper(string(c))) {
	case "", And, Or:
		return true
	}
	return false
}
