package querysql

import (
	"strings"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// condGroup is one parenthesized level of a condition list.
type condGroup struct {
	items []condItem
}

// condItem is either a leaf predicate or a nested group.
type condItem struct {
	connector queryir.Connector
	leaf      *queryir.Condition
	group     *condGroup
}

// CompileConditions renders a flat condition list as one boolean
// expression, as used after WHERE and HAVING.
//
// Grouping markers must balance. Empty groups are dropped together with
// their connector, and a group whose only member is another group renders
// one set of parentheses.
func (c *Compiler) CompileConditions(conds []queryir.Condition) (string, error) {
	root, err := buildConditionTree(conds)
	if err != nil {
		return "", err
	}
	root.normalize()

	var sb strings.Builder
	if err := c.writeGroup(&sb, root); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func buildConditionTree(conds []queryir.Condition) (*condGroup, error) {
	root := &condGroup{}
	stack := []*condGroup{root}
	connectors := []queryir.Connector{""}

	for i := range conds {
		cond := &conds[i]
		top := stack[len(stack)-1]

		switch cond.Nesting {
		case queryir.NestOpen:
			stack = append(stack, &condGroup{})
			connectors = append(connectors, cond.Connector)
		case queryir.NestClose:
			if len(stack) == 1 {
				return nil, newStructuralError("conditions", "close marker at position %d has no matching open", i)
			}
			parent := stack[len(stack)-2]
			parent.items = append(parent.items, condItem{
				connector: connectors[len(connectors)-1],
				group:     top,
			})
			stack = stack[:len(stack)-1]
			connectors = connectors[:len(connectors)-1]
		default:
			top.items = append(top.items, condItem{connector: cond.Connector, leaf: cond})
		}
	}

	if len(stack) != 1 {
		return nil, newStructuralError("conditions", "%d open marker(s) never closed", len(stack)-1)
	}
	return root, nil
}

// normalize removes empty groups and collapses directly nested groups.
func (g *condGroup) normalize() {
	kept := g.items[:0]
	for _, it := range g.items {
		if it.group != nil {
			it.group.normalize()
			for len(it.group.items) == 1 && it.group.items[0].group != nil {
				it.group = it.group.items[0].group
			}
			if len(it.group.items) == 0 {
				continue
			}
		}
		kept = append(kept, it)
	}
	g.items = kept
}

func (c *Compiler) writeGroup(sb *strings.Builder, g *condGroup) error {
	for i, it := range g.items {
		if i > 0 {
			conn, err := connectorText(it.connector)
			if err != nil {
				return err
			}
			sb.WriteString(" " + conn + " ")
		}

		if it.group != nil {
			sb.WriteByte('(')
			if err := c.writeGroup(sb, it.group); err != nil {
				return err
			}
			sb.WriteByte(')')
			continue
		}

		leaf, err := c.compilePredicate(it.leaf)
		if err != nil {
			return err
		}
		sb.WriteString(leaf)
	}
	return nil
}

func connectorText(conn queryir.Connector) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(string(conn))) {
	case "", "AND":
		return "AND", nil
	case "OR":
		return "OR", nil
	default:
		return "", newStructuralError("conditions", "unknown connector %q", conn)
	}
}

// compilePredicate renders `field OP value`.
func (c *Compiler) compilePredicate(cond *queryir.Condition) (string, error) {
	if cond.Field == nil {
		return "", newStructuralError("conditions", "predicate without a field")
	}
	op := strings.ToUpper(strings.TrimSpace(cond.Op))
	if op == "" {
		return "", newStructuralError("conditions", "predicate without an operator")
	}

	field, err := c.QuoteIdentifier(cond.Field)
	if err != nil {
		return "", err
	}

	var value string
	switch v := cond.Value.(type) {
	case queryir.Null:
		switch op {
		case "=":
			op = "IS"
		case "!=", "<>":
			op = "IS NOT"
		}
		value = "NULL"
	default:
		if op == "BETWEEN" || op == "NOT BETWEEN" {
			value, err = c.quoteRange(v)
		} else {
			value, err = c.Quote(v)
		}
		if err != nil {
			return "", err
		}
	}

	return field + " " + op + " " + value, nil
}

func (c *Compiler) quoteRange(v queryir.Value) (string, error) {
	bounds, ok := v.(queryir.List)
	if !ok || len(bounds) != 2 {
		return "", newStructuralError("conditions", "BETWEEN needs a two-element list, got %T", v)
	}
	lo, err := c.Quote(bounds[0])
	if err != nil {
		return "", err
	}
	hi, err := c.Quote(bounds[1])
	if err != nil {
		return "", err
	}
	return lo + " AND " + hi, nil
}
