// Package querydoc reads declarative query documents (YAML, JSON or CUE)
// into queryir.Spec values.
//
// A document is a map with one key per clause:
//
//	kind: select
//	table: users
//	columns: [id, [name, n], {fn: {name: count, args: [id], identifiers: true}}]
//	where:
//	  - [age, ">", 18]
//	  - or: [[role, "=", admin], [role, "=", owner]]
//	order_by: ["id desc"]
//	limit: 10
//
// Plain scalars are literals. A single-key map selects another variant:
// raw (verbatim expression), raw_value (escaped, no type dispatch), ident
// (identifier in value position), fn (function call), query (sub-query) and
// value (literal, never interpreted as a variant). In identifier position a
// two-element list is an alias pair.
package querydoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/sqlcomp/internal/queryir"
)

// DocError reports a malformed document. Path locates the offending node,
// e.g. "where[2].value".
type DocError struct {
	Path    string
	Message string
}

func (e *DocError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func errAt(path, format string, args ...any) error {
	return &DocError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Decode converts a generic document map into a Spec.
func Decode(doc map[string]any) (*queryir.Spec, error) {
	return decodeSpec("", doc)
}

var specKeys = map[string]bool{
	"kind": true, "table": true, "tables": true, "columns": true, "distinct": true,
	"where": true, "having": true, "join": true, "joins": true, "group_by": true,
	"order_by": true, "limit": true, "offset": true, "values": true, "rows": true,
	"set": true, "database": true, "if_exists": true, "if_not_exists": true,
	"engine": true, "charset": true, "charset_default": true, "fields": true,
	"primary_key": true,
}

func decodeSpec(prefix string, doc map[string]any) (*queryir.Spec, error) {
	for k := range doc {
		if !specKeys[k] {
			return nil, errAt(prefix+k, "unknown key")
		}
	}

	spec := &queryir.Spec{}
	var err error

	if raw, ok := doc["kind"]; ok {
		name, err := cast.ToStringE(raw)
		if err != nil {
			return nil, errAt(prefix+"kind", "%v", err)
		}
		kind, ok := queryir.ParseKind(name)
		if !ok {
			return nil, errAt(prefix+"kind", "unknown statement kind %q", name)
		}
		spec.Kind = kind
	}

	if spec.Tables, err = decodeTables(prefix, doc); err != nil {
		return nil, err
	}

	if raw, ok := doc["columns"]; ok {
		if spec.Kind == queryir.KindInsert {
			cols, err := cast.ToStringSliceE(raw)
			if err != nil {
				return nil, errAt(prefix+"columns", "%v", err)
			}
			spec.InsertColumns = cols
		} else if spec.Columns, err = decodeRefList(prefix+"columns", raw); err != nil {
			return nil, err
		}
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"distinct", &spec.Distinct},
		{"if_exists", &spec.IfExists},
		{"if_not_exists", &spec.IfNotExists},
		{"charset_default", &spec.CharsetDefault},
	}
	for _, f := range flags {
		if raw, ok := doc[f.key]; ok {
			b, err := cast.ToBoolE(raw)
			if err != nil {
				return nil, errAt(prefix+f.key, "%v", err)
			}
			*f.dst = b
		}
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"database", &spec.Database},
		{"engine", &spec.Engine},
		{"charset", &spec.Charset},
	}
	for _, s := range strs {
		if raw, ok := doc[s.key]; ok {
			v, err := cast.ToStringE(raw)
			if err != nil {
				return nil, errAt(prefix+s.key, "%v", err)
			}
			*s.dst = v
		}
	}

	if spec.Where, err = decodeConditions(prefix+"where", doc["where"]); err != nil {
		return nil, err
	}
	if spec.Having, err = decodeConditions(prefix+"having", doc["having"]); err != nil {
		return nil, err
	}

	joins := doc["joins"]
	if joins == nil {
		joins = doc["join"]
	}
	if spec.Joins, err = decodeJoins(prefix+"joins", joins); err != nil {
		return nil, err
	}

	if raw, ok := doc["group_by"]; ok {
		if spec.GroupBy, err = decodeRefList(prefix+"group_by", raw); err != nil {
			return nil, err
		}
	}
	if spec.OrderBy, err = decodeOrder(prefix+"order_by", doc["order_by"]); err != nil {
		return nil, err
	}

	if spec.Limit, err = decodeCount(prefix+"limit", doc, "limit"); err != nil {
		return nil, err
	}
	if spec.Offset, err = decodeCount(prefix+"offset", doc, "offset"); err != nil {
		return nil, err
	}

	rows := doc["rows"]
	if rows == nil && spec.Kind == queryir.KindInsert {
		rows = doc["values"]
	}
	if rows != nil {
		if spec.Rows, err = decodeRows(prefix+"rows", rows); err != nil {
			return nil, err
		}
		if len(spec.InsertColumns) == 0 {
			spec.InsertColumns = rowColumns(spec.Rows)
		}
	}

	set := doc["set"]
	if set == nil && spec.Kind == queryir.KindUpdate {
		set = doc["values"]
	}
	if set != nil {
		if spec.Set, err = decodeSet(prefix+"set", set); err != nil {
			return nil, err
		}
	}

	if raw, ok := doc["fields"]; ok {
		if spec.Fields, err = decodeFields(prefix+"fields", raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := doc["primary_key"]; ok {
		if spec.PrimaryKey, err = cast.ToStringSliceE(raw); err != nil {
			return nil, errAt(prefix+"primary_key", "%v", err)
		}
	}

	return spec, nil
}

func decodeTables(prefix string, doc map[string]any) ([]queryir.Ref, error) {
	raw, ok := doc["tables"]
	key := "tables"
	if !ok {
		raw, ok = doc["table"]
		key = "table"
	}
	if !ok {
		return nil, nil
	}
	if list, isList := raw.([]any); isList && key == "tables" {
		return decodeRefList(prefix+key, list)
	}
	ref, err := decodeRef(prefix+key, raw)
	if err != nil {
		return nil, err
	}
	return []queryir.Ref{ref}, nil
}

func decodeCount(path string, doc map[string]any, key string) (*int64, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return nil, errAt(path, "%v", err)
	}
	return &n, nil
}

// decodeValue maps a document node in value position.
func decodeValue(path string, raw any) (queryir.Value, error) {
	switch v := raw.(type) {
	case []any:
		list := make(queryir.List, len(v))
		for i, item := range v {
			val, err := decodeValue(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			list[i] = val
		}
		return list, nil
	case map[string]any:
		return decodeTaggedValue(path, v)
	default:
		val, err := queryir.ValueOf(raw)
		if err != nil {
			return nil, errAt(path, "%v", err)
		}
		return val, nil
	}
}

func decodeTaggedValue(path string, m map[string]any) (queryir.Value, error) {
	tag, body, err := singleKey(path, m)
	if err != nil {
		return nil, err
	}
	at := path + "." + tag

	switch tag {
	case "raw":
		s, err := cast.ToStringE(body)
		if err != nil {
			return nil, errAt(at, "%v", err)
		}
		return queryir.Expr(s), nil
	case "raw_value":
		s, err := cast.ToStringE(body)
		if err != nil {
			return nil, errAt(at, "%v", err)
		}
		return queryir.RawValue(s), nil
	case "ident":
		ref, err := decodeRef(at, body)
		if err != nil {
			return nil, err
		}
		return queryir.Identifier{Ref: ref}, nil
	case "fn":
		return decodeFn(at, body)
	case "query":
		return decodeSubQuery(at, body)
	case "value":
		val, err := queryir.ValueOf(body)
		if err != nil {
			return nil, errAt(at, "%v", err)
		}
		return val, nil
	default:
		return nil, errAt(path, "unknown value tag %q", tag)
	}
}

// decodeRef maps a document node in identifier position.
func decodeRef(path string, raw any) (queryir.Ref, error) {
	switch v := raw.(type) {
	case string:
		return queryir.Name(v), nil
	case []any:
		if len(v) != 2 {
			return nil, errAt(path, "alias needs [expr, alias], got %d elements", len(v))
		}
		expr, err := decodeRef(path+"[0]", v[0])
		if err != nil {
			return nil, err
		}
		as, err := decodeRef(path+"[1]", v[1])
		if err != nil {
			return nil, err
		}
		return queryir.Alias{Expr: expr, As: as}, nil
	case map[string]any:
		tag, body, err := singleKey(path, v)
		if err != nil {
			return nil, err
		}
		at := path + "." + tag
		switch tag {
		case "raw":
			s, err := cast.ToStringE(body)
			if err != nil {
				return nil, errAt(at, "%v", err)
			}
			return queryir.Expr(s), nil
		case "ident":
			return decodeRef(at, body)
		case "fn":
			return decodeFn(at, body)
		case "query":
			return decodeSubQuery(at, body)
		default:
			return nil, errAt(path, "unknown identifier tag %q", tag)
		}
	case nil:
		return nil, errAt(path, "identifier is required")
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, errAt(path, "%v", err)
		}
		return queryir.Name(s), nil
	}
}

func decodeRefList(path string, raw any) ([]queryir.Ref, error) {
	list, ok := raw.([]any)
	if !ok {
		ref, err := decodeRef(path, raw)
		if err != nil {
			return nil, err
		}
		return []queryir.Ref{ref}, nil
	}
	refs := make([]queryir.Ref, len(list))
	for i, item := range list {
		ref, err := decodeRef(fmt.Sprintf("%s[%d]", path, i), item)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	return refs, nil
}

// decodeFn accepts {name, args, identifiers} or a bare function name.
func decodeFn(path string, raw any) (queryir.Fn, error) {
	if name, ok := raw.(string); ok {
		return queryir.Fn{Name: name}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return queryir.Fn{}, errAt(path, "function must be a name or a map, got %T", raw)
	}

	name, err := cast.ToStringE(m["name"])
	if err != nil || name == "" {
		return queryir.Fn{}, errAt(path+".name", "function name is required")
	}
	fn := queryir.Fn{Name: name}

	if raw, ok := m["identifiers"]; ok {
		asIdent, err := cast.ToBoolE(raw)
		if err != nil {
			return queryir.Fn{}, errAt(path+".identifiers", "%v", err)
		}
		if asIdent {
			fn.QuoteAs = queryir.QuoteAsIdentifier
		}
	}

	if raw, ok := m["args"]; ok {
		args, ok := raw.([]any)
		if !ok {
			args = []any{raw}
		}
		for i, a := range args {
			at := fmt.Sprintf("%s.args[%d]", path, i)
			var (
				val queryir.Value
				err error
			)
			if s, isStr := a.(string); isStr && fn.QuoteAs == queryir.QuoteAsIdentifier {
				val = queryir.Text(s)
			} else {
				val, err = decodeValue(at, a)
			}
			if err != nil {
				return queryir.Fn{}, err
			}
			fn.Args = append(fn.Args, val)
		}
	}
	return fn, nil
}

func decodeSubQuery(path string, raw any) (queryir.SubQuery, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return queryir.SubQuery{}, errAt(path, "sub-query must be a map, got %T", raw)
	}
	spec, err := decodeSpec(path+".", m)
	if err != nil {
		return queryir.SubQuery{}, err
	}
	return queryir.SubQuery{Spec: spec}, nil
}

func singleKey(path string, m map[string]any) (string, any, error) {
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, errAt(path, "expected a single-key map, got keys %v", keys)
	}
	for k, v := range m {
		return k, v, nil
	}
	return "", nil, nil
}

// decodeConditions flattens the document form into a condition list.
//
// Items are "(", "or (", ")" markers, [field, op, value(, connector)]
// lists, {field, op, value, connector} maps, or {and: [...]} / {or: [...]}
// groups that expand to open, members, close.
func decodeConditions(path string, raw any) ([]queryir.Condition, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errAt(path, "conditions must be a list, got %T", raw)
	}

	var out []queryir.Condition
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		conds, err := decodeCondition(at, item)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}
	return out, nil
}

func decodeCondition(path string, raw any) ([]queryir.Condition, error) {
	switch v := raw.(type) {
	case string:
		switch strings.ToLower(strings.Join(strings.Fields(v), " ")) {
		case "(":
			return []queryir.Condition{{Nesting: queryir.NestOpen}}, nil
		case "and (":
			return []queryir.Condition{queryir.Open()}, nil
		case "or (":
			return []queryir.Condition{queryir.OrOpen()}, nil
		case ")":
			return []queryir.Condition{queryir.Close()}, nil
		}
		return nil, errAt(path, "unknown grouping marker %q", v)

	case []any:
		if len(v) < 3 || len(v) > 4 {
			return nil, errAt(path, "predicate needs [field, op, value] or [field, op, value, connector]")
		}
		cond, err := leaf(path, v[0], v[1], v[2])
		if err != nil {
			return nil, err
		}
		if len(v) == 4 {
			conn, err := cast.ToStringE(v[3])
			if err != nil {
				return nil, errAt(path+"[3]", "%v", err)
			}
			cond.Connector = queryir.Connector(strings.ToUpper(conn))
		}
		return []queryir.Condition{cond}, nil

	case map[string]any:
		for _, conn := range []queryir.Connector{queryir.And, queryir.Or} {
			key := strings.ToLower(string(conn))
			members, ok := v[key]
			if !ok {
				continue
			}
			if len(v) != 1 {
				return nil, errAt(path, "group %q must be the only key", key)
			}
			inner, err := decodeConditions(path+"."+key, members)
			if err != nil {
				return nil, err
			}
			if conn == queryir.Or {
				orMembers(inner)
			}
			out := make([]queryir.Condition, 0, len(inner)+2)
			out = append(out, queryir.Condition{Nesting: queryir.NestOpen})
			out = append(out, inner...)
			return append(out, queryir.Close()), nil
		}

		cond, err := leaf(path, v["field"], v["op"], v["value"])
		if err != nil {
			return nil, err
		}
		if raw, ok := v["connector"]; ok {
			conn, err := cast.ToStringE(raw)
			if err != nil {
				return nil, errAt(path+".connector", "%v", err)
			}
			cond.Connector = queryir.Connector(strings.ToUpper(conn))
		}
		return []queryir.Condition{cond}, nil

	default:
		return nil, errAt(path, "unsupported condition %T", raw)
	}
}

func leaf(path string, field, op, value any) (queryir.Condition, error) {
	ref, err := decodeRef(path+".field", field)
	if err != nil {
		return queryir.Condition{}, err
	}
	opText, err := cast.ToStringE(op)
	if err != nil {
		return queryir.Condition{}, errAt(path+".op", "%v", err)
	}
	val, err := decodeValue(path+".value", value)
	if err != nil {
		return queryir.Condition{}, err
	}
	return queryir.Condition{Field: ref, Op: opText, Value: val}, nil
}

// orMembers joins the top-level members of a group with OR unless they
// carry an explicit connector.
func orMembers(conds []queryir.Condition) {
	depth := 0
	for i := range conds {
		switch conds[i].Nesting {
		case queryir.NestClose:
			depth--
			continue
		case queryir.NestOpen:
			if depth == 0 && conds[i].Connector == "" {
				conds[i].Connector = queryir.Or
			}
			depth++
			continue
		}
		if depth == 0 && conds[i].Connector == "" {
			conds[i].Connector = queryir.Or
		}
	}
}

func decodeJoins(path string, raw any) ([]queryir.Join, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errAt(path, "joins must be a list, got %T", raw)
	}

	joins := make([]queryir.Join, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errAt(at, "join must be a map, got %T", item)
		}
		table, err := decodeRef(at+".table", m["table"])
		if err != nil {
			return nil, err
		}
		typ, err := cast.ToStringE(m["type"])
		if err != nil {
			return nil, errAt(at+".type", "%v", err)
		}
		joins[i] = queryir.Join{Type: typ, Table: table}

		if m["on"] == nil {
			continue
		}
		ons, ok := m["on"].([]any)
		if !ok {
			return nil, errAt(at+".on", "on must be a list, got %T", m["on"])
		}
		for k, on := range ons {
			onAt := fmt.Sprintf("%s.on[%d]", at, k)
			parts, ok := on.([]any)
			if !ok || len(parts) < 3 || len(parts) > 4 {
				return nil, errAt(onAt, "join condition needs [left, op, right] or [left, op, right, connector]")
			}
			left, err := decodeRef(onAt+"[0]", parts[0])
			if err != nil {
				return nil, err
			}
			op, err := cast.ToStringE(parts[1])
			if err != nil {
				return nil, errAt(onAt+"[1]", "%v", err)
			}
			right, err := decodeRef(onAt+"[2]", parts[2])
			if err != nil {
				return nil, err
			}
			jo := queryir.JoinOn{Left: left, Op: op, Right: right, Connector: queryir.And}
			if len(parts) == 4 {
				conn, err := cast.ToStringE(parts[3])
				if err != nil {
					return nil, errAt(onAt+"[3]", "%v", err)
				}
				jo.Connector = queryir.Connector(strings.ToUpper(conn))
			}
			joins[i].On = append(joins[i].On, jo)
		}
	}
	return joins, nil
}

// decodeOrder accepts "col", "col desc", [col, dir] and {column, direction}.
func decodeOrder(path string, raw any) ([]queryir.Order, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}

	orders := make([]queryir.Order, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch v := item.(type) {
		case string:
			col, dir := v, ""
			if idx := strings.LastIndexByte(v, ' '); idx > 0 {
				switch d := strings.ToUpper(v[idx+1:]); d {
				case "ASC", "DESC":
					col, dir = strings.TrimSpace(v[:idx]), d
				}
			}
			orders[i] = queryir.Order{Column: queryir.Name(col), Direction: dir}
		case []any:
			if len(v) != 2 {
				return nil, errAt(at, "order needs [column, direction]")
			}
			col, err := decodeRef(at+"[0]", v[0])
			if err != nil {
				return nil, err
			}
			dir, err := cast.ToStringE(v[1])
			if err != nil {
				return nil, errAt(at+"[1]", "%v", err)
			}
			orders[i] = queryir.Order{Column: col, Direction: dir}
		case map[string]any:
			col, err := decodeRef(at+".column", v["column"])
			if err != nil {
				return nil, err
			}
			dir, err := cast.ToStringE(v["direction"])
			if err != nil {
				return nil, errAt(at+".direction", "%v", err)
			}
			orders[i] = queryir.Order{Column: col, Direction: dir}
		default:
			return nil, errAt(at, "unsupported order %T", item)
		}
	}
	return orders, nil
}

func decodeRows(path string, raw any) ([]queryir.Row, error) {
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}
	rows := make([]queryir.Row, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errAt(at, "row must be a map, got %T", item)
		}
		row := make(queryir.Row, len(m))
		for col, v := range m {
			val, err := decodeValue(at+"."+col, v)
			if err != nil {
				return nil, err
			}
			row[col] = val
		}
		rows[i] = row
	}
	return rows, nil
}

// rowColumns is the sorted union of the rows' column names.
func rowColumns(rows []queryir.Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

// decodeSet accepts a map (assignments sorted by column) or a list of
// [column, value] pairs (document order).
func decodeSet(path string, raw any) ([]queryir.Assignment, error) {
	switch v := raw.(type) {
	case map[string]any:
		cols := make([]string, 0, len(v))
		for col := range v {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		set := make([]queryir.Assignment, len(cols))
		for i, col := range cols {
			val, err := decodeValue(path+"."+col, v[col])
			if err != nil {
				return nil, err
			}
			set[i] = queryir.Assignment{Column: col, Value: val}
		}
		return set, nil
	case []any:
		set := make([]queryir.Assignment, len(v))
		for i, item := range v {
			at := fmt.Sprintf("%s[%d]", path, i)
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, errAt(at, "assignment needs [column, value]")
			}
			col, err := cast.ToStringE(pair[0])
			if err != nil {
				return nil, errAt(at+"[0]", "%v", err)
			}
			val, err := decodeValue(at+"[1]", pair[1])
			if err != nil {
				return nil, err
			}
			set[i] = queryir.Assignment{Column: col, Value: val}
		}
		return set, nil
	default:
		return nil, errAt(path, "set must be a map or a list of pairs, got %T", raw)
	}
}

func decodeFields(path string, raw any) ([]queryir.Field, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, errAt(path, "fields must be a list, got %T", raw)
	}
	fields := make([]queryir.Field, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errAt(at, "field must be a map, got %T", item)
		}
		f := queryir.Field{
			Name: cast.ToString(m["name"]),
			Type: cast.ToString(m["type"]),
		}
		if raw, ok := m["not_null"]; ok {
			b, err := cast.ToBoolE(raw)
			if err != nil {
				return nil, errAt(at+".not_null", "%v", err)
			}
			f.NotNull = b
		}
		if raw, ok := m["auto_increment"]; ok {
			b, err := cast.ToBoolE(raw)
			if err != nil {
				return nil, errAt(at+".auto_increment", "%v", err)
			}
			f.AutoIncrement = b
		}
		if raw, ok := m["default"]; ok {
			val, err := decodeValue(at+".default", raw)
			if err != nil {
				return nil, err
			}
			f.Default = val
		}
		fields[i] = f
	}
	return fields, nil
}
