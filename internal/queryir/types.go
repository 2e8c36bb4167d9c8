package queryir

import "strings"

// Kind identifies which statement a Spec describes. The zero value is
// KindSelect.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
	KindDatabaseCreate
	KindDatabaseDrop
	KindTableCreate
	KindTableDrop
)

var kindNames = map[Kind]string{
	KindSelect:         "select",
	KindInsert:         "insert",
	KindUpdate:         "update",
	KindDelete:         "delete",
	KindDatabaseCreate: "create_database",
	KindDatabaseDrop:   "drop_database",
	KindTableCreate:    "create_table",
	KindTableDrop:      "drop_table",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a statement name ("select", "create_table", ...) to a Kind.
// Dashes and spaces are accepted in place of underscores.
func ParseKind(s string) (Kind, bool) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for k, name := range kindNames {
		if name == norm {
			return k, true
		}
	}
	return 0, false
}

// Spec describes one SQL statement. It is built by the caller and only read
// by the compiler.
type Spec struct {
	Kind Kind

	// Tables is the target of the statement. SELECT accepts several tables,
	// every other kind uses the first one.
	Tables   []Ref
	Columns  []Ref // SELECT list; empty means *
	Distinct bool

	Where   []Condition
	Having  []Condition
	Joins   []Join
	GroupBy []Ref
	OrderBy []Order
	Limit   *int64
	Offset  *int64

	// INSERT
	InsertColumns []string
	Rows          []Row

	// UPDATE
	Set []Assignment

	// DDL
	Database       string
	IfExists       bool
	IfNotExists    bool
	Engine         string
	Charset        string // "utf8" or "utf8_general_ci" (charset + collation)
	CharsetDefault bool
	Fields         []Field
	PrimaryKey     []string
}

// Table returns the first target table, or nil.
func (s *Spec) Table() Ref {
	if len(s.Tables) == 0 {
		return nil
	}
	return s.Tables[0]
}

// Connector joins a node to the node before it.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// Nesting marks a grouping node in a condition list.
type Nesting int

const (
	NestNone Nesting = iota
	NestOpen
	NestClose
)

// Condition is one node of a flat-encoded boolean tree.
//
// A node is a grouping marker when Nesting is NestOpen or NestClose, and a
// leaf predicate `Field Op Value` otherwise. The connector of the first
// node in a list (or the first node inside a group) is never emitted.
type Condition struct {
	Connector Connector
	Nesting   Nesting
	Field     Ref
	Op        string
	Value     Value
}

// IsGroup reports whether c is a grouping marker.
func (c Condition) IsGroup() bool {
	return c.Nesting == NestOpen || c.Nesting == NestClose
}

// Where creates an AND-connected leaf predicate on a plain or dotted name.
func Where(field, op string, value Value) Condition {
	return Condition{Connector: And, Field: Name(field), Op: op, Value: value}
}

// OrWhere creates an OR-connected leaf predicate.
func OrWhere(field, op string, value Value) Condition {
	return Condition{Connector: Or, Field: Name(field), Op: op, Value: value}
}

// Open starts an AND-connected group.
func Open() Condition {
	return Condition{Connector: And, Nesting: NestOpen}
}

// OrOpen starts an OR-connected group.
func OrOpen() Condition {
	return Condition{Connector: Or, Nesting: NestOpen}
}

// Close ends the innermost open group.
func Close() Condition {
	return Condition{Nesting: NestClose}
}

// Join is one JOIN clause. Type is INNER, LEFT, ... or empty for a plain
// JOIN.
type Join struct {
	Type  string
	Table Ref
	On    []JoinOn
}

// JoinOn is one comparison inside a join's ON clause. Both sides are
// identifiers. Connector joins it to the previous entry.
type JoinOn struct {
	Left      Ref
	Op        string
	Right     Ref
	Connector Connector
}

// On creates an AND-connected join comparison between two names.
func On(left, op, right string) JoinOn {
	return JoinOn{Left: Name(left), Op: op, Right: Name(right), Connector: And}
}

// Order is one ORDER BY key. Direction may be empty.
type Order struct {
	Column    Ref
	Direction string
}

// Row is one INSERT row, keyed by column name. Columns missing from a row
// are inserted as NULL.
type Row map[string]Value

// Assignment is one `column = value` pair of an UPDATE.
type Assignment struct {
	Column string
	Value  Value
}

// Field is a column definition of CREATE TABLE.
type Field struct {
	Name          string
	Type          string // rendered verbatim, e.g. "INT(11)" or "VARCHAR(255)"
	NotNull       bool
	Default       Value // nil means no DEFAULT clause
	AutoIncrement bool
}

// Int64 returns a pointer to n, for Limit and Offset.
func Int64(n int64) *int64 {
	return &n
}
