package queryir

import "fmt"

// Value is a sealed interface representing a literal or expression in value
// position. Only the types in this package implement it.
type Value interface {
	valueNode()
}

// Null renders as NULL and turns = / != predicates into IS / IS NOT.
type Null struct{}

func (Null) valueNode() {}

// Bool renders as the dialect's boolean literal.
type Bool bool

func (Bool) valueNode() {}

// Int renders as a decimal integer literal without escaping.
type Int int64

func (Int) valueNode() {}

// Float renders in fixed notation with six decimals and '.' as radix point,
// independent of any host locale.
type Float float64

func (Float) valueNode() {}

// Text is a string literal. It is always passed through the connection's
// escaper.
type Text string

func (Text) valueNode() {}

// List renders each element and wraps them in parentheses, as used by IN.
// BETWEEN predicates take a two-element List instead.
type List []Value

func (List) valueNode() {}

// NewList creates a List from values.
func NewList(vals ...Value) List {
	return List(vals)
}

// RawValue is handed to the escaper as-is, bypassing type dispatch.
type RawValue string

func (RawValue) valueNode() {}

// Identifier places an identifier reference in value position, e.g. to
// compare two columns.
type Identifier struct {
	Ref Ref
}

func (Identifier) valueNode() {}

// Ident is shorthand for an Identifier of a plain or dotted name.
func Ident(name string) Identifier {
	return Identifier{Ref: Name(name)}
}

// Expr is emitted verbatim in both value and identifier position.
// The caller is responsible for its safety.
type Expr string

func (Expr) valueNode() {}
func (Expr) refNode()   {}

// QuoteMode selects how function arguments are rendered.
type QuoteMode int

const (
	// QuoteAsValue renders arguments through the value quoter.
	QuoteAsValue QuoteMode = iota
	// QuoteAsIdentifier renders arguments through the identifier quoter.
	QuoteAsIdentifier
)

// Fn is a SQL function call: NAME(arg, arg, ...).
//
// Dialects may replace the rendering of a function by name.
type Fn struct {
	Name    string
	Args    []Value
	QuoteAs QuoteMode
}

func (Fn) valueNode() {}
func (Fn) refNode()   {}

// Call creates a function call whose arguments quote as values.
func Call(name string, args ...Value) Fn {
	return Fn{Name: name, Args: args, QuoteAs: QuoteAsValue}
}

// CallOn creates a function call whose arguments quote as identifiers.
// Arguments are given as names, e.g. CallOn("count", "users.id").
func CallOn(name string, cols ...string) Fn {
	args := make([]Value, len(cols))
	for i, c := range cols {
		args[i] = Text(c)
	}
	return Fn{Name: name, Args: args, QuoteAs: QuoteAsIdentifier}
}

// SubQuery embeds another statement. It is compiled with the same dialect
// and connection as the enclosing statement and wrapped in parentheses.
type SubQuery struct {
	Spec *Spec
}

func (SubQuery) valueNode() {}
func (SubQuery) refNode()   {}

// Custom wraps any type with a textual representation. In value position
// the String() result is quoted as Text, in identifier position it is
// quoted as a Name.
type Custom struct {
	fmt.Stringer
}

func (Custom) valueNode() {}
func (Custom) refNode()   {}
