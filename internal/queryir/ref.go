package queryir

// Ref is a sealed interface for identifier references: columns, tables and
// anything that may stand in their place.
type Ref interface {
	refNode()
}

// Wildcard is the select-all marker. It is never quoted.
const Wildcard = Name("*")

// Name is a plain, dotted (schema.table.column) or embedded-quote
// (FUNC("col")) identifier.
type Name string

func (Name) refNode() {}

// Alias renders as `Expr AS As`.
type Alias struct {
	Expr Ref
	As   Ref
}

func (Alias) refNode() {}

// As is shorthand for aliasing a plain or dotted name.
func As(name, alias string) Alias {
	return Alias{Expr: Name(name), As: Name(alias)}
}

// Names converts plain strings into refs.
func Names(names ...string) []Ref {
	refs := make([]Ref, len(names))
	for i, n := range names {
		refs[i] = Name(n)
	}
	return refs
}
