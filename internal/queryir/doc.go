// Package queryir provides the in-memory description of a SQL statement that
// the querysql compiler turns into text.
//
// A Spec is a flat record with one field per clause. Which fields matter is
// decided by Spec.Kind; fields irrelevant to the kind are ignored by the
// compiler.
//
// # Sealed Variants
//
// Values and identifier references are sealed interfaces using the marker
// method pattern, so backends can switch over them exhaustively:
//
//	switch v := value.(type) {
//	case queryir.Null:
//	case queryir.Int:
//	case queryir.Text:
//	...
//	}
//
// Value is anything that can appear on the right-hand side of a predicate,
// in a SET assignment or in an INSERT row. Ref is anything that names a
// column or table: a plain or dotted Name, an Alias pair, a SubQuery, a raw
// Expr or a function call.
//
// # Conditions
//
// WHERE and HAVING clauses are flat lists of Condition nodes. A node is a
// leaf predicate or a grouping marker (NestOpen / NestClose). Every node
// carries the connector that joins it to its predecessor:
//
//	[]Condition{
//	  Where("status", "=", Text("active")),
//	  OrOpen(),
//	  Where("age", ">", Int(18)),
//	  Where("age", "<", Int(65)),
//	  Close(),
//	}
//
// compiles to
//
//	`status` = 'active' OR (`age` > 18 AND `age` < 65)
//
// Validate reports structural problems (unbalanced markers, missing required
// fields) before compilation.
package queryir
