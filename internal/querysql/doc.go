// Package querysql compiles queryir.Spec values into SQL text.
//
// The generic algorithm targets SQL-92 with MySQL-style defaults (backtick
// identifiers, '1'/'0' booleans). A Dialect changes the identifier
// delimiter, boolean literals and default escaper, and may replace any
// single fragment compiler (LIMIT/OFFSET, JOIN, ...) or the rendering of a
// named SQL function.
//
// # Pipeline
//
//	Compile*      statement assemblers, fixed fragment order
//	  part*       one compiler per clause, "" when the clause is empty
//	    QuoteIdentifier / CompileConditions
//	      Quote   literals, delegating strings to the Escaper
//
// Values are inlined as literals, never bound as parameters. Strings always
// go through the connection's Escaper, which decides the literal syntax.
//
// # Errors
//
// Every Spec is validated before compilation (see queryir.Validate), so
// unbalanced grouping markers, a BETWEEN without two values or a statement
// missing its table surface as a STRUCTURAL *CompileError rather than
// malformed SQL. Escaper failures are wrapped unchanged.
//
// # Concurrency
//
// A Compiler is immutable after New and holds no per-call state, so one
// Compiler may be shared by many goroutines as long as its Escaper is safe
// for concurrent use.
package querysql
