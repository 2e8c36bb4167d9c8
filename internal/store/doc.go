// Package store runs compiled statements against SQLite.
//
// A Store is the live connection side of the compiler: its Quote method is
// a querysql.Escaper backed by SQLite's own quote() function, and
// Compiler() returns a compiler for the sqlite dialect bound to it. Every
// statement executed through the store is appended to the
// sqlcomp_history table.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (file databases)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// History is read back ordered by seq ASC, id ASC COLLATE BINARY so that
// listings are identical across runs.
package store
