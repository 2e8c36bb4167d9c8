// Package harness runs compiler conformance scenarios.
//
// A scenario compiles a list of query documents with one dialect and checks
// each against the expected SQL text or error code. Scenarios for the
// sqlite dialect may also execute the compiled statements against a fresh
// in-memory store and check the returned rows.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	dialect: sqlite
//	setup:
//	  - CREATE TABLE users (id INTEGER, name TEXT)
//	  - {kind: insert, table: users, values: [{id: 1, name: ann}]}
//	cases:
//	  - name: by_id
//	    query: {table: users, columns: [name], where: [[id, "=", 1]]}
//	    expect: SELECT "name" FROM "users" WHERE "id" = 1
//	    exec:
//	      rows: [[ann]]
//	  - name: unbalanced
//	    query: {table: users, where: ["("]}
//	    error: STRUCTURAL
//
// Setup entries are raw SQL strings or query documents. Setup and exec
// require the sqlite dialect.
//
// # Golden Files
//
// RunWithGolden snapshots the compiled statements of every case under
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
