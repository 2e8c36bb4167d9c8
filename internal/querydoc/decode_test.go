package querydoc

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlcomp/internal/queryir"
	"github.com/roach88/sqlcomp/internal/querysql"
)

func compile(t *testing.T, spec *queryir.Spec) string {
	t.Helper()
	sql, err := querysql.New(querysql.MySQL(), nil).Compile(spec)
	require.NoError(t, err)
	return sql
}

func parseYAML(t *testing.T, doc string) *queryir.Spec {
	t.Helper()
	spec, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	return spec
}

const usersSQL = "SELECT `id`, `name` AS `n` FROM `users` WHERE `age` > 18 AND (`role` = 'admin' OR `role` = 'owner') ORDER BY `id` DESC LIMIT 10"

func TestLoadFile_AllFormats(t *testing.T) {
	for _, name := range []string{"users.yaml", "users.json", "users.cue"} {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadFile(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, usersSQL, compile(t, spec))
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "nope.yaml"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("q.JSON"))
	assert.Equal(t, FormatCUE, FormatFromPath("dir/q.cue"))
	assert.Equal(t, FormatYAML, FormatFromPath("q.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("q"))
}

func TestParse_Insert(t *testing.T) {
	spec := parseYAML(t, `
kind: insert
table: t
columns: [a, b]
values:
  - {a: 1}
  - {a: 2, b: x}
`)
	assert.Equal(t, "INSERT INTO t (a , b) VALUES (1, NULL), (2, 'x')", compile(t, spec))
}

func TestParse_InsertDerivesColumns(t *testing.T) {
	spec := parseYAML(t, `
kind: insert
table: t
rows:
  - {b: 1}
  - {a: true}
`)
	assert.Equal(t, []string{"a", "b"}, spec.InsertColumns)
	assert.Equal(t, "INSERT INTO t (a , b) VALUES (NULL, 1), ('1', NULL)", compile(t, spec))
}

func TestParse_Update(t *testing.T) {
	spec := parseYAML(t, `
kind: update
table: t
values: {b: {raw: "b + 1"}, a: 5}
where: [[id, "=", 1]]
`)
	assert.Equal(t, "UPDATE `t` SET `a` = 5, `b` = b + 1 WHERE `id` = 1", compile(t, spec))

	spec = parseYAML(t, `
kind: update
table: t
set: [[z, null], [a, 1.5]]
where: [{field: id, op: "=", value: 1}]
`)
	assert.Equal(t, "UPDATE `t` SET `z` = NULL, `a` = 1.500000 WHERE `id` = 1", compile(t, spec))
}

func TestParse_Delete(t *testing.T) {
	spec := parseYAML(t, `
kind: delete
table: sessions
where:
  - [expires, "<", {fn: now}]
  - [user_id, in, {query: {table: banned, columns: [user_id]}}]
`)
	assert.Equal(t,
		"DELETE FROM `sessions` WHERE `expires` < NOW() AND `user_id` IN (SELECT `user_id` FROM `banned`)",
		compile(t, spec))
}

func TestParse_Joins(t *testing.T) {
	spec := parseYAML(t, `
table: [users, u]
columns: ["u.id", {fn: {name: count, args: ["o.id"], identifiers: true}}]
joins:
  - type: left
    table: [orders, o]
    on:
      - [u.id, "=", o.user_id]
      - [o.state, "=", u.state, or]
group_by: [u.id]
having:
  - [{raw: "COUNT(*)"}, ">", 2]
`)
	assert.Equal(t,
		"SELECT `u`.`id`, COUNT(`o`.`id`) FROM `users` AS `u`"+
			" LEFT JOIN `orders` AS `o` ON (`u`.`id` = `o`.`user_id` OR `o`.`state` = `u`.`state`)"+
			" GROUP BY `u`.`id` HAVING COUNT(*) > 2",
		compile(t, spec))
}

func TestParse_ConditionMarkers(t *testing.T) {
	spec := parseYAML(t, `
table: t
where:
  - [a, "=", 1]
  - "or ("
  - [b, "=", {ident: c}]
  - [d, between, [1, 5]]
  - ")"
  - [e, "!=", null]
`)
	assert.Equal(t,
		"SELECT * FROM `t` WHERE `a` = 1 OR (`b` = `c` AND `d` BETWEEN 1 AND 5) AND `e` IS NOT NULL",
		compile(t, spec))
}

func TestParse_NestedGroups(t *testing.T) {
	spec := parseYAML(t, `
table: t
where:
  - or:
      - [a, "=", 1]
      - and:
          - [b, "=", 2]
          - [c, "=", 3]
`)
	assert.Equal(t, "SELECT * FROM `t` WHERE (`a` = 1 OR (`b` = 2 AND `c` = 3))", compile(t, spec))
}

func TestParse_TaggedValues(t *testing.T) {
	spec := parseYAML(t, `
table: t
where:
  - [a, "=", {value: "{raw}"}]
  - [b, "=", {raw_value: "x'y"}]
  - [c, in, {value: [1, 2]}]
`)
	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = '{raw}' AND `b` = 'x\\'y' AND `c` IN (1, 2)", compile(t, spec))
}

func TestParse_DDL(t *testing.T) {
	spec := parseYAML(t, `
kind: create_table
table: users
if_not_exists: "true"
fields:
  - {name: id, type: INT(11), not_null: true, auto_increment: true}
  - {name: email, type: VARCHAR(255), default: ""}
primary_key: [id]
engine: InnoDB
charset: utf8mb4_unicode_ci
charset_default: true
`)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS `users` ( `id` INT(11) NOT NULL AUTO_INCREMENT, `email` VARCHAR(255) DEFAULT '',"+
			" PRIMARY KEY (`id`) ) ENGINE = InnoDB DEFAULT CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci",
		compile(t, spec))

	spec = parseYAML(t, "kind: drop-database\ndatabase: shop\nif_exists: 1\n")
	assert.Equal(t, "DROP DATABASE IF EXISTS `shop`", compile(t, spec))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"unknown key", "table: t\nwhere_clause: []\n", "where_clause"},
		{"unknown kind", "kind: merge\n", "kind"},
		{"bad limit", "table: t\nlimit: lots\n", "limit"},
		{"bad predicate", "table: t\nwhere: [[a, \"=\"]]\n", "where[0]"},
		{"bad marker", "table: t\nwhere: [\"((\"]\n", "where[0]"},
		{"bad tag", "table: t\nwhere: [[a, \"=\", {bogus: 1}]]\n", "where[0].value"},
		{"multi-key tag", "table: t\ncolumns: [{raw: a, fn: b}]\n", "columns[0]"},
		{"bad alias", "table: t\ncolumns: [[a, b, c]]\n", "columns[0]"},
		{"sub-query error", "table: t\nwhere: [[a, in, {query: {nope: 1}}]]\n", "where[0].value.query.nope"},
		{"fn without name", "table: t\ncolumns: [{fn: {args: [1]}}]\n", "columns[0].fn.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			require.Error(t, err)
			var de *DocError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, tt.path, de.Path)
		})
	}
}

func TestParse_EmptyAndMalformed(t *testing.T) {
	_, err := Parse([]byte(""), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("table: [unclosed"), FormatYAML)
	assert.Error(t, err)

	_, err = Parse([]byte("x"), Format("toml"))
	assert.Error(t, err)
}

func TestFromCUE_Errors(t *testing.T) {
	ctx := cuecontext.New()

	_, err := FromCUE(ctx.CompileString(`table: "t" & "u"`))
	assert.Error(t, err)

	_, err = FromCUE(ctx.CompileString(`table: string`))
	assert.Error(t, err, "non-concrete documents are rejected")
}

func TestParse_CUE(t *testing.T) {
	spec, err := Parse([]byte(`
kind: "delete"
table: "t"
where: [["id", "=", 1]]
limit: 1
`), FormatCUE)
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `t` WHERE `id` = 1 LIMIT 1", compile(t, spec))
}
