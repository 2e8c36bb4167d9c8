package querysql

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlcomp/internal/queryir"
)

type label string

func (l label) String() string { return "label:" + string(l) }

func mysql(t *testing.T) *Compiler {
	t.Helper()
	return New(MySQL(), nil)
}

func TestQuote_Scalars(t *testing.T) {
	c := mysql(t)

	tests := []struct {
		name string
		in   queryir.Value
		want string
	}{
		{"null", queryir.Null{}, "NULL"},
		{"true", queryir.Bool(true), "'1'"},
		{"false", queryir.Bool(false), "'0'"},
		{"int", queryir.Int(-42), "-42"},
		{"float", queryir.Float(1234.5), "1234.500000"},
		{"float small", queryir.Float(0.1), "0.100000"},
		{"text", queryir.Text("hello"), "'hello'"},
		{"text with quote", queryir.Text("it's"), `'it\'s'`},
		{"raw value", queryir.RawValue("a'b"), `'a\'b'`},
		{"expr", queryir.Expr("NOW() - INTERVAL 1 DAY"), "NOW() - INTERVAL 1 DAY"},
		{"custom", queryir.Custom{Stringer: label("x")}, "'label:x'"},
		{"identifier", queryir.Ident("t.col"), "`t`.`col`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Quote(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuote_List(t *testing.T) {
	c := mysql(t)

	got, err := c.Quote(queryir.NewList(queryir.Int(1), queryir.Text("a"), queryir.Null{}))

	require.NoError(t, err)
	assert.Equal(t, "(1, 'a', NULL)", got)
}

func TestQuote_SubQuery(t *testing.T) {
	c := mysql(t)
	sub := queryir.SubQuery{Spec: &queryir.Spec{
		Tables:  queryir.Names("users"),
		Columns: queryir.Names("id"),
		Where:   []queryir.Condition{queryir.Where("active", "=", queryir.Bool(true))},
	}}

	got, err := c.Quote(sub)

	require.NoError(t, err)
	assert.Equal(t, "(SELECT `id` FROM `users` WHERE `active` = '1')", got)
}

func TestQuote_Functions(t *testing.T) {
	c := mysql(t)

	got, err := c.Quote(queryir.Call("coalesce", queryir.Null{}, queryir.Int(0)))
	require.NoError(t, err)
	assert.Equal(t, "COALESCE(NULL, 0)", got)

	got, err = c.Quote(queryir.CallOn("count", "users.id"))
	require.NoError(t, err)
	assert.Equal(t, "COUNT(`users`.`id`)", got)

	got, err = c.Quote(queryir.Fn{
		Name:    "concat_ws",
		QuoteAs: queryir.QuoteAsIdentifier,
		Args:    []queryir.Value{queryir.Expr("' '"), queryir.Text("first"), queryir.Ident("last")},
	})
	require.NoError(t, err)
	assert.Equal(t, "CONCAT_WS(' ', `first`, `last`)", got)
}

func TestQuote_FloatIsLocaleIndependent(t *testing.T) {
	c := mysql(t)
	t.Setenv("LC_ALL", "de_DE.UTF-8")
	t.Setenv("LC_NUMERIC", "de_DE.UTF-8")

	got, err := c.Quote(queryir.Float(1234.5))

	require.NoError(t, err)
	assert.Equal(t, "1234.500000", got)
	assert.NotContains(t, got, ",")
}

func TestQuote_Unsupported(t *testing.T) {
	c := mysql(t)

	tests := []struct {
		name string
		in   queryir.Value
	}{
		{"nil", nil},
		{"nil custom", queryir.Custom{}},
		{"nan", queryir.Float(math.NaN())},
		{"inf", queryir.Float(math.Inf(1))},
		{"empty sub-query", queryir.SubQuery{}},
		{"identifier arg", queryir.Fn{Name: "f", QuoteAs: queryir.QuoteAsIdentifier, Args: []queryir.Value{queryir.Int(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Quote(tt.in)
			require.Error(t, err)
			assert.True(t, IsUnsupportedValueError(err), "got %v", err)
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	c := mysql(t)

	tests := []struct {
		name string
		in   queryir.Ref
		want string
	}{
		{"wildcard", queryir.Wildcard, "*"},
		{"plain", queryir.Name("users"), "`users`"},
		{"dotted", queryir.Name("db.users.id"), "`db`.`users`.`id`"},
		{"table wildcard", queryir.Name("users.*"), "`users`.*"},
		{"embedded", queryir.Name(`COUNT("id")`), "COUNT(`id`)"},
		{"embedded dotted", queryir.Name(`MAX("o.total") + 1`), "MAX(`o`.`total`) + 1"},
		{"delimiter doubled", queryir.Name("we`ird"), "`we``ird`"},
		{"alias", queryir.As("users.id", "uid"), "`users`.`id` AS `uid`"},
		{"expr", queryir.Expr("COUNT(*)"), "COUNT(*)"},
		{"fn", queryir.CallOn("max", "price"), "MAX(`price`)"},
		{"custom", queryir.Custom{Stringer: label("x")}, "`label:x`"},
		{"sub-query", queryir.SubQuery{Spec: &queryir.Spec{Tables: queryir.Names("t")}}, "(SELECT * FROM `t`)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.QuoteIdentifier(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteIdentifier_DottedEqualsSegments(t *testing.T) {
	c := mysql(t)

	whole, err := c.QuoteIdentifier(queryir.Name("a.b.c"))
	require.NoError(t, err)

	var segs []string
	for _, s := range []string{"a", "b", "c"} {
		q, err := c.QuoteIdentifier(queryir.Name(s))
		require.NoError(t, err)
		segs = append(segs, q)
	}

	assert.Equal(t, segs[0]+"."+segs[1]+"."+segs[2], whole)
}

func TestQuoteIdentifier_Injective(t *testing.T) {
	c := mysql(t)

	a, err := c.QuoteIdentifier(queryir.Name("a"))
	require.NoError(t, err)
	b, err := c.QuoteIdentifier(queryir.Name("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "`a`", a)
	assert.Equal(t, "`b`", b)
}

func TestQuoteIdentifier_UnpairedDoubleQuote(t *testing.T) {
	name := queryir.Name(`x"; DROP TABLE users; --`)

	got, err := mysql(t).QuoteIdentifier(name)
	require.NoError(t, err)
	assert.Equal(t, "`x\"; DROP TABLE users; --`", got)

	got, err = New(SQLite(), nil).QuoteIdentifier(name)
	require.NoError(t, err)
	assert.Equal(t, `"x""; DROP TABLE users; --"`, got)

	got, err = mysql(t).QuoteIdentifier(queryir.Name(`s.t"x`))
	require.NoError(t, err)
	assert.Equal(t, "`s`.`t\"x`", got)
}

func TestQuoteIdentifier_Nil(t *testing.T) {
	c := mysql(t)

	_, err := c.QuoteIdentifier(nil)
	assert.True(t, IsUnsupportedValueError(err))

	_, err = c.QuoteIdentifier(queryir.Alias{Expr: queryir.Name("a")})
	assert.True(t, IsUnsupportedValueError(err))
}
