package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlcomp/internal/queryir"
)

func TestCompileConditions(t *testing.T) {
	a := queryir.Where("a", "=", queryir.Int(1))
	b := queryir.Where("b", "=", queryir.Int(2))
	orB := queryir.OrWhere("b", "=", queryir.Int(2))
	c3 := queryir.Where("c", "=", queryir.Int(3))

	tests := []struct {
		name  string
		conds []queryir.Condition
		want  string
	}{
		{
			name:  "single leaf",
			conds: []queryir.Condition{a},
			want:  "`a` = 1",
		},
		{
			name:  "and",
			conds: []queryir.Condition{a, b},
			want:  "`a` = 1 AND `b` = 2",
		},
		{
			name:  "first connector is never emitted",
			conds: []queryir.Condition{orB, a},
			want:  "`b` = 2 AND `a` = 1",
		},
		{
			name:  "lower-case connector",
			conds: []queryir.Condition{a, {Connector: "or", Field: queryir.Name("b"), Op: "=", Value: queryir.Int(2)}},
			want:  "`a` = 1 OR `b` = 2",
		},
		{
			name:  "or group",
			conds: []queryir.Condition{a, queryir.OrOpen(), b, c3, queryir.Close()},
			want:  "`a` = 1 OR (`b` = 2 AND `c` = 3)",
		},
		{
			name:  "leading group",
			conds: []queryir.Condition{queryir.Open(), a, orB, queryir.Close(), c3},
			want:  "(`a` = 1 OR `b` = 2) AND `c` = 3",
		},
		{
			name:  "consecutive opens collapse",
			conds: []queryir.Condition{queryir.Open(), queryir.Open(), a, queryir.Close(), queryir.Close()},
			want:  "(`a` = 1)",
		},
		{
			name:  "empty group is dropped",
			conds: []queryir.Condition{queryir.Open(), queryir.Close(), a},
			want:  "`a` = 1",
		},
		{
			name:  "trailing empty group is dropped",
			conds: []queryir.Condition{a, queryir.OrOpen(), queryir.Close()},
			want:  "`a` = 1",
		},
		{
			name:  "nested groups keep meaning",
			conds: []queryir.Condition{queryir.Open(), queryir.Open(), a, orB, queryir.Close(), c3, queryir.Close()},
			want:  "((`a` = 1 OR `b` = 2) AND `c` = 3)",
		},
		{
			name:  "only empty groups",
			conds: []queryir.Condition{queryir.Open(), queryir.Open(), queryir.Close(), queryir.Close()},
			want:  "",
		},
	}
	c := mysql(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.CompileConditions(tt.conds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileConditions_Predicates(t *testing.T) {
	tests := []struct {
		name string
		cond queryir.Condition
		want string
	}{
		{"is null", queryir.Where("x", "=", queryir.Null{}), "`x` IS NULL"},
		{"is not null", queryir.Where("x", "!=", queryir.Null{}), "`x` IS NOT NULL"},
		{"is not null ansi", queryir.Where("x", "<>", queryir.Null{}), "`x` IS NOT NULL"},
		{"explicit is", queryir.Where("x", "is", queryir.Null{}), "`x` IS NULL"},
		{"between", queryir.Where("x", "BETWEEN", queryir.NewList(queryir.Int(1), queryir.Int(5))), "`x` BETWEEN 1 AND 5"},
		{"not between", queryir.Where("x", "not between", queryir.NewList(queryir.Text("a"), queryir.Text("m"))), "`x` NOT BETWEEN 'a' AND 'm'"},
		{"op normalized", queryir.Where("name", "  like ", queryir.Text("a%")), "`name` LIKE 'a%'"},
		{"in", queryir.Where("id", "in", queryir.NewList(queryir.Int(1), queryir.Int(2))), "`id` IN (1, 2)"},
		{"column comparison", queryir.Where("a.x", ">", queryir.Ident("b.y")), "`a`.`x` > `b`.`y`"},
		{"function field", queryir.Condition{Field: queryir.CallOn("lower", "email"), Op: "=", Value: queryir.Text("a@b.c")}, "LOWER(`email`) = 'a@b.c'"},
	}
	c := mysql(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.CompileConditions([]queryir.Condition{tt.cond})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileConditions_Structural(t *testing.T) {
	tests := []struct {
		name  string
		conds []queryir.Condition
	}{
		{"unclosed", []queryir.Condition{queryir.Open(), queryir.Where("a", "=", queryir.Int(1))}},
		{"stray close", []queryir.Condition{queryir.Where("a", "=", queryir.Int(1)), queryir.Close()}},
		{"between one value", []queryir.Condition{queryir.Where("x", "BETWEEN", queryir.NewList(queryir.Int(1)))}},
		{"between scalar", []queryir.Condition{queryir.Where("x", "BETWEEN", queryir.Int(1))}},
		{"missing op", []queryir.Condition{{Field: queryir.Name("x"), Value: queryir.Int(1)}}},
		{"missing field", []queryir.Condition{{Op: "=", Value: queryir.Int(1)}}},
		{"bad connector", []queryir.Condition{
			queryir.Where("a", "=", queryir.Int(1)),
			{Connector: "XOR", Field: queryir.Name("b"), Op: "=", Value: queryir.Int(1)},
		}},
	}
	c := mysql(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CompileConditions(tt.conds)
			require.Error(t, err)
			assert.True(t, IsStructuralError(err), "got %v", err)
		})
	}
}
