package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
)

func TestCompoundSelectUnionPostgres(t *testing.T) {
	people := ast.NewTable("people")
	staff := ast.NewTable("staff")
	a := query.NewSelect(ast.NewColumn(people, "name")).From(people)
	b := query.NewSelect(ast.NewColumn(staff, "name")).From(staff)

	u := query.NewCompoundSelect(a, query.Union, b)
	sql, _, err := u.Build(&dialect.Postgres{})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "t1"."name" FROM "people" AS "t1" UNION SELECT "t2"."name" FROM "staff" AS "t2"`,
		sql)
}

func TestCompoundSelectMySQLParenthesizesEachArm(t *testing.T) {
	people := ast.NewTable("people")
	staff := ast.NewTable("staff")
	a := query.NewSelect(ast.NewColumn(people, "name")).From(people)
	b := query.NewSelect(ast.NewColumn(staff, "name")).From(staff)

	u := query.NewCompoundSelect(a, query.UnionAll, b)
	sql, _, err := u.Build(dialect.MySQL{})
	require.NoError(t, err)
	assert.Equal(t,
		"(SELECT `t1`.`name` FROM `people` AS `t1`) UNION ALL (SELECT `t2`.`name` FROM `staff` AS `t2`)",
		sql)
}

func TestCompoundSelectLeftAssociativeChain(t *testing.T) {
	people := ast.NewTable("people")
	staff := ast.NewTable("staff")
	contractors := ast.NewTable("contractors")
	a := query.NewSelect(ast.NewColumn(people, "name")).From(people)
	b := query.NewSelect(ast.NewColumn(staff, "name")).From(staff)
	c := query.NewSelect(ast.NewColumn(contractors, "name")).From(contractors)

	chain := query.NewCompoundSelect(query.NewCompoundSelect(a, query.Union, b), query.Union, c)
	sql, _, err := chain.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Contains(t, sql, `UNION SELECT "t3"."name" FROM "contractors" AS "t3"`)
}
