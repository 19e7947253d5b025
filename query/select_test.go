package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
)

func TestSelectBasic(t *testing.T) {
	people := ast.NewTable("people")
	nameCol := ast.NewColumn(people, "name")
	ageCol := ast.NewColumn(people, "age")

	sel := query.NewSelect(nameCol, ageCol).
		From(people).
		Where(ast.NewExpression(ageCol, ast.OpGTE, 18)).
		OrderBy(ast.Desc(ageCol))

	sql, params, err := sel.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "t1"."name", "t1"."age" FROM "people" AS "t1" WHERE ("t1"."age" >= ?) ORDER BY "t1"."age" DESC`, sql)
	assert.Equal(t, []any{18}, params)
}

// TestSelectOrderByBareColumnOmitsDirection mirrors spec scenario 1: a
// plain column passed to OrderBy sorts ascending without an explicit
// ASC keyword; only ast.Asc/ast.Desc emit one.
func TestSelectOrderByBareColumnOmitsDirection(t *testing.T) {
	users := ast.NewTable("user")
	idCol := ast.NewColumn(users, "id")
	nameCol := ast.NewColumn(users, "name")

	sel := query.NewSelect(idCol, nameCol).
		From(users).
		Where(ast.NewExpression(nameCol, ast.OpEq, "ada")).
		OrderBy(idCol)

	sql, params, err := sel.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "t1"."id", "t1"."name" FROM "user" AS "t1" WHERE ("t1"."name" = ?) ORDER BY "t1"."id"`, sql)
	assert.Equal(t, []any{"ada"}, params)
}

func TestSelectInEmptyDegenerates(t *testing.T) {
	people := ast.NewTable("people")
	idCol := ast.NewColumn(people, "id")

	sel := query.NewSelect(idCol).
		From(people).
		Where(ast.NewExpression(idCol, ast.OpIn, ast.NewValues([]int{})))

	sql, params, err := sel.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (0 = 1)")
	assert.Empty(t, params)
}

func TestSelectNullComparisonUpgradesToIs(t *testing.T) {
	people := ast.NewTable("people")
	deletedAt := ast.NewColumn(people, "deleted_at")

	sel := query.NewSelect(ast.NewColumn(people, "id")).
		From(people).
		Where(ast.NewExpression(deletedAt, ast.OpEq, nil))

	sql, _, err := sel.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Contains(t, sql, `"t1"."deleted_at" IS ?`)
}

func TestSelectSubqueryInFromGetsOwnAlias(t *testing.T) {
	people := ast.NewTable("people")
	inner := query.NewSelect(ast.NewColumn(people, "id")).From(people)

	outer := query.NewSelect(ast.NewEntity("id")).From(inner)
	sql, _, err := outer.Build(&dialect.Postgres{})
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM (SELECT "t1"."id" FROM "people" AS "t1") AS "t2"`)
}

func TestSelectOffsetWithoutLimitUsesLimitMaxTrick(t *testing.T) {
	people := ast.NewTable("people")
	sel := query.NewSelect(ast.NewColumn(people, "id")).From(people).Offset(5)

	sql, params, err := sel.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT ? OFFSET ?")
	assert.Equal(t, []any{-1, 5}, params)
}

func TestSelectForUpdateUnsupportedDialectErrors(t *testing.T) {
	people := ast.NewTable("people")
	sel := query.NewSelect(ast.NewColumn(people, "id")).From(people).ForUpdate("")

	_, _, err := sel.Build(dialect.SQLite{})
	assert.ErrorIs(t, err, query.ErrForUpdateUnsupported)
}

func TestSelectWithCTE(t *testing.T) {
	people := ast.NewTable("people")
	base := query.NewSelect(ast.NewColumn(people, "id")).From(people)
	cte := ast.NewCTE("active_people", base)

	sel := query.NewSelect(ast.NewEntity("id")).With(cte).From(cte)
	sql, _, err := sel.Build(&dialect.Postgres{})
	require.NoError(t, err)
	assert.Contains(t, sql, `WITH "active_people" AS (SELECT "t1"."id" FROM "people" AS "t1")`)
	assert.Contains(t, sql, `FROM "active_people"`)
}
