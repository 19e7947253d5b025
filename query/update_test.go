package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
)

func TestUpdateBasic(t *testing.T) {
	users := ast.NewTable("user")
	upd := query.UpdateTable(users).
		Set("name", "bob").
		Where(ast.NewExpression(ast.NewEntity("id"), ast.OpEq, 1))

	sql, params, err := upd.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "user" SET "name" = ? WHERE ("id" = ?)`, sql)
	assert.Equal(t, []any{"bob", 1}, params)
}

func TestUpdateMultipleSetColumns(t *testing.T) {
	users := ast.NewTable("user")
	upd := query.UpdateTable(users).Set("name", "bob").Set("age", 30)

	sql, params, err := upd.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "user" SET "name" = ?, "age" = ?`, sql)
	assert.Equal(t, []any{"bob", 30}, params)
}

func TestUpdateReturningUnsupportedErrors(t *testing.T) {
	users := ast.NewTable("user")
	upd := query.UpdateTable(users).Set("name", "bob").Returning(ast.NewEntity("id"))

	_, _, err := upd.Build(dialect.MySQL{})
	assert.ErrorIs(t, err, query.ErrReturningUnsupported)
}
