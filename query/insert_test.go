package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
	"github.com/ha1tch/sqlkit/render"
)

// TestInsertReturningPostgres mirrors spec scenario 2.
func TestInsertReturningPostgres(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).
		Columns("name").
		Values("ada").
		Returning(ast.NewEntity("user", "id"))

	sql, params, err := ins.Build(&dialect.Postgres{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "user" ("name") VALUES ($1) RETURNING "user"."id"`, sql)
	assert.Equal(t, []any{"ada"}, params)
}

func TestInsertMultiRow(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).Columns("name").Values("ada").Values("bob")

	sql, params, err := ins.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "user" ("name") VALUES (?), (?)`, sql)
	assert.Equal(t, []any{"ada", "bob"}, params)
}

func TestInsertDefaultValues(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).Values()

	sql, _, err := ins.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "user" DEFAULT VALUES`, sql)
}

func TestInsertReturningUnsupportedErrors(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).Columns("name").Values("ada").Returning(ast.NewColumn(users, "id"))

	_, _, err := ins.Build(dialect.MySQL{})
	assert.ErrorIs(t, err, query.ErrReturningUnsupported)
}

func TestInsertOnConflictSQLiteIgnore(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).Columns("name").Values("ada").
		OnConflict(&dialect.OnConflict{Action: dialect.ConflictIgnore})

	sql, _, err := ins.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT OR IGNORE INTO "user" ("name") VALUES (?)`, sql)
}

func TestInsertOnConflictPostgresUpdate(t *testing.T) {
	users := ast.NewTable("user")
	ins := query.InsertInto(users).Columns("email", "name").Values("a@example.com", "ada").
		OnConflict(&dialect.OnConflict{
			Action: dialect.ConflictUpdateAction,
			Target: []string{"email"},
			Update: map[string]render.Node{"name": ast.NewValue("ada2")},
		})

	sql, _, err := ins.Build(&dialect.Postgres{})
	require.NoError(t, err)
	assert.Contains(t, sql, `ON CONFLICT ("email") DO UPDATE SET "name" = $3`)
}

func TestInsertFromQuery(t *testing.T) {
	users := ast.NewTable("user")
	archive := ast.NewTable("user_archive")
	sub := query.NewSelect(ast.NewColumn(archive, "name")).From(archive)

	ins := query.InsertInto(users).Columns("name").FromQuery(sub)
	sql, _, err := ins.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "user" ("name") (SELECT "t1"."name" FROM "user_archive" AS "t1")`, sql)
}
