package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/cursor"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dialect"
)

func openMemDB(t *testing.T) *db.DB {
	t.Helper()
	database := db.New(adapter.NewSQLiteMemory(), dialect.SQLite{})
	require.NoError(t, database.Open(context.Background()))
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpenIsIdempotent(t *testing.T) {
	database := openMemDB(t)
	require.NoError(t, database.Open(context.Background()))
}

func TestSessionExecAndQuery(t *testing.T) {
	database := openMemDB(t)
	sess := database.NewSession()
	ctx := context.Background()

	_, err := sess.Exec(ctx, `CREATE TABLE widget (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	require.NoError(t, err)

	_, err = sess.Exec(ctx, `INSERT INTO widget (id, name) VALUES (?, ?)`, []any{1, "cog"})
	require.NoError(t, err)

	wrapper, err := sess.Query(ctx, `SELECT id, name FROM widget`, nil, cursor.Dict)
	require.NoError(t, err)
	defer wrapper.Close()

	require.NoError(t, wrapper.FillCache(0))
	n, err := wrapper.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)

	row, err := wrapper.At(0)
	require.NoError(t, err)
	dict := row.(cursor.DictRow)
	assert.Equal(t, "cog", dict["name"])
}

func TestWithConnectionRunsAgainstFreshSession(t *testing.T) {
	database := db.New(adapter.NewSQLiteMemory(), dialect.SQLite{})
	ctx := context.Background()

	var seenDB *db.DB
	err := database.WithConnection(ctx, func(ctx context.Context, sess *db.Session) error {
		seenDB = sess.DB()
		_, err := sess.Exec(ctx, `CREATE TABLE t (id INTEGER)`, nil)
		return err
	})
	require.NoError(t, err)
	assert.Same(t, database, seenDB)
	database.Close()
}

func TestQueryRowScansSingleValue(t *testing.T) {
	database := openMemDB(t)
	sess := database.NewSession()
	ctx := context.Background()

	row := sess.QueryRow(ctx, `SELECT 1 + 1`, nil)
	var n int
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 2, n)
}
