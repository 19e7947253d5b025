package adapter_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
)

func TestAdapterInterfaceSatisfaction(t *testing.T) {
	var _ adapter.Adapter = (*adapter.SQLiteAdapter)(nil)
	var _ adapter.Adapter = (*adapter.PostgresAdapter)(nil)
	var _ adapter.Adapter = (*adapter.MySQLAdapter)(nil)
}

func TestConfigDefaults(t *testing.T) {
	config := adapter.DefaultConfig()

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 5432, config.Port)
	assert.Equal(t, 25, config.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, config.ConnMaxLifetime)
}

func TestSQLiteAdapterLifecycle(t *testing.T) {
	ctx := context.Background()
	a := adapter.NewSQLiteMemory()
	require.NoError(t, a.Open(ctx))
	defer a.Close()

	require.NoError(t, a.Ping(ctx))
	assert.Equal(t, "sqlite", a.DialectName())
	assert.Equal(t, "sqlite", a.DriverName())
	require.NoError(t, a.HealthCheck(ctx))

	_, err := a.Exec(ctx, `CREATE TABLE note (id INTEGER PRIMARY KEY, body TEXT NOT NULL)`)
	require.NoError(t, err)

	exists, err := a.TableExists(ctx, "note")
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := a.TableExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, missing)

	cols, err := a.GetTableColumns(ctx, "note")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "body", cols[1].Name)
	assert.False(t, cols[1].IsNullable)
}

func TestSQLiteAdapterLastInsertID(t *testing.T) {
	ctx := context.Background()
	a := adapter.NewSQLiteMemory()
	require.NoError(t, a.Open(ctx))
	defer a.Close()

	_, err := a.Exec(ctx, `CREATE TABLE note (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	_, err = a.Exec(ctx, `INSERT INTO note (body) VALUES ('hello')`)
	require.NoError(t, err)

	id, err := a.LastInsertID(ctx, "note", "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestPostgresAdapterAgainstLiveServer(t *testing.T) {
	if os.Getenv("TEST_POSTGRES") == "" {
		t.Skip("set TEST_POSTGRES=1 to run against a live postgres instance")
	}

	ctx := context.Background()
	a := adapter.NewPostgresAdapter(adapter.Config{
		Host:     "localhost",
		Port:     5432,
		Database: "sqlkit_test",
		Username: "sqlkit",
		Password: "sqlkit_test",
		SSLMode:  "disable",
	})
	require.NoError(t, a.Open(ctx))
	defer a.Close()

	require.NoError(t, a.Ping(ctx))
	assert.Equal(t, "postgres", a.DialectName())
	require.NoError(t, a.HealthCheck(ctx))
}

func TestMySQLAdapterAgainstLiveServer(t *testing.T) {
	if os.Getenv("TEST_MYSQL") == "" {
		t.Skip("set TEST_MYSQL=1 to run against a live mysql instance")
	}

	ctx := context.Background()
	a := adapter.NewMySQLAdapter(adapter.Config{
		Host:     "localhost",
		Port:     3306,
		Database: "sqlkit_test",
		Username: "sqlkit",
		Password: "sqlkit_test",
	})
	require.NoError(t, a.Open(ctx))
	defer a.Close()

	require.NoError(t, a.Ping(ctx))
	assert.Equal(t, "mysql", a.DialectName())
	require.NoError(t, a.HealthCheck(ctx))
}
