package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
)

func TestRawQueryBuild(t *testing.T) {
	q := query.Raw(`SELECT * FROM user WHERE id = ?`, 5)
	sql, params, err := q.Build(dialect.SQLite{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM user WHERE id = ?`, sql)
	assert.Equal(t, []any{5}, params)
}
