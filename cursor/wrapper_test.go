package cursor_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/ha1tch/sqlkit/cursor"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE user (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO user (id, name, age) VALUES (1,'ada',36),(2,'bob',41),(3,'cid',19)`)
	require.NoError(t, err)
	return db
}

func queryUsers(t *testing.T, db *sql.DB) *sql.Rows {
	t.Helper()
	rows, err := db.Query(`SELECT t1.id, t1.name, t1.age FROM user t1 ORDER BY t1.id`)
	require.NoError(t, err)
	return rows
}

func TestWrapperTupleFillCache(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	w, err := cursor.NewWrapper(rows, cursor.Tuple)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "age"}, w.Columns())

	require.NoError(t, w.FillCache(2))
	n, err := w.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	row, err := w.At(1)
	require.NoError(t, err)
	tup := row.(cursor.TupleRow)
	assert.Equal(t, "bob", tup[1])
}

func TestWrapperDictRow(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	w, err := cursor.NewWrapper(rows, cursor.Dict)
	require.NoError(t, err)

	row, err := w.At(0)
	require.NoError(t, err)
	dict := row.(cursor.DictRow)
	assert.Equal(t, "ada", dict["name"])
	assert.EqualValues(t, 36, dict["age"])
}

func TestWrapperNamedRow(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	w, err := cursor.NewWrapper(rows, cursor.NamedTuple)
	require.NoError(t, err)

	row, err := w.At(2)
	require.NoError(t, err)
	named := row.(cursor.NamedRow)
	assert.Equal(t, "cid", named.Get("name"))
	assert.EqualValues(t, 19, named.At(2))
}

func TestWrapperConstructor(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	type person struct {
		Name string
		Age  int64
	}
	w, err := cursor.NewConstructorWrapper(rows, func(d cursor.DictRow) (any, error) {
		return &person{Name: d["name"].(string), Age: d["age"].(int64)}, nil
	})
	require.NoError(t, err)

	all, err := w.Slice(0, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ada", all[0].(*person).Name)
}

func TestWrapperIteratorIsSinglePass(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	w, err := cursor.NewWrapper(rows, cursor.Tuple)
	require.NoError(t, err)

	var names []string
	w.Iterator()(func(row any) bool {
		tup := row.(cursor.TupleRow)
		names = append(names, tup[1].(string))
		return true
	})
	require.NoError(t, w.Err())
	assert.Equal(t, []string{"ada", "bob", "cid"}, names)
}

func TestWrapperIteratorAfterCacheErrors(t *testing.T) {
	db := openMemDB(t)
	rows := queryUsers(t, db)

	w, err := cursor.NewWrapper(rows, cursor.Tuple)
	require.NoError(t, err)
	require.NoError(t, w.FillCache(1))

	w.Iterator()(func(row any) bool { return true })
	assert.ErrorIs(t, w.Err(), cursor.ErrCachingActive)
}
