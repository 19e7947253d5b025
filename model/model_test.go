package model_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dberrors"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/model"
)

// setupLibrary builds an Author/Book schema directly (not through
// package schema, to keep this package's tests independent of it) and
// returns their Metadata plus a ready Session.
func setupLibrary(t *testing.T) (*model.Metadata, *model.Metadata, *db.Session) {
	t.Helper()

	author := model.Define("author", model.Options{},
		model.Char("name", 100),
	)
	book := model.Define("book", model.Options{},
		model.Char("title", 200),
		model.ForeignKey("author", author, model.WithBackref("books")),
	)

	database := db.New(adapter.NewSQLiteMemory(), dialect.SQLite{})
	ctx := context.Background()
	require.NoError(t, database.Open(ctx))
	t.Cleanup(func() { database.Close() })
	sess := database.NewSession()

	_, err := sess.Exec(ctx, `CREATE TABLE author (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	require.NoError(t, err)
	_, err = sess.Exec(ctx, `CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, author INTEGER)`, nil)
	require.NoError(t, err)

	return author, book, sess
}

func TestDefineAutoAddsIDPrimaryKey(t *testing.T) {
	author, _, _ := setupLibrary(t)
	pk := author.PrimaryKeyField()
	require.NotNil(t, pk)
	assert.Equal(t, "id", pk.Name())
	assert.True(t, pk.IsPrimaryKey())
	assert.Same(t, pk, author.Fields()[0])
}

func TestDefineWiresForeignKeyBothDirections(t *testing.T) {
	author, book, _ := setupLibrary(t)
	fks := book.ForeignKeysTo(author)
	require.Len(t, fks, 1)
	assert.Equal(t, "author", fks[0].Name())

	backs := author.BackreferencesFrom(book)
	require.Len(t, backs, 1)
	assert.Same(t, fks[0], backs[0])
	assert.Equal(t, "books", fks[0].BackrefName())
}

func TestInstanceSaveInsertsThenUpdates(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	inst := model.New(author, map[string]any{"name": "ada"})
	require.NoError(t, inst.Save(ctx, sess))
	assert.NotNil(t, inst.Get("id"))
	assert.False(t, inst.IsDirty("name"))

	firstID := inst.PrimaryKeyValue()
	inst.Set("name", "ada lovelace")
	require.NoError(t, inst.Save(ctx, sess))
	assert.Equal(t, firstID, inst.PrimaryKeyValue())

	fetched, err := model.Get(ctx, sess, author, author.Field("name").Eq("ada lovelace"))
	require.NoError(t, err)
	assert.Equal(t, firstID, fetched.PrimaryKeyValue())
}

func TestGetFetchesInsertedRow(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	inst := model.New(author, map[string]any{"name": "grace"})
	require.NoError(t, inst.Save(ctx, sess))

	fetched, err := model.Get(ctx, sess, author, author.Field("name").Eq("grace"))
	require.NoError(t, err)
	assert.Equal(t, "grace", fetched.Get("name"))
}

func TestGetMissingRowReturnsDoesNotExist(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	_, err := model.Get(ctx, sess, author, author.Field("name").Eq("nobody"))
	require.Error(t, err)
	assert.True(t, dberrors.IsDoesNotExist(err, "author"))
}

func TestGetOrNoneReturnsNilWithoutError(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	inst, err := model.GetOrNone(ctx, sess, author, author.Field("name").Eq("nobody"))
	require.NoError(t, err)
	assert.Nil(t, inst)
}

func TestGetOrCreateCreatesOnce(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	inst, created, err := model.GetOrCreate(ctx, sess, author, map[string]any{"name": "hedy"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created2, err := model.GetOrCreate(ctx, sess, author, map[string]any{"name": "hedy"})
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, inst.Get("id"), again.Get("id"))
}

func TestInstanceDeleteRemovesRow(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	inst := model.New(author, map[string]any{"name": "margaret"})
	require.NoError(t, inst.Save(ctx, sess))
	require.NoError(t, inst.Delete(ctx, sess))

	_, err := model.Get(ctx, sess, author, author.Field("name").Eq("margaret"))
	assert.True(t, dberrors.IsDoesNotExist(err, "author"))
}

func TestSelectFromJoinMaterializesBothSides(t *testing.T) {
	author, book, sess := setupLibrary(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "katherine"})
	require.NoError(t, a.Save(ctx, sess))
	b := model.New(book, map[string]any{"title": "hidden figures", "author": a.Get("id")})
	require.NoError(t, b.Save(ctx, sess))

	rows, err := model.SelectFrom(book).Join(book.Field("author")).Find(ctx, sess)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hidden figures", rows[0].Get("title"))

	joined := rows[0].Get("author")
	require.NotNil(t, joined)
	assert.Equal(t, "katherine", joined.(*model.Instance).Get("name"))
}

func TestSelectFromJoinOuterMissDropsInstance(t *testing.T) {
	author, book, sess := setupLibrary(t)
	ctx := context.Background()

	b := model.New(book, map[string]any{"title": "orphan"})
	require.NoError(t, b.Save(ctx, sess))

	rows, err := model.SelectFrom(book).Join(book.Field("author")).Find(ctx, sess)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Get("author"))
	_ = author
}

func TestModelSelectCount(t *testing.T) {
	author, _, sess := setupLibrary(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		inst := model.New(author, map[string]any{"name": name})
		require.NoError(t, inst.Save(ctx, sess))
	}

	n, err := model.SelectFrom(author).Count(ctx, sess)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestJoinModelResolvesSingleForeignKey(t *testing.T) {
	_, book, _ := setupLibrary(t)

	ms, err := model.SelectFrom(book).JoinModel(book.Field("author").RelModel())
	require.NoError(t, err)
	assert.NotNil(t, ms)
}
