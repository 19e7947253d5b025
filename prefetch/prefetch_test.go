package prefetch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/model"
	"github.com/ha1tch/sqlkit/prefetch"
)

// setupShelf builds a three-level author -> book -> review schema, the
// minimum depth that exercises prefetch.Run's multi-hop chain
// resolution and its leaf-to-root attach ordering.
func setupShelf(t *testing.T) (author, book, review *model.Metadata, sess *db.Session) {
	t.Helper()

	author = model.Define("author", model.Options{},
		model.Char("name", 100),
	)
	book = model.Define("book", model.Options{},
		model.Char("title", 200),
		model.ForeignKey("author", author, model.WithBackref("books")),
	)
	review = model.Define("review", model.Options{},
		model.Char("body", 500),
		model.ForeignKey("book", book, model.WithBackref("reviews")),
	)

	database := db.New(adapter.NewSQLiteMemory(), dialect.SQLite{})
	ctx := context.Background()
	require.NoError(t, database.Open(ctx))
	t.Cleanup(func() { database.Close() })
	sess = database.NewSession()

	_, err := sess.Exec(ctx, `CREATE TABLE author (id INTEGER PRIMARY KEY, name TEXT)`, nil)
	require.NoError(t, err)
	_, err = sess.Exec(ctx, `CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, author INTEGER)`, nil)
	require.NoError(t, err)
	_, err = sess.Exec(ctx, `CREATE TABLE review (id INTEGER PRIMARY KEY, body TEXT, book INTEGER)`, nil)
	require.NoError(t, err)

	return author, book, review, sess
}

func TestRunAttachesForwardRelation(t *testing.T) {
	author, book, _, sess := setupShelf(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "katherine"})
	require.NoError(t, a.Save(ctx, sess))
	b1 := model.New(book, map[string]any{"title": "hidden figures", "author": a.Get("id")})
	require.NoError(t, b1.Save(ctx, sess))
	b2 := model.New(book, map[string]any{"title": "hidden figures, again", "author": a.Get("id")})
	require.NoError(t, b2.Save(ctx, sess))

	rows, err := prefetch.Run(ctx, sess, model.SelectFrom(author), model.SelectFrom(book))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	books, ok := rows[0].Get("books").([]*model.Instance)
	require.True(t, ok)
	require.Len(t, books, 2)
	titles := []string{books[0].Get("title").(string), books[1].Get("title").(string)}
	assert.ElementsMatch(t, []string{"hidden figures", "hidden figures, again"}, titles)
}

func TestRunAttachesBackwardRelation(t *testing.T) {
	author, book, _, sess := setupShelf(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "ada"})
	require.NoError(t, a.Save(ctx, sess))
	b := model.New(book, map[string]any{"title": "notes", "author": a.Get("id")})
	require.NoError(t, b.Save(ctx, sess))

	rows, err := prefetch.Run(ctx, sess, model.SelectFrom(book), model.SelectFrom(author))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	owner, ok := rows[0].Get("author").(*model.Instance)
	require.True(t, ok)
	assert.Equal(t, "ada", owner.Get("name"))
}

func TestRunMultiHopChainAttachesLeafToRoot(t *testing.T) {
	author, book, review, sess := setupShelf(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "marie"})
	require.NoError(t, a.Save(ctx, sess))
	b := model.New(book, map[string]any{"title": "radioactivity", "author": a.Get("id")})
	require.NoError(t, b.Save(ctx, sess))
	r1 := model.New(review, map[string]any{"body": "brilliant", "book": b.Get("id")})
	require.NoError(t, r1.Save(ctx, sess))
	r2 := model.New(review, map[string]any{"body": "groundbreaking", "book": b.Get("id")})
	require.NoError(t, r2.Save(ctx, sess))

	rows, err := prefetch.Run(ctx, sess,
		model.SelectFrom(author),
		model.SelectFrom(book),
		model.SelectFrom(review),
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	books, ok := rows[0].Get("books").([]*model.Instance)
	require.True(t, ok)
	require.Len(t, books, 1)

	reviews, ok := books[0].Get("reviews").([]*model.Instance)
	require.True(t, ok)
	require.Len(t, reviews, 2)
	bodies := []string{reviews[0].Get("body").(string), reviews[1].Get("body").(string)}
	assert.ElementsMatch(t, []string{"brilliant", "groundbreaking"}, bodies)
}

func TestRunWithNoMatchingRowsLeavesAttributeUnset(t *testing.T) {
	author, book, _, sess := setupShelf(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "rosalind"})
	require.NoError(t, a.Save(ctx, sess))

	rows, err := prefetch.Run(ctx, sess, model.SelectFrom(author), model.SelectFrom(book))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Get("books"))
}

func TestRunUnrelatedSubqueryReturnsError(t *testing.T) {
	author, _, review, sess := setupShelf(t)
	ctx := context.Background()

	a := model.New(author, map[string]any{"name": "hypatia"})
	require.NoError(t, a.Save(ctx, sess))

	_, err := prefetch.Run(ctx, sess, model.SelectFrom(author), model.SelectFrom(review))
	assert.Error(t, err)
}
