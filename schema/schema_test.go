package schema_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/model"
	"github.com/ha1tch/sqlkit/schema"
)

func openMemDB(t *testing.T) *db.DB {
	t.Helper()
	database := db.New(adapter.NewSQLiteMemory(), dialect.SQLite{})
	require.NoError(t, database.Open(context.Background()))
	t.Cleanup(func() { database.Close() })
	return database
}

func TestCreateTableSQLIncludesColumnsAndForeignKey(t *testing.T) {
	author := model.Define("ct_author", model.Options{},
		model.Char("name", 100),
	)
	book := model.Define("ct_book", model.Options{},
		model.Char("title", 200).AsUnique(),
		model.ForeignKey("author", author, model.WithBackref("books")),
	)

	mgr := schema.NewManager(openMemDB(t))
	sqlText := mgr.CreateTableSQL(book, true)

	assert.True(t, strings.HasPrefix(sqlText, `CREATE TABLE IF NOT EXISTS "ct_book" (`))
	assert.Contains(t, sqlText, `"id"`)
	assert.Contains(t, sqlText, `"title"`)
	assert.Contains(t, sqlText, `PRIMARY KEY`)
	assert.Contains(t, sqlText, `FOREIGN KEY ("author") REFERENCES "ct_author" ("id")`)
}

func TestCreateTableAndIntrospection(t *testing.T) {
	author := model.Define("intro_author", model.Options{},
		model.Char("name", 100).AsUnique(),
	)
	database := openMemDB(t)
	mgr := schema.NewManager(database)
	sess := database.NewSession()
	ctx := context.Background()

	require.NoError(t, mgr.CreateTable(ctx, sess, author, false))
	require.NoError(t, mgr.CreateIndexes(ctx, sess, author, true))

	tables, err := mgr.Tables(ctx, sess)
	require.NoError(t, err)
	assert.Contains(t, tables, "intro_author")

	cols, err := mgr.Columns(ctx, sess, "intro_author")
	require.NoError(t, err)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.ElementsMatch(t, []string{"id", "name"}, names)

	pk, err := mgr.PrimaryKey(ctx, sess, "intro_author")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, pk)
}

func TestForeignKeysIntrospection(t *testing.T) {
	author := model.Define("fk_author", model.Options{},
		model.Char("name", 100),
	)
	book := model.Define("fk_book", model.Options{},
		model.Char("title", 200),
		model.ForeignKey("author", author, model.WithBackref("books")),
	)

	database := openMemDB(t)
	mgr := schema.NewManager(database)
	sess := database.NewSession()
	ctx := context.Background()

	require.NoError(t, mgr.CreateAll(ctx, sess, []*model.Metadata{book, author}, true))

	fks, err := mgr.ForeignKeys(ctx, sess, "fk_book")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "author", fks[0].Column)
	assert.Equal(t, "fk_author", fks[0].ReferencedTable)
	assert.Equal(t, "id", fks[0].ReferencedColumn)
}

func TestCreateIndexesSQLCoversUniqueIndexedAndExplicit(t *testing.T) {
	meta := model.Define("idx_widget", model.Options{
		Indexes: []model.IndexDecl{
			{Columns: []string{"sku", "region"}, Unique: true},
		},
	},
		model.Char("sku", 40).AsUnique(),
		model.Char("region", 40).AsIndexed(),
	)

	mgr := schema.NewManager(openMemDB(t))
	stmts := mgr.CreateIndexesSQL(meta, true)
	require.Len(t, stmts, 3)
	joined := strings.Join(stmts, "\n")
	assert.Contains(t, joined, "UNIQUE INDEX")
	assert.Contains(t, joined, `("sku")`)
	assert.Contains(t, joined, `("region")`)
	assert.Contains(t, joined, `("sku", "region")`)
}

func TestIndexNameTruncatesLongNames(t *testing.T) {
	short := schema.IndexName("widget", []string{"sku"})
	assert.Equal(t, "widget_sku", short)

	longTable := strings.Repeat("x", 80)
	long := schema.IndexName(longTable, []string{"a", "b"})
	assert.LessOrEqual(t, len(long), 64)
	assert.True(t, strings.HasPrefix(long, longTable[:10]))
}

func TestTopologicalOrderRespectsForeignKeys(t *testing.T) {
	author := model.Define("topo_author", model.Options{},
		model.Char("name", 100),
	)
	book := model.Define("topo_book", model.Options{},
		model.Char("title", 200),
		model.ForeignKey("author", author, model.WithBackref("books")),
	)

	ordered, err := schema.TopologicalOrder([]*model.Metadata{book, author})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Same(t, author, ordered[0])
	assert.Same(t, book, ordered[1])
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	a := model.Define("cycle_a", model.Options{},
		model.Char("name", 50),
	)
	b := model.Define("cycle_b", model.Options{DependsOn: []*model.Metadata{a}},
		model.Char("name", 50),
	)
	a.DependsOn = append(a.DependsOn, b)

	_, err := schema.TopologicalOrder([]*model.Metadata{a, b})
	assert.Error(t, err)
}

func TestCreateSequenceRequiresSupport(t *testing.T) {
	mgr := schema.NewManager(openMemDB(t))
	err := mgr.CreateSequence(context.Background(), nil, "whatever")
	assert.Error(t, err)
}
