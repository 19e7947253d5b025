package adapter

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLiteAdapter implements Adapter over modernc.org/sqlite, a
// cgo-free pure-Go driver.
type SQLiteAdapter struct {
	BaseAdapter
}

// NewSQLiteAdapter creates a SQLite adapter from config. Set
// config.InMemory for an ephemeral database, or config.FilePath for a
// file-backed one.
func NewSQLiteAdapter(config Config) *SQLiteAdapter {
	return &SQLiteAdapter{
		BaseAdapter: BaseAdapter{config: config},
	}
}

// NewSQLiteMemory is a convenience constructor for an in-memory
// database, most useful in tests.
func NewSQLiteMemory() *SQLiteAdapter {
	return NewSQLiteAdapter(Config{InMemory: true})
}

func (a *SQLiteAdapter) dsn() string {
	if a.config.InMemory || a.config.FilePath == "" {
		return ":memory:"
	}
	return a.config.FilePath
}

// Open establishes the connection. In-memory databases get a single
// connection pinned (SQLite's :memory: is per-connection, so pooling
// would silently start fresh, empty databases under concurrent use).
func (a *SQLiteAdapter) Open(ctx context.Context) error {
	db, err := sql.Open("sqlite", a.dsn())
	if err != nil {
		return err
	}
	a.db = db
	if a.config.InMemory {
		a.db.SetMaxOpenConns(1)
	} else {
		a.configurePool()
	}
	if _, err := a.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		a.db.Close()
		return err
	}
	return a.db.PingContext(ctx)
}

func (a *SQLiteAdapter) DialectName() string { return "sqlite" }
func (a *SQLiteAdapter) DriverName() string  { return "sqlite" }

// LastInsertID ignores table and idColumn: SQLite tracks the most
// recent rowid per-connection via last_insert_rowid().
func (a *SQLiteAdapter) LastInsertID(ctx context.Context, table, idColumn string) (int64, error) {
	var id int64
	err := a.db.QueryRowContext(ctx, "SELECT last_insert_rowid()").Scan(&id)
	return id, err
}

// TableExists reports whether table exists in sqlite_master.
func (a *SQLiteAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := a.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetTableColumns returns column metadata for table via PRAGMA
// table_info (SQLite has no information_schema).
func (a *SQLiteAdapter) GetTableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := a.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, ColumnInfo{Name: name, DataType: ctype, IsNullable: notNull == 0})
	}
	return cols, rows.Err()
}

// quoteIdent wraps an identifier in double quotes for use inside a
// PRAGMA statement, which does not accept bound parameters.
func quoteIdent(ident string) string {
	return `"` + ident + `"`
}

var _ Adapter = (*SQLiteAdapter)(nil)
