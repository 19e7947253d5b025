// Package db wires an adapter connection and a dialect together into
// the connection/transaction orchestration layer of spec.md §5: a
// mutex-guarded DB owning the real connection, and an explicit
// per-goroutine Session carrying that goroutine's own transaction
// stack, since Go has no goroutine-local storage to hang it on
// implicitly the way the original's per-thread state does.
package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/cursor"
	"github.com/ha1tch/sqlkit/dberrors"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/txn"
)

// DB owns one adapter connection and the dialect it renders SQL
// under. Connect/close are serialized by mu; everything else is
// read-only once Open succeeds.
type DB struct {
	mu      sync.Mutex
	adapter adapter.Adapter
	dialect dialect.Dialect
	logger  *slog.Logger
	open    bool
}

// New wires an adapter and the dialect matching it. Callers are
// responsible for passing a dialect consistent with the adapter (e.g.
// dialect.SQLite{} with adapter.NewSQLiteAdapter).
func New(a adapter.Adapter, d dialect.Dialect) *DB {
	return &DB{adapter: a, dialect: d}
}

// WithLogger attaches a structured logger; every rendered statement
// is then logged at Debug with its sql and params.
func (db *DB) WithLogger(l *slog.Logger) *DB {
	db.logger = l
	return db
}

// Dialect returns the dialect this DB renders queries under.
func (db *DB) Dialect() dialect.Dialect { return db.dialect }

// Adapter returns the underlying driver adapter.
func (db *DB) Adapter() adapter.Adapter { return db.adapter }

// Open establishes the connection. Calling Open on an already-open DB
// is a no-op.
func (db *DB) Open(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.open {
		return nil
	}
	if err := db.adapter.Open(ctx); err != nil {
		return dberrors.New(dberrors.OperationalError, "open connection", err)
	}
	db.open = true
	return nil
}

// Close releases the connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.open {
		return nil
	}
	db.open = false
	return db.adapter.Close()
}

func (db *DB) logSQL(sqlText string, params []any) {
	if db.logger != nil {
		db.logger.Debug("sql", "sql", sqlText, "params", params)
	}
}

// Session is the caller's explicit handle on one goroutine's
// execution context: its own transaction/savepoint frame stack. A
// Session must not be shared across goroutines; create one per
// goroutine via NewSession or WithConnection.
type Session struct {
	db  *DB
	Txn *txn.Manager
}

// NewSession opens a fresh Session over db, with an empty frame
// stack.
func (db *DB) NewSession() *Session {
	return &Session{db: db, Txn: txn.NewManager(db.adapter)}
}

// DB returns the Session's owning DB.
func (s *Session) DB() *DB { return s.db }

// WithConnection opens db if needed, creates a Session scoped to fn,
// runs fn, and closes db when fn returns — a connection context per
// spec.md §5 that does not itself imply a transaction.
func (db *DB) WithConnection(ctx context.Context, fn func(ctx context.Context, sess *Session) error) error {
	if err := db.Open(ctx); err != nil {
		return err
	}
	defer db.Close()
	sess := db.NewSession()
	return fn(ctx, sess)
}

// Exec runs sqlText/params against whichever execution context the
// Session's transaction manager currently has open.
func (s *Session) Exec(ctx context.Context, sqlText string, params []any) (sql.Result, error) {
	s.db.logSQL(sqlText, params)
	res, err := s.db.adapter.Exec(ctx, sqlText, params...)
	if err != nil {
		return nil, dberrors.Translate(s.db.adapter.DriverName(), err)
	}
	return res, nil
}

// Query runs sqlText/params and wraps the result set as rowType.
func (s *Session) Query(ctx context.Context, sqlText string, params []any, rowType cursor.RowType) (*cursor.Wrapper, error) {
	s.db.logSQL(sqlText, params)
	rows, err := s.db.adapter.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, dberrors.Translate(s.db.adapter.DriverName(), err)
	}
	return cursor.NewWrapper(rows, rowType)
}

// QueryModel runs sqlText/params, materializing rows through m.
func (s *Session) QueryModel(ctx context.Context, sqlText string, params []any, m cursor.RowMaterializer) (*cursor.Wrapper, error) {
	s.db.logSQL(sqlText, params)
	rows, err := s.db.adapter.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, dberrors.Translate(s.db.adapter.DriverName(), err)
	}
	return cursor.NewModelWrapper(rows, m)
}

// QueryRow runs sqlText/params and returns a single *sql.Row, for
// callers (LastInsertID fallbacks, existence checks) that don't need
// a full Wrapper.
func (s *Session) QueryRow(ctx context.Context, sqlText string, params []any) *sql.Row {
	s.db.logSQL(sqlText, params)
	return s.db.adapter.QueryRow(ctx, sqlText, params...)
}
