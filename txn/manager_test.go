package txn_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/sqlkit/adapter"
	"github.com/ha1tch/sqlkit/txn"
)

// fakeTx and fakeAdapter satisfy adapter.Tx/adapter.Adapter with just
// enough behavior to exercise the frame stack: they record every
// statement they're asked to execute so tests can assert SQL order.
type fakeTx struct {
	a          *fakeAdapter
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}
func (tx *fakeTx) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (tx *fakeTx) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	tx.a.log = append(tx.a.log, query)
	return nil, nil
}
func (tx *fakeTx) Commit() error {
	tx.committed = true
	tx.a.log = append(tx.a.log, "COMMIT")
	return nil
}
func (tx *fakeTx) Rollback() error {
	tx.rolledBack = true
	tx.a.log = append(tx.a.log, "ROLLBACK")
	return nil
}

type fakeAdapter struct {
	log []string
}

func (a *fakeAdapter) Open(ctx context.Context) error  { return nil }
func (a *fakeAdapter) Close() error                    { return nil }
func (a *fakeAdapter) Ping(ctx context.Context) error  { return nil }
func (a *fakeAdapter) DialectName() string             { return "fake" }
func (a *fakeAdapter) DriverName() string              { return "fake" }
func (a *fakeAdapter) HealthCheck(ctx context.Context) error { return nil }
func (a *fakeAdapter) LastInsertID(ctx context.Context, table, idColumn string) (int64, error) {
	return 0, nil
}
func (a *fakeAdapter) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}
func (a *fakeAdapter) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}
func (a *fakeAdapter) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	a.log = append(a.log, query)
	return nil, nil
}
func (a *fakeAdapter) Begin(ctx context.Context) (adapter.Tx, error) {
	a.log = append(a.log, "BEGIN")
	return &fakeTx{a: a}, nil
}
func (a *fakeAdapter) BeginTx(ctx context.Context, opts *sql.TxOptions) (adapter.Tx, error) {
	return a.Begin(ctx)
}

var _ adapter.Adapter = (*fakeAdapter)(nil)
var _ adapter.Tx = (*fakeTx)(nil)

func TestAtomicOnEmptyStackBeginsTransaction(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)

	err := m.Atomic(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"BEGIN", "COMMIT"}, a.log)
	assert.Equal(t, 0, m.Depth())
}

func TestAtomicNestedUsesSavepoint(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)

	err := m.Atomic(context.Background(), func(ctx context.Context) error {
		return m.Atomic(ctx, func(ctx context.Context) error { return nil })
	})
	require.NoError(t, err)
	require.Len(t, a.log, 4)
	assert.Equal(t, "BEGIN", a.log[0])
	assert.Contains(t, a.log[1], "SAVEPOINT s")
	assert.Contains(t, a.log[2], "RELEASE SAVEPOINT s")
	assert.Equal(t, "COMMIT", a.log[3])
}

func TestNestedAtomicRollbackOnInnerError(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)
	boom := errors.New("boom")

	err := m.Atomic(context.Background(), func(ctx context.Context) error {
		if err := m.Atomic(ctx, func(ctx context.Context) error {
			return boom
		}); err != nil {
			return err
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Len(t, a.log, 4)
	assert.Contains(t, a.log[1], "SAVEPOINT s")
	assert.Contains(t, a.log[2], "ROLLBACK TO SAVEPOINT s")
	assert.Equal(t, "ROLLBACK", a.log[3])
}

func TestSavepointWithoutOpenTransactionErrors(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)
	err := m.Savepoint(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, txn.ErrNoOpenTransaction)
}

func TestManualDisallowedInsideTransaction(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)

	err := m.Atomic(context.Background(), func(ctx context.Context) error {
		_, merr := m.Manual()
		return merr
	})
	assert.ErrorIs(t, err, txn.ErrManualNotAllowed)
}

func TestManualBeginCommitRoundTrip(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)

	frame, err := m.Manual()
	require.NoError(t, err)
	require.NoError(t, m.Begin(context.Background()))
	require.NoError(t, m.Commit(context.Background()))
	require.NoError(t, m.ExitManual(frame))
	assert.Equal(t, 0, m.Depth())
	assert.Equal(t, []string{"BEGIN", "COMMIT"}, a.log)
}

func TestManualBeginRollback(t *testing.T) {
	a := &fakeAdapter{}
	m := txn.NewManager(a)

	frame, err := m.Manual()
	require.NoError(t, err)
	require.NoError(t, m.Begin(context.Background()))
	require.NoError(t, m.Rollback(context.Background()))
	require.NoError(t, m.ExitManual(frame))
	assert.Equal(t, []string{"BEGIN", "ROLLBACK"}, a.log)
}
