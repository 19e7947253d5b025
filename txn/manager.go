package txn

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ha1tch/sqlkit/adapter"
)

// Manager owns the frame stack for one connection. It is not safe for
// concurrent use by multiple goroutines sharing the same connection;
// callers needing per-goroutine isolation create one Manager per
// db.Session, per spec.md §5.
type Manager struct {
	mu     sync.Mutex
	a      adapter.Adapter
	frames []*Frame
	tx     adapter.Tx // the single real *sql.Tx backing the whole stack, if any
}

// NewManager returns a Manager with an empty stack over a.
func NewManager(a adapter.Adapter) *Manager {
	return &Manager{a: a}
}

// Depth returns the number of open frames.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func (m *Manager) top() *Frame {
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

func (m *Manager) push(f *Frame) {
	m.frames = append(m.frames, f)
}

// pop removes the top frame, returning ErrStackCorrupted if it isn't
// exactly the frame the caller expects to be popping.
func (m *Manager) pop(expect *Frame) error {
	if len(m.frames) == 0 || m.frames[len(m.frames)-1] != expect {
		return ErrStackCorrupted
	}
	m.frames = m.frames[:len(m.frames)-1]
	return nil
}

// exec runs SQL against whichever execution context is currently
// active: the shared *sql.Tx if one is open, otherwise the bare
// connection.
func (m *Manager) exec(ctx context.Context, query string) error {
	if m.tx != nil {
		_, err := m.tx.Exec(ctx, query)
		return err
	}
	_, err := m.a.Exec(ctx, query)
	return err
}

// Atomic chooses Transaction if the stack is empty, Savepoint
// otherwise, per spec.md §4.6.
func (m *Manager) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	empty := len(m.frames) == 0
	m.mu.Unlock()
	if empty {
		return m.Transaction(ctx, nil, fn)
	}
	return m.Savepoint(ctx, fn)
}

// Transaction begins the outermost frame with BEGIN, running fn, then
// committing on normal return or rolling back on error/panic. opts may
// be nil for default isolation.
func (m *Manager) Transaction(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	m.mu.Lock()
	tx, err := m.a.BeginTx(ctx, opts)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	frame := &Frame{Kind: Transaction}
	m.tx = tx
	m.push(frame)
	m.mu.Unlock()

	defer func() {
		panicked := recover()

		m.mu.Lock()
		popErr := m.pop(frame)
		m.tx = nil
		m.mu.Unlock()
		if popErr != nil {
			err = popErr
		}

		if panicked != nil {
			tx.Rollback()
			panic(panicked)
		}
		if popErr != nil {
			return
		}
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	if fn != nil {
		err = fn(ctx)
	}
	return err
}

// Savepoint pushes a nested savepoint frame onto an already-open
// transaction, naming it with a uuid per spec.md §4.6.
func (m *Manager) Savepoint(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	m.mu.Lock()
	if m.tx == nil {
		m.mu.Unlock()
		return ErrNoOpenTransaction
	}
	name := "s" + strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := m.exec(ctx, "SAVEPOINT "+name); err != nil {
		m.mu.Unlock()
		return err
	}
	frame := &Frame{Kind: Savepoint, Name: name}
	m.push(frame)
	m.mu.Unlock()

	defer func() {
		panicked := recover()

		m.mu.Lock()
		popErr := m.pop(frame)
		m.mu.Unlock()
		if popErr != nil {
			err = popErr
		}

		if panicked != nil {
			m.exec(ctx, "ROLLBACK TO SAVEPOINT "+name)
			panic(panicked)
		}
		if popErr != nil {
			return
		}
		if err != nil {
			m.exec(ctx, "ROLLBACK TO SAVEPOINT "+name)
			return
		}
		err = m.exec(ctx, "RELEASE SAVEPOINT "+name)
	}()

	if fn != nil {
		err = fn(ctx)
	}
	return err
}

// Manual enters manual mode: automatic commit is disabled and the
// caller drives Begin/Commit/Rollback explicitly. It is an error to
// enter manual mode while a transaction or savepoint is already open.
func (m *Manager) Manual() (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if top := m.top(); top != nil && (top.Kind == Transaction || top.Kind == Savepoint) {
		return nil, ErrManualNotAllowed
	}
	frame := &Frame{Kind: Manual}
	m.push(frame)
	return frame, nil
}

// ExitManual pops the manual frame pushed by Manual.
func (m *Manager) ExitManual(frame *Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pop(frame)
}

// Begin starts an explicit transaction while in manual mode.
func (m *Manager) Begin(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.a.Begin(ctx)
	if err != nil {
		return err
	}
	m.tx = tx
	m.push(&Frame{Kind: Transaction})
	return nil
}

// Commit commits the current transaction frame and pops it. Used from
// manual mode (after Begin) to close out an explicit transaction; the
// caller issues another Begin to open a new one.
func (m *Manager) Commit(ctx context.Context) error {
	m.mu.Lock()
	frame := m.top()
	if frame == nil || frame.Kind != Transaction || m.tx == nil {
		m.mu.Unlock()
		return ErrStackCorrupted
	}
	tx := m.tx
	m.mu.Unlock()

	if err := tx.Commit(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = nil
	return m.pop(frame)
}

// Rollback rolls back the current transaction frame and pops it,
// mirroring Commit.
func (m *Manager) Rollback(ctx context.Context) error {
	m.mu.Lock()
	frame := m.top()
	if frame == nil || frame.Kind != Transaction || m.tx == nil {
		m.mu.Unlock()
		return ErrStackCorrupted
	}
	tx := m.tx
	m.mu.Unlock()

	if err := tx.Rollback(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = nil
	return m.pop(frame)
}
