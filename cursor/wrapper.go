package cursor

import (
	"database/sql"
	"errors"
	"sync"
)

// ErrIteratorActive is returned by FillCache/At/Slice once Iterator
// has started draining the underlying rows: the two consumption modes
// are mutually exclusive on a single Wrapper.
var ErrIteratorActive = errors.New("cursor: cache access after Iterator has started")

// ErrCachingActive is returned by Iterator once the cache has already
// been populated by FillCache/At/Slice.
var ErrCachingActive = errors.New("cursor: Iterator called after cache access")

// Wrapper lazily pulls rows from a *sql.Rows and materializes them
// according to RowType. Indexing and slicing fill an internal cache;
// Iterator bypasses the cache for a single forward pass. A Wrapper may
// be consumed one way or the other, never both.
type Wrapper struct {
	mu sync.Mutex

	rows        *sql.Rows
	rawColumns  []string // as reported by the driver, e.g. "t1.name"
	columns     []string // post-"." segment
	rowType     RowType
	ctor        func(DictRow) (any, error)
	materializer RowMaterializer
	initialized bool

	cache      []any
	exhausted  bool
	closed     bool
	iterating  bool
	iterErr    error
}

// NewWrapper wraps rows, materializing each row as RowType (Tuple,
// Dict, or NamedTuple; use NewConstructorWrapper/NewModelWrapper for
// Constructor/Model).
func NewWrapper(rows *sql.Rows, rowType RowType) (*Wrapper, error) {
	if rowType == Constructor || rowType == Model {
		return nil, errors.New("cursor: use NewConstructorWrapper or NewModelWrapper for this RowType")
	}
	return newWrapper(rows, rowType, nil, nil)
}

// NewConstructorWrapper materializes each row as ctor(dictRow).
func NewConstructorWrapper(rows *sql.Rows, ctor func(DictRow) (any, error)) (*Wrapper, error) {
	return newWrapper(rows, Constructor, ctor, nil)
}

// NewModelWrapper materializes each row through the join-aware
// RowMaterializer m (spec.md §4.7's model materializer).
func NewModelWrapper(rows *sql.Rows, m RowMaterializer) (*Wrapper, error) {
	return newWrapper(rows, Model, nil, m)
}

func newWrapper(rows *sql.Rows, rowType RowType, ctor func(DictRow) (any, error), m RowMaterializer) (*Wrapper, error) {
	raw, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	cols := make([]string, len(raw))
	for i, c := range raw {
		cols[i] = stripTablePrefix(c)
	}
	return &Wrapper{
		rows:         rows,
		rawColumns:   raw,
		columns:      cols,
		rowType:      rowType,
		ctor:         ctor,
		materializer: m,
	}, nil
}

// Columns returns the (post-prefix-stripped) projected column names.
func (w *Wrapper) Columns() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.columns))
	copy(out, w.columns)
	return out
}

// scanNext pulls and materializes the next row. Must be called with
// w.mu held.
func (w *Wrapper) scanNext() (any, bool, error) {
	if w.exhausted || w.closed {
		return nil, false, nil
	}
	if !w.rows.Next() {
		err := w.rows.Err()
		w.closeLocked()
		return nil, false, err
	}

	dest := make([]any, len(w.rawColumns))
	ptrs := make([]any, len(w.rawColumns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := w.rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}

	switch w.rowType {
	case Tuple:
		return TupleRow(dest), true, nil
	case Dict:
		return toDict(w.columns, dest), true, nil
	case NamedTuple:
		return NamedRow{Columns: w.columns, Values: dest}, true, nil
	case Constructor:
		row, err := w.ctor(toDict(w.columns, dest))
		return row, err == nil, err
	case Model:
		if !w.initialized {
			if err := w.materializer.Initialize(w.rawColumns); err != nil {
				return nil, false, err
			}
			w.initialized = true
		}
		row, err := w.materializer.MaterializeRow(dest)
		return row, err == nil, err
	default:
		return TupleRow(dest), true, nil
	}
}

func (w *Wrapper) closeLocked() {
	if w.closed {
		return
	}
	w.rows.Close()
	w.closed = true
	w.exhausted = true
}

// Close closes the underlying rows if still open.
func (w *Wrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	err := w.rows.Close()
	w.closed = true
	w.exhausted = true
	return err
}

// FillCache materializes at least n rows into the internal cache, or
// every remaining row when n <= 0.
func (w *Wrapper) FillCache(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.iterating {
		return ErrIteratorActive
	}
	for (n <= 0 || len(w.cache) < n) && !w.exhausted {
		row, ok, err := w.scanNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		w.cache = append(w.cache, row)
	}
	return nil
}

// Len returns the number of rows, materializing the whole result set
// if it hasn't been already.
func (w *Wrapper) Len() (int, error) {
	if err := w.FillCache(0); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.cache), nil
}

// At returns the row at index i, filling the cache as needed.
func (w *Wrapper) At(i int) (any, error) {
	if err := w.FillCache(i + 1); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.cache) {
		return nil, sql.ErrNoRows
	}
	return w.cache[i], nil
}

// Slice returns rows [i, j), filling the cache as needed.
func (w *Wrapper) Slice(i, j int) ([]any, error) {
	if err := w.FillCache(j); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || j > len(w.cache) || i > j {
		return nil, sql.ErrNoRows
	}
	out := make([]any, j-i)
	copy(out, w.cache[i:j])
	return out, nil
}

// Iterator returns a range-over-func-shaped iterator that yields rows
// directly from the driver, without populating the cache. It is
// single-pass and mutually exclusive with FillCache/At/Slice on the
// same Wrapper.
func (w *Wrapper) Iterator() func(yield func(any) bool) {
	return func(yield func(any) bool) {
		w.mu.Lock()
		if len(w.cache) > 0 {
			w.mu.Unlock()
			w.setIterErr(ErrCachingActive)
			return
		}
		w.iterating = true
		w.mu.Unlock()

		for {
			w.mu.Lock()
			row, ok, err := w.scanNext()
			w.mu.Unlock()
			if err != nil {
				w.setIterErr(err)
				return
			}
			if !ok {
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}

func (w *Wrapper) setIterErr(err error) {
	w.mu.Lock()
	w.iterErr = err
	w.mu.Unlock()
}

// Err returns any error encountered by the most recent Iterator pass.
func (w *Wrapper) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.iterErr
}
