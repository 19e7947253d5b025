// Package cursor materializes rows out of a driver cursor: raw tuples,
// name-keyed dicts, positional named records, caller-supplied
// constructors, or (via RowMaterializer) fully joined model graphs.
package cursor

import "strings"

// RowType selects how Wrapper turns a scanned row into a Row.
type RowType int

const (
	Tuple RowType = iota
	Dict
	NamedTuple
	Constructor
	Model
)

// TupleRow is a raw row: one value per projected column, in order.
type TupleRow []any

// DictRow maps column name to value.
type DictRow map[string]any

// NamedRow is a DictRow with a stable, positional view over the same
// values — "named tuple" semantics without a generated struct type.
type NamedRow struct {
	Columns []string
	Values  []any
}

// Get returns the value under name, or nil if name isn't a column.
func (n NamedRow) Get(name string) any {
	for i, c := range n.Columns {
		if c == name {
			return n.Values[i]
		}
	}
	return nil
}

// At returns the value at position i.
func (n NamedRow) At(i int) any {
	if i < 0 || i >= len(n.Values) {
		return nil
	}
	return n.Values[i]
}

// stripTablePrefix drops everything up to and including the first
// '.' in a driver-reported column name, e.g. "t1.name" -> "name".
func stripTablePrefix(name string) string {
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func toDict(columns []string, values []any) DictRow {
	d := make(DictRow, len(columns))
	for i, c := range columns {
		d[c] = values[i]
	}
	return d
}
