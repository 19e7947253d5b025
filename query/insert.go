package query

import (
	"errors"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// ErrNoRows is returned building an Insert with no rows and no source
// query.
var ErrNoRows = errors.New("query: insert has neither rows nor a source query")

// ErrReturningUnsupported is returned when Returning is requested
// against a dialect without RETURNING support.
var ErrReturningUnsupported = errors.New("query: RETURNING is not supported by this dialect")

// Insert is an immutable INSERT builder covering the three shapes of
// spec.md §4.4: a single row, multiple rows, or INSERT ... SELECT.
type Insert struct {
	table     *ast.Table
	columns   []string
	rows      [][]render.Node
	fromQuery render.Node
	conflict  *dialect.OnConflict
	returning []render.Node
}

// InsertInto starts an INSERT into table.
func InsertInto(table *ast.Table) *Insert {
	return &Insert{table: table}
}

func (i *Insert) clone() *Insert {
	c := *i
	return &c
}

// Columns fixes the column order for Values rows.
func (i *Insert) Columns(cols ...string) *Insert {
	c := i.clone()
	c.columns = cols
	return c
}

// Values appends one row of positional values, in Columns order.
func (i *Insert) Values(vals ...any) *Insert {
	c := i.clone()
	row := make([]render.Node, len(vals))
	for idx, v := range vals {
		row[idx] = ast.Wrap(v)
	}
	c.rows = append(append([][]render.Node{}, i.rows...), row)
	return c
}

// FromQuery turns this into an INSERT INTO t (cols) SELECT ... form.
// src is normally a *Select.
func (i *Insert) FromQuery(src render.Node) *Insert {
	c := i.clone()
	c.fromQuery = src
	c.rows = nil
	return c
}

// OnConflict attaches a conflict-resolution request, dispatched through
// the active dialect's ConflictStatement/ConflictUpdate at render time.
func (i *Insert) OnConflict(oc *dialect.OnConflict) *Insert {
	c := i.clone()
	c.conflict = oc
	return c
}

// Returning requests RETURNING cols (Postgres, SQLite 3.35+).
func (i *Insert) Returning(cols ...render.Node) *Insert {
	c := i.clone()
	c.returning = cols
	return c
}

// Build renders the statement against dialect d.
func (i *Insert) Build(d dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(d)
	if err := i.render(ctx, d); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}

func (i *Insert) render(ctx *render.Context, d dialect.Dialect) error {
	if len(i.rows) == 0 && i.fromQuery == nil {
		return ErrNoRows
	}

	verb := "INSERT INTO "
	var trailingConflict render.Node
	if i.conflict != nil {
		stmt, ok, err := d.ConflictStatement(i.conflict)
		if err != nil {
			return err
		}
		if ok {
			verb = stmt + " INTO "
		}
		node, err := d.ConflictUpdate(i.conflict)
		if err != nil {
			return err
		}
		trailingConflict = node
	}
	ctx.Literal(verb)

	ctx.Push(render.ScopeValues)
	err := ctx.SQL(i.table)
	ctx.Pop()
	if err != nil {
		return err
	}

	if len(i.columns) > 0 {
		ctx.Literal(" ")
		nodes := make([]render.Node, len(i.columns))
		for idx, col := range i.columns {
			nodes[idx] = ast.NewEntity(col)
		}
		if err := ctx.SQL(ast.EnclosedList(nodes...)); err != nil {
			return err
		}
	}

	switch {
	case i.fromQuery != nil:
		ctx.Literal(" ")
		if err := ctx.SQL(i.fromQuery); err != nil {
			return err
		}
	case len(i.rows) == 1 && len(i.rows[0]) == 0:
		ctx.Literal(" " + d.DefaultValuesInsert())
	default:
		ctx.Literal(" VALUES ")
		ctx.Push(render.ScopeValues)
		for ridx, row := range i.rows {
			if ridx > 0 {
				ctx.Literal(", ")
			}
			if err := ctx.SQL(ast.EnclosedList(row...)); err != nil {
				ctx.Pop()
				return err
			}
		}
		ctx.Pop()
	}

	if trailingConflict != nil {
		ctx.Literal(" ")
		if err := ctx.SQL(trailingConflict); err != nil {
			return err
		}
	}

	if len(i.returning) > 0 {
		if !d.SupportsReturning() {
			return ErrReturningUnsupported
		}
		ctx.Literal(" RETURNING ")
		if err := ctx.SQL(ast.CommaList(i.returning...)); err != nil {
			return err
		}
	}
	return nil
}
