package query

import (
	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// Delete is an immutable DELETE builder.
type Delete struct {
	table     *ast.Table
	where     render.Node
	returning []render.Node
	limit     *int
}

// DeleteFrom starts a DELETE against table.
func DeleteFrom(table *ast.Table) *Delete {
	return &Delete{table: table}
}

func (d *Delete) clone() *Delete {
	c := *d
	return &c
}

// Where sets (ANDing on repeated calls) the WHERE predicate.
func (d *Delete) Where(expr render.Node) *Delete {
	c := d.clone()
	if c.where == nil {
		c.where = expr
	} else {
		c.where = ast.NewExpression(c.where, ast.OpAnd, expr)
	}
	return c
}

// Limit bounds the number of rows deleted (MySQL/SQLite extension).
func (d *Delete) Limit(n int) *Delete {
	c := d.clone()
	c.limit = &n
	return c
}

// Returning requests RETURNING cols.
func (d *Delete) Returning(cols ...render.Node) *Delete {
	c := d.clone()
	c.returning = cols
	return c
}

// Build renders the statement against dialect dl.
func (d *Delete) Build(dl dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(dl)
	if err := d.render(ctx, dl); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}

func (d *Delete) render(ctx *render.Context, dl dialect.Dialect) error {
	ctx.Literal("DELETE FROM ")
	ctx.Push(render.ScopeValues)
	err := ctx.SQL(d.table)
	ctx.Pop()
	if err != nil {
		return err
	}

	if d.where != nil {
		ctx.Literal(" WHERE ")
		if err := ctx.SQL(d.where); err != nil {
			return err
		}
	}
	if d.limit != nil {
		ctx.Literal(" LIMIT ")
		if err := ctx.Value(*d.limit, nil); err != nil {
			return err
		}
	}
	if len(d.returning) > 0 {
		if !dl.SupportsReturning() {
			return ErrReturningUnsupported
		}
		ctx.Literal(" RETURNING ")
		if err := ctx.SQL(ast.CommaList(d.returning...)); err != nil {
			return err
		}
	}
	return nil
}
