package query

import (
	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// Update is an immutable UPDATE builder. Per spec.md §4.4, it renders
// under ScopeValues for its target table, so the table name appears
// unqualified even if Table carries a schema or an alias.
type Update struct {
	table     *ast.Table
	setCols   []string
	setVals   []render.Node
	where     render.Node
	returning []render.Node
}

// UpdateTable starts an UPDATE against table.
func UpdateTable(table *ast.Table) *Update {
	return &Update{table: table}
}

func (u *Update) clone() *Update {
	c := *u
	return &c
}

// Set assigns col = val, appending to any prior Set calls in order.
func (u *Update) Set(col string, val any) *Update {
	c := u.clone()
	c.setCols = append(append([]string{}, u.setCols...), col)
	c.setVals = append(append([]render.Node{}, u.setVals...), ast.Wrap(val))
	return c
}

// Where sets (ANDing on repeated calls) the WHERE predicate.
func (u *Update) Where(expr render.Node) *Update {
	c := u.clone()
	if c.where == nil {
		c.where = expr
	} else {
		c.where = ast.NewExpression(c.where, ast.OpAnd, expr)
	}
	return c
}

// Returning requests RETURNING cols.
func (u *Update) Returning(cols ...render.Node) *Update {
	c := u.clone()
	c.returning = cols
	return c
}

// Build renders the statement against dialect d.
func (u *Update) Build(d dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(d)
	if err := u.render(ctx, d); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}

func (u *Update) render(ctx *render.Context, d dialect.Dialect) error {
	ctx.Literal("UPDATE ")
	ctx.Push(render.ScopeValues)
	err := ctx.SQL(u.table)
	ctx.Pop()
	if err != nil {
		return err
	}

	ctx.Literal(" SET ")
	assigns := make([]render.Node, len(u.setCols))
	for idx, col := range u.setCols {
		assigns[idx] = ast.NewExpression(ast.NewEntity(col), ast.OpEq, u.setVals[idx]).WithFlat(true)
	}
	if err := ctx.SQL(ast.CommaList(assigns...)); err != nil {
		return err
	}

	if u.where != nil {
		ctx.Literal(" WHERE ")
		if err := ctx.SQL(u.where); err != nil {
			return err
		}
	}

	if len(u.returning) > 0 {
		if !d.SupportsReturning() {
			return ErrReturningUnsupported
		}
		ctx.Literal(" RETURNING ")
		if err := ctx.SQL(ast.CommaList(u.returning...)); err != nil {
			return err
		}
	}
	return nil
}
