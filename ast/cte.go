package ast

import "github.com/ha1tch/sqlkit/render"

// CTE is a named subquery bound via WITH. Setting Recursive on any CTE
// in a WITH list makes the whole list render "WITH RECURSIVE".
type CTE struct {
	Name    string
	Columns []string
	// Body must render its own enclosing parentheses (a *query.Select
	// does this automatically).
	Body      render.Node
	Recursive bool
	alias     string
}

// NewCTE names body as a common table expression.
func NewCTE(name string, body render.Node) *CTE {
	return &CTE{Name: name, Body: body, alias: name}
}

// WithColumns returns a copy with an explicit column list.
func (c *CTE) WithColumns(cols ...string) *CTE {
	clone := *c
	clone.Columns = cols
	return &clone
}

// WithRecursive returns a copy marked recursive.
func (c *CTE) WithRecursive() *CTE {
	clone := *c
	clone.Recursive = true
	return &clone
}

// Alias implements render.Source; a CTE's alias is its name unless
// WithAlias replaced it.
func (c *CTE) Alias() string { return c.alias }

// WithAlias implements render.Source.
func (c *CTE) WithAlias(alias string) render.Source {
	clone := *c
	clone.alias = alias
	return &clone
}

// Render implements render.Node. In ScopeCTE it emits the full
// "name[(cols)] AS (body)" definition; elsewhere it emits a bare
// reference by alias.
func (c *CTE) Render(ctx *render.Context) error {
	if ctx.State().Scope == render.ScopeCTE {
		if err := (&Entity{Parts: []string{c.Name}}).Render(ctx); err != nil {
			return err
		}
		if len(c.Columns) > 0 {
			nodes := make([]render.Node, len(c.Columns))
			for i, col := range c.Columns {
				nodes[i] = NewEntity(col)
			}
			ctx.Literal(" ")
			if err := ctx.SQL(EnclosedList(nodes...)); err != nil {
				return err
			}
		}
		ctx.Literal(" AS ")
		normal := ctx.Push(render.ScopeNormal)
		normal.Parentheses = false
		err := ctx.SQL(c.Body)
		ctx.Pop()
		return err
	}
	return (&Entity{Parts: []string{c.alias}}).Render(ctx)
}
