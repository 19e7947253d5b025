package ast

import "github.com/ha1tch/sqlkit/render"

// Column is a qualified reference to a column of some source. It
// renders as "alias.name" in ScopeNormal and bare "name" in
// ScopeValues (UPDATE/INSERT/DELETE bodies never qualify columns).
type Column struct {
	Src  render.Source
	Name string
}

// NewColumn builds a Column bound to its owning source.
func NewColumn(src render.Source, name string) *Column {
	return &Column{Src: src, Name: name}
}

// Render implements render.Node.
func (c *Column) Render(ctx *render.Context) error {
	if ctx.State().Scope == render.ScopeValues || c.Src == nil {
		return (&Entity{Parts: []string{c.Name}}).Render(ctx)
	}
	alias := c.Src.Alias()
	if alias == "" {
		alias = ctx.Alias().Add(c.Src)
	}
	return (&Entity{Parts: []string{alias, c.Name}}).Render(ctx)
}

// As wraps the column in an Alias node.
func (c *Column) As(alias string) *Alias {
	return &Alias{Node: c, Name: alias}
}
