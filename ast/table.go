package ast

import "github.com/ha1tch/sqlkit/render"

// Table is a plain named source, optionally schema-qualified.
type Table struct {
	Schema string
	Name   string
	alias  string
}

// NewTable builds an unaliased Table.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// WithSchema returns a copy qualified by schema.
func (t *Table) WithSchema(schema string) *Table {
	clone := *t
	clone.Schema = schema
	return &clone
}

// Alias implements render.Source.
func (t *Table) Alias() string { return t.alias }

// WithAlias implements render.Source.
func (t *Table) WithAlias(alias string) render.Source {
	clone := *t
	clone.alias = alias
	return &clone
}

func (t *Table) entity() *Entity {
	if t.Schema != "" {
		return NewEntity(t.Schema, t.Name)
	}
	return NewEntity(t.Name)
}

// Render implements render.Node. In ScopeSource it renders
// "fqname AS alias" (or "fqname alias" when the dialect forbids AS,
// signaled via a "no_table_as" operation remap entry); in ScopeValues it
// renders the bare table name; otherwise it renders by alias.
func (t *Table) Render(ctx *render.Context) error {
	scope := ctx.State().Scope
	if scope == render.ScopeValues {
		return (&Entity{Parts: []string{t.Name}}).Render(ctx)
	}
	if scope == render.ScopeSource {
		if err := t.entity().Render(ctx); err != nil {
			return err
		}
		alias := t.alias
		if alias == "" {
			alias = ctx.Alias().Add(t)
		}
		joiner := " AS "
		if s := ctx.Settings(); s != nil {
			if v, ok := s.Operations["no_table_as"]; ok && v != "" {
				joiner = " "
			}
		}
		ctx.Literal(joiner)
		return (&Entity{Parts: []string{alias}}).Render(ctx)
	}
	alias := t.alias
	if alias == "" {
		alias = ctx.Alias().Add(t)
	}
	return (&Entity{Parts: []string{alias}}).Render(ctx)
}
