package ast

import (
	"strings"

	"github.com/ha1tch/sqlkit/render"
)

// Entity is a quoted identifier, possibly dotted (schema.table or
// table.column). Each path component is escaped by doubling the
// dialect's quote character.
type Entity struct {
	Parts []string
}

// NewEntity builds an Entity from one or more dotted path components.
func NewEntity(parts ...string) *Entity {
	return &Entity{Parts: parts}
}

// Render implements render.Node.
func (e *Entity) Render(ctx *render.Context) error {
	quote := byte('"')
	if s := ctx.Settings(); s != nil && s.QuoteChar != 0 {
		quote = s.QuoteChar
	}
	q := string(quote)
	doubled := q + q
	parts := make([]string, len(e.Parts))
	for i, p := range e.Parts {
		parts[i] = q + strings.ReplaceAll(p, q, doubled) + q
	}
	ctx.Literal(strings.Join(parts, "."))
	return nil
}
