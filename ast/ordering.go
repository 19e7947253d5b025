package ast

import "github.com/ha1tch/sqlkit/render"

// Ordering renders "expr ASC|DESC [COLLATE x] [NULLS FIRST|LAST]".
type Ordering struct {
	Node      render.Node
	Desc      bool
	Collation string
	Nulls     string // "FIRST", "LAST", or ""
}

// Asc builds an ascending Ordering.
func Asc(n render.Node) *Ordering { return &Ordering{Node: n} }

// Desc builds a descending Ordering.
func Desc(n render.Node) *Ordering { return &Ordering{Node: n, Desc: true} }

// WithCollation returns a copy collated by name.
func (o *Ordering) WithCollation(name string) *Ordering {
	clone := *o
	clone.Collation = name
	return &clone
}

// WithNulls returns a copy with explicit NULLS FIRST/LAST placement.
func (o *Ordering) WithNulls(where string) *Ordering {
	clone := *o
	clone.Nulls = where
	return &clone
}

// Render implements render.Node.
func (o *Ordering) Render(ctx *render.Context) error {
	if err := ctx.SQL(o.Node); err != nil {
		return err
	}
	if o.Desc {
		ctx.Literal(" DESC")
	} else {
		ctx.Literal(" ASC")
	}
	if o.Collation != "" {
		ctx.Literal(" COLLATE " + o.Collation)
	}
	if o.Nulls != "" {
		ctx.Literal(" NULLS " + o.Nulls)
	}
	return nil
}
