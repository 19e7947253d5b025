package ast

import "github.com/ha1tch/sqlkit/render"

// Window renders "alias AS (PARTITION BY ... ORDER BY ... ROWS BETWEEN
// a AND b [EXCLUDE ...])".
type Window struct {
	PartitionBy []render.Node
	OrderBy     []*Ordering
	FrameStart  string
	FrameEnd    string
	// Exclude is a frame exclusion clause (CURRENT ROW, GROUP, TIES, NO
	// OTHERS); empty means none is emitted. Supplements spec.md's
	// frame_start/frame_end pair with the original's Window.exclude.
	Exclude string
	Name    string
}

// Render implements render.Node.
func (w *Window) Render(ctx *render.Context) error {
	if w.Name != "" {
		ctx.Literal(w.Name + " AS ")
	}
	ctx.Literal("(")
	wrote := false
	if len(w.PartitionBy) > 0 {
		ctx.Literal("PARTITION BY ")
		if err := ctx.SQL(CommaList(w.PartitionBy...)); err != nil {
			return err
		}
		wrote = true
	}
	if len(w.OrderBy) > 0 {
		if wrote {
			ctx.Literal(" ")
		}
		ctx.Literal("ORDER BY ")
		nodes := make([]render.Node, len(w.OrderBy))
		for i, o := range w.OrderBy {
			nodes[i] = o
		}
		if err := ctx.SQL(CommaList(nodes...)); err != nil {
			return err
		}
		wrote = true
	}
	if w.FrameStart != "" && w.FrameEnd != "" {
		if wrote {
			ctx.Literal(" ")
		}
		ctx.Literal("ROWS BETWEEN " + w.FrameStart + " AND " + w.FrameEnd)
		if w.Exclude != "" {
			ctx.Literal(" EXCLUDE " + w.Exclude)
		}
	}
	ctx.Literal(")")
	return nil
}
