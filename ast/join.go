package ast

import "github.com/ha1tch/sqlkit/render"

// JoinType enumerates the supported join kinds.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
	JoinCross
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "INNER JOIN"
	case JoinLeftOuter:
		return "LEFT OUTER JOIN"
	case JoinRightOuter:
		return "RIGHT OUTER JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	case JoinCross:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

// Join is a joined source: associative via the builder that
// constructs it, but always rendered left-deep.
type Join struct {
	Lhs   render.Source
	Rhs   render.Source
	Type  JoinType
	On    render.Node // nil for CROSS JOIN
	alias string
}

// NewJoin builds a Join node.
func NewJoin(lhs, rhs render.Source, typ JoinType, on render.Node) *Join {
	return &Join{Lhs: lhs, Rhs: rhs, Type: typ, On: on}
}

// Alias implements render.Source. A Join itself is not usually
// aliased (its sides are); WithAlias exists to satisfy the interface
// for symmetry with other sources used in a FROM list.
func (j *Join) Alias() string { return j.alias }

// WithAlias implements render.Source.
func (j *Join) WithAlias(alias string) render.Source {
	clone := *j
	clone.alias = alias
	return &clone
}

// Render implements render.Node.
func (j *Join) Render(ctx *render.Context) error {
	src := ctx.Push(render.ScopeSource)
	_ = src
	if err := ctx.SQL(j.Lhs); err != nil {
		ctx.Pop()
		return err
	}
	ctx.Literal(" " + j.Type.String() + " ")
	if err := ctx.SQL(j.Rhs); err != nil {
		ctx.Pop()
		return err
	}
	ctx.Pop()
	if j.On != nil {
		ctx.Literal(" ON ")
		normal := ctx.Push(render.ScopeNormal)
		normal.Parentheses = false
		if err := ctx.SQL(j.On); err != nil {
			ctx.Pop()
			return err
		}
		ctx.Pop()
	}
	return nil
}
