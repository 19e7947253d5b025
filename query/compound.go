package query

import (
	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// CompoundOp names a compound-select operator.
type CompoundOp string

const (
	Union     CompoundOp = "UNION"
	UnionAll  CompoundOp = "UNION ALL"
	Intersect CompoundOp = "INTERSECT"
	Except    CompoundOp = "EXCEPT"
)

// compoundArm is anything that can sit on either side of a compound
// select: a *Select or another *CompoundSelect. renderBody renders the
// bare "SELECT ..." text with no enclosing parentheses, letting
// renderArm decide whether the active dialect wants each arm wrapped.
type compoundArm interface {
	render.Node
	renderBody(ctx *render.Context) error
}

// CompoundSelect chains two query arms with a set operator. Chains
// built via Union/UnionAll/Intersect/Except are left-associative, per
// spec.md §4.3.
type CompoundSelect struct {
	Lhs     compoundArm
	Op      CompoundOp
	Rhs     compoundArm
	orderBy []render.Node
	limit   *int
	offset  *int
	alias   string
}

// NewCompoundSelect combines lhs and rhs with op.
func NewCompoundSelect(lhs compoundArm, op CompoundOp, rhs compoundArm) *CompoundSelect {
	return &CompoundSelect{Lhs: lhs, Op: op, Rhs: rhs}
}

func (c *CompoundSelect) clone() *CompoundSelect {
	n := *c
	return &n
}

// OrderBy sets the ORDER BY applied to the compound result as a whole.
func (c *CompoundSelect) OrderBy(nodes ...render.Node) *CompoundSelect {
	n := c.clone()
	n.orderBy = nodes
	return n
}

// Limit sets LIMIT on the compound result.
func (c *CompoundSelect) Limit(v int) *CompoundSelect {
	n := c.clone()
	n.limit = &v
	return n
}

// Offset sets OFFSET on the compound result.
func (c *CompoundSelect) Offset(v int) *CompoundSelect {
	n := c.clone()
	n.offset = &v
	return n
}

// Alias implements render.Source.
func (c *CompoundSelect) Alias() string { return c.alias }

// WithAlias implements render.Source.
func (c *CompoundSelect) WithAlias(alias string) render.Source {
	n := c.clone()
	n.alias = alias
	return n
}

// IsSubquery implements ast.Subquery.
func (c *CompoundSelect) IsSubquery() bool { return true }

// Build renders the compound statement as a standalone top-level
// query.
func (c *CompoundSelect) Build(d dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(d)
	if err := c.renderBody(ctx); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}

// Render implements render.Node, always parenthesizing (matching
// Select's nested-use convention) and, in ScopeSource, appending
// " AS alias".
func (c *CompoundSelect) Render(ctx *render.Context) error {
	outerScope := ctx.State().Scope
	ctx.Literal("(")
	ctx.PushAlias()
	sub := ctx.Push(render.ScopeNormal)
	sub.Subquery = true
	err := c.renderBody(ctx)
	ctx.Pop()
	ctx.PopAlias()
	ctx.Literal(")")
	if err != nil {
		return err
	}
	if outerScope == render.ScopeSource {
		alias := c.alias
		if alias == "" {
			alias = ctx.Alias().Add(c)
		}
		ctx.Literal(" AS ")
		if err := ctx.SQL(ast.NewEntity(alias)); err != nil {
			return err
		}
	}
	return nil
}

func (c *CompoundSelect) renderBody(ctx *render.Context) error {
	parens := ctx.Settings() != nil && ctx.Settings().CompoundSelectParens
	if err := renderArm(ctx, c.Lhs, parens); err != nil {
		return err
	}
	ctx.Literal(" " + string(c.Op) + " ")
	if err := renderArm(ctx, c.Rhs, parens); err != nil {
		return err
	}
	return renderOrderLimitOffset(ctx, c.orderBy, c.limit, c.offset)
}

// renderArm renders one side of a compound select via its bare body,
// parenthesizing it only when the dialect requires each arm wrapped
// (MySQL's CompoundSelectParens).
func renderArm(ctx *render.Context, arm compoundArm, forceParens bool) error {
	if forceParens {
		ctx.Literal("(")
	}
	err := arm.renderBody(ctx)
	if forceParens {
		ctx.Literal(")")
	}
	return err
}
