// Package query implements the composable, immutable-chain query
// builders (Select, Insert, Update, Delete, CompoundSelect, RawQuery)
// described by spec.md §4.3/§4.4. Every With* method returns a
// modified copy; nothing mutates the receiver.
package query

import (
	"errors"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// ErrForUpdateUnsupported is returned at render time when FOR UPDATE
// is requested against a dialect that does not support it.
var ErrForUpdateUnsupported = errors.New("query: FOR UPDATE is not supported by this dialect")

// Select is an immutable SELECT builder.
type Select struct {
	withs      []*ast.CTE
	distinct   bool
	distinctOn []render.Node
	columns    []render.Node
	from       render.Source
	where      render.Node
	groupBy    []render.Node
	having     render.Node
	windows    []*ast.Window
	orderBy    []render.Node
	limit      *int
	offset     *int
	forUpdate  bool
	lockMode   string
	alias      string
}

// NewSelect starts a SELECT over the given projection.
func NewSelect(columns ...render.Node) *Select {
	return &Select{columns: columns}
}

func (s *Select) clone() *Select {
	c := *s
	return &c
}

// With appends one or more common table expressions.
func (s *Select) With(ctes ...*ast.CTE) *Select {
	c := s.clone()
	c.withs = append(append([]*ast.CTE{}, s.withs...), ctes...)
	return c
}

// Distinct marks the SELECT DISTINCT.
func (s *Select) Distinct() *Select {
	c := s.clone()
	c.distinct = true
	return c
}

// DistinctOn marks SELECT DISTINCT ON (cols) (PostgreSQL extension).
// It renders as DISTINCT ON (cols) under every dialect; no fallback to
// plain DISTINCT is made for dialects that lack it.
func (s *Select) DistinctOn(cols ...render.Node) *Select {
	c := s.clone()
	c.distinct = true
	c.distinctOn = cols
	return c
}

// From sets the FROM source.
func (s *Select) From(src render.Source) *Select {
	c := s.clone()
	c.from = src
	return c
}

// Where sets (or, on repeated calls, ANDs together with) the WHERE
// predicate.
func (s *Select) Where(expr render.Node) *Select {
	c := s.clone()
	if c.where == nil {
		c.where = expr
	} else {
		c.where = ast.NewExpression(c.where, ast.OpAnd, expr)
	}
	return c
}

// GroupBy sets the GROUP BY list.
func (s *Select) GroupBy(cols ...render.Node) *Select {
	c := s.clone()
	c.groupBy = cols
	return c
}

// Having sets the HAVING predicate.
func (s *Select) Having(expr render.Node) *Select {
	c := s.clone()
	c.having = expr
	return c
}

// Window appends a named window definition.
func (s *Select) Window(w *ast.Window) *Select {
	c := s.clone()
	c.windows = append(append([]*ast.Window{}, s.windows...), w)
	return c
}

// OrderBy sets the ORDER BY list. A bare column sorts ascending with
// no explicit ASC keyword; wrap it with ast.Asc/ast.Desc for an
// explicit direction (and, optionally, COLLATE/NULLS placement).
func (s *Select) OrderBy(nodes ...render.Node) *Select {
	c := s.clone()
	c.orderBy = nodes
	return c
}

// Limit sets LIMIT n.
func (s *Select) Limit(n int) *Select {
	c := s.clone()
	c.limit = &n
	return c
}

// Offset sets OFFSET n.
func (s *Select) Offset(n int) *Select {
	c := s.clone()
	c.offset = &n
	return c
}

// ForUpdate requests a locking read. mode is dialect-specific
// ("NO KEY UPDATE", "SHARE", ...) and may be empty.
func (s *Select) ForUpdate(mode string) *Select {
	c := s.clone()
	c.forUpdate = true
	c.lockMode = mode
	return c
}

// Alias implements render.Source.
func (s *Select) Alias() string { return s.alias }

// WithAlias implements render.Source.
func (s *Select) WithAlias(alias string) render.Source {
	c := s.clone()
	c.alias = alias
	return c
}

// IsSubquery implements ast.Subquery so a lone Select argument to a
// Function is not double-parenthesized.
func (s *Select) IsSubquery() bool { return true }

// Build renders the statement as a standalone top-level query.
func (s *Select) Build(d dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(d)
	if err := s.renderBody(ctx); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}

// Render implements render.Node. Used whenever a Select appears
// nested (as a FROM source, a scalar subquery, a Function argument, or
// a CTE body): it always parenthesizes and opens a fresh alias scope,
// per spec.md §4.3's "when rendered as a subquery or as a source"
// rule. When the enclosing scope is ScopeSource (a FROM list entry or
// a join side), it also appends " AS alias", mirroring ast.Table.
func (s *Select) Render(ctx *render.Context) error {
	outerScope := ctx.State().Scope
	ctx.Literal("(")
	ctx.PushAlias()
	sub := ctx.Push(render.ScopeNormal)
	sub.Subquery = true
	err := s.renderBody(ctx)
	ctx.Pop()
	ctx.PopAlias()
	ctx.Literal(")")
	if err != nil {
		return err
	}
	if outerScope == render.ScopeSource {
		alias := s.alias
		if alias == "" {
			alias = ctx.Alias().Add(s)
		}
		ctx.Literal(" AS ")
		if err := ctx.SQL(ast.NewEntity(alias)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Select) renderBody(ctx *render.Context) error {
	if len(s.withs) > 0 {
		if err := s.renderWith(ctx); err != nil {
			return err
		}
	}
	ctx.Literal("SELECT ")
	if s.distinct {
		ctx.Literal("DISTINCT ")
		if len(s.distinctOn) > 0 {
			ctx.Literal("ON ")
			if err := ctx.SQL(ast.EnclosedList(s.distinctOn...)); err != nil {
				return err
			}
			ctx.Literal(" ")
		}
	}
	if err := ctx.SQL(ast.CommaList(s.columns...)); err != nil {
		return err
	}
	if s.from != nil {
		ctx.Literal(" FROM ")
		ctx.Push(render.ScopeSource)
		err := ctx.SQL(s.from)
		ctx.Pop()
		if err != nil {
			return err
		}
	}
	if s.where != nil {
		ctx.Literal(" WHERE ")
		if err := ctx.SQL(s.where); err != nil {
			return err
		}
	}
	if len(s.groupBy) > 0 {
		ctx.Literal(" GROUP BY ")
		if err := ctx.SQL(ast.CommaList(s.groupBy...)); err != nil {
			return err
		}
	}
	if s.having != nil {
		ctx.Literal(" HAVING ")
		if err := ctx.SQL(s.having); err != nil {
			return err
		}
	}
	if len(s.windows) > 0 {
		ctx.Literal(" WINDOW ")
		for i, w := range s.windows {
			if i > 0 {
				ctx.Literal(", ")
			}
			if err := ctx.SQL(w); err != nil {
				return err
			}
		}
	}
	if err := renderOrderLimitOffset(ctx, s.orderBy, s.limit, s.offset); err != nil {
		return err
	}
	if s.forUpdate {
		if ctx.Settings() == nil || !ctx.Settings().ForUpdate {
			return ErrForUpdateUnsupported
		}
		ctx.Literal(" FOR UPDATE")
		if s.lockMode != "" {
			ctx.Literal(" " + s.lockMode)
		}
	}
	return nil
}

func (s *Select) renderWith(ctx *render.Context) error {
	ctx.Literal("WITH ")
	recursive := false
	for _, c := range s.withs {
		if c.Recursive {
			recursive = true
		}
	}
	if recursive {
		ctx.Literal("RECURSIVE ")
	}
	ctx.Push(render.ScopeCTE)
	for i, c := range s.withs {
		if i > 0 {
			ctx.Literal(", ")
		}
		if err := ctx.SQL(c); err != nil {
			ctx.Pop()
			return err
		}
	}
	ctx.Pop()
	ctx.Literal(" ")
	return nil
}

// renderOrderLimitOffset renders ORDER BY/LIMIT/OFFSET, applying the
// limit_max trick (spec.md §4.3) when OFFSET is set without LIMIT.
func renderOrderLimitOffset(ctx *render.Context, orderBy []render.Node, limit, offset *int) error {
	if len(orderBy) > 0 {
		ctx.Literal(" ORDER BY ")
		if err := ctx.SQL(ast.CommaList(orderBy...)); err != nil {
			return err
		}
	}
	effectiveLimit := limit
	if effectiveLimit == nil && offset != nil && ctx.Settings() != nil && ctx.Settings().LimitMax != 0 {
		max := ctx.Settings().LimitMax
		effectiveLimit = &max
	}
	if effectiveLimit != nil {
		ctx.Literal(" LIMIT ")
		if err := ctx.Value(*effectiveLimit, nil); err != nil {
			return err
		}
	}
	if offset != nil {
		ctx.Literal(" OFFSET ")
		if err := ctx.Value(*offset, nil); err != nil {
			return err
		}
	}
	return nil
}
