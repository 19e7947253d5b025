package query

import (
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// RawQuery is an escape hatch for a literal SQL string with positional
// parameters, usable anywhere a render.Node/render.Source is expected
// (including as a FROM source, once aliased).
type RawQuery struct {
	sql    string
	params []any
	alias  string
}

// Raw wraps a literal SQL fragment as a top-level, buildable query.
func Raw(sql string, params ...any) *RawQuery {
	return &RawQuery{sql: sql, params: params}
}

// Alias implements render.Source.
func (r *RawQuery) Alias() string { return r.alias }

// WithAlias implements render.Source.
func (r *RawQuery) WithAlias(alias string) render.Source {
	clone := *r
	clone.alias = alias
	return &clone
}

// Render implements render.Node, emitting the literal text unwrapped;
// callers that need it parenthesized as a subquery wrap it themselves.
func (r *RawQuery) Render(ctx *render.Context) error {
	ctx.Literal(r.sql)
	for _, p := range r.params {
		if err := ctx.Value(p, nil); err != nil {
			return err
		}
	}
	return nil
}

// Build renders the raw query standalone against dialect d (mainly for
// symmetry with the other builders; the SQL text itself is already
// dialect-specific since the caller wrote it by hand).
func (r *RawQuery) Build(d dialect.Dialect) (string, []any, error) {
	ctx := dialect.NewContext(d)
	if err := r.Render(ctx); err != nil {
		return "", nil, err
	}
	sql, params := ctx.Query()
	return sql, params, nil
}
