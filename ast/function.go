package ast

import "github.com/ha1tch/sqlkit/render"

// Function renders "NAME(arg1, arg2, ...)". A function with a single
// subquery argument is not double-parenthesized: the subquery's own
// Render already emits its parens.
type Function struct {
	Name   string
	Args   []render.Node
	Coerce render.Converter
}

// NewFunction builds a Function call node.
func NewFunction(name string, args ...any) *Function {
	wrapped := make([]render.Node, len(args))
	for i, a := range args {
		wrapped[i] = Wrap(a)
	}
	return &Function{Name: name, Args: wrapped}
}

// Render implements render.Node.
func (f *Function) Render(ctx *render.Context) error {
	if len(f.Args) == 1 {
		if _, isSubquery := f.Args[0].(Subquery); isSubquery {
			ctx.Literal(f.Name)
			return ctx.SQL(f.Args[0])
		}
	}
	ctx.Literal(f.Name + "(")
	for i, arg := range f.Args {
		if i > 0 {
			ctx.Literal(", ")
		}
		if err := ctx.SQL(arg); err != nil {
			return err
		}
	}
	ctx.Literal(")")
	return nil
}

// Subquery is implemented by sources that render their own
// parenthesized body (query.Select), used to avoid double-wrapping a
// lone subquery argument to a Function.
type Subquery interface {
	render.Node
	IsSubquery() bool
}
