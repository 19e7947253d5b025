package ast

import (
	"reflect"

	"github.com/ha1tch/sqlkit/render"
)

// Converting is implemented by nodes (notably model fields) whose
// appearance as the LHS of a comparison should convert the RHS
// parameter through their own db-side encoding.
type Converting interface {
	DBConverter() render.Converter
}

// Wrap adapts a Go value into a render.Node: render.Node values pass
// through unchanged, everything else becomes a *Value.
func Wrap(v any) render.Node {
	if node, ok := v.(render.Node); ok {
		return node
	}
	return NewValue(v)
}

// Expression is a binary operator node. It parenthesizes itself
// unless Flat is true; NodeList(Parens: true) wrapping a single
// Expression sets Flat on its child to avoid "((x = 1))".
type Expression struct {
	Lhs  render.Node
	Op   render.Op
	Rhs  render.Node
	Flat bool
}

// NewExpression builds an Expression, wrapping scalar operands with
// Wrap and upgrading equality against a literal nil to IS/IS NOT.
func NewExpression(lhs any, op render.Op, rhs any) *Expression {
	lnode := Wrap(lhs)
	rnode := Wrap(rhs)
	if isNilValue(rnode) {
		switch op {
		case OpEq:
			op = OpIs
		case OpNotEq:
			op = OpIsNot
		}
	}
	return &Expression{Lhs: lnode, Op: op, Rhs: rnode}
}

func isNilValue(n render.Node) bool {
	v, ok := n.(*Value)
	if !ok || v.Multi {
		return false
	}
	if v.Val == nil {
		return true
	}
	rv := reflect.ValueOf(v.Val)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	}
	return false
}

// WithFlat returns a copy of e with Flat set, used when a containing
// NodeList already supplies the parentheses this Expression would
// otherwise add.
func (e *Expression) WithFlat(flat bool) *Expression {
	clone := *e
	clone.Flat = flat
	return &clone
}

func isEmptyMultiValue(n render.Node) bool {
	v, ok := n.(*Value)
	if !ok || !v.Multi {
		return false
	}
	rv := reflect.ValueOf(v.Val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	return rv.Len() == 0
}

// Render implements render.Node.
func (e *Expression) Render(ctx *render.Context) error {
	if !e.Flat {
		ctx.Literal("(")
	}

	if e.Op == OpIn && isEmptyMultiValue(e.Rhs) {
		// IN () never renders literally; it degenerates to an
		// unsatisfiable predicate.
		ctx.Literal("0 = 1")
		if !e.Flat {
			ctx.Literal(")")
		}
		return nil
	}
	if e.Op == OpNotIn && isEmptyMultiValue(e.Rhs) {
		ctx.Literal("1 = 1")
		if !e.Flat {
			ctx.Literal(")")
		}
		return nil
	}

	converter := converterOf(e.Lhs)
	if converter != nil {
		ctx.PushConverter(converter)
	}

	if err := ctx.SQL(e.Lhs); err != nil {
		return err
	}
	ctx.Literal(" " + remap(ctx, e.Op) + " ")
	err := ctx.SQL(e.Rhs)

	if converter != nil {
		ctx.PopConverter()
	}
	if err != nil {
		return err
	}

	if !e.Flat {
		ctx.Literal(")")
	}
	return nil
}

func converterOf(n render.Node) render.Converter {
	if c, ok := n.(Converting); ok {
		return c.DBConverter()
	}
	return nil
}
