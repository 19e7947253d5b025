package ast

import (
	"reflect"

	"github.com/ha1tch/sqlkit/render"
)

// Value is a parameter marker. When Multi is true and Val is a slice,
// it flattens the slice into an enclosed, comma-joined list of
// individual Value nodes instead of binding the slice as one
// parameter.
type Value struct {
	Val       any
	Converter render.Converter
	Multi     bool
}

// NewValue wraps a scalar as a bindable parameter.
func NewValue(v any) *Value {
	return &Value{Val: v}
}

// NewValues wraps a sequence as a multi-value parameter list.
func NewValues(v any) *Value {
	return &Value{Val: v, Multi: true}
}

// WithConverter returns a copy of v bound to converter.
func (v *Value) WithConverter(converter render.Converter) *Value {
	clone := *v
	clone.Converter = converter
	return &clone
}

// Render implements render.Node.
func (v *Value) Render(ctx *render.Context) error {
	converter := v.Converter
	if converter == nil {
		converter = ctx.CurrentConverter()
	}
	if v.Multi {
		rv := reflect.ValueOf(v.Val)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			n := rv.Len()
			if n == 0 {
				ctx.Literal("()")
				return nil
			}
			ctx.Literal("(")
			for i := 0; i < n; i++ {
				if i > 0 {
					ctx.Literal(", ")
				}
				if err := ctx.Value(rv.Index(i).Interface(), converter); err != nil {
					return err
				}
			}
			ctx.Literal(")")
			return nil
		}
	}
	return ctx.Value(v.Val, converter)
}
