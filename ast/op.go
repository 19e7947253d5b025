package ast

import "github.com/ha1tch/sqlkit/render"

// Common operator tokens. Dialects may remap any of these via
// render.Settings.Operations (e.g. SQLite maps LIKE to GLOB).
const (
	OpEq        render.Op = "="
	OpNotEq     render.Op = "!="
	OpLT        render.Op = "<"
	OpLTE       render.Op = "<="
	OpGT        render.Op = ">"
	OpGTE       render.Op = ">="
	OpIs        render.Op = "IS"
	OpIsNot     render.Op = "IS NOT"
	OpIn        render.Op = "IN"
	OpNotIn     render.Op = "NOT IN"
	OpLike      render.Op = "LIKE"
	OpILike     render.Op = "ILIKE"
	OpAnd       render.Op = "AND"
	OpOr        render.Op = "OR"
	OpAdd       render.Op = "+"
	OpSub       render.Op = "-"
	OpMul       render.Op = "*"
	OpDiv       render.Op = "/"
	OpMod       render.Op = "%"
	OpConcat    render.Op = "||"
	OpBetween   render.Op = "BETWEEN"
	OpBitAnd    render.Op = "&"
	OpBitOr     render.Op = "|"
	OpBitXor    render.Op = "#"
	OpLShift    render.Op = "<<"
	OpRShift    render.Op = ">>"
)

func remap(ctx *render.Context, op render.Op) string {
	if s := ctx.Settings(); s != nil {
		if remapped, ok := s.Operations[op]; ok {
			return remapped
		}
	}
	return string(op)
}
