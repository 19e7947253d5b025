package ast

import "github.com/ha1tch/sqlkit/render"

// NodeList renders an ordered sequence of nodes joined by Glue,
// optionally parenthesized. When Parens wraps a single *Expression
// child, that child is rendered flat to avoid double parenthesization.
type NodeList struct {
	Children []render.Node
	Glue     string
	Parens   bool
}

// NewNodeList builds a NodeList with the given glue.
func NewNodeList(glue string, children ...render.Node) *NodeList {
	return &NodeList{Children: children, Glue: glue}
}

// CommaList is a NodeList joined by ", ".
func CommaList(children ...render.Node) *NodeList {
	return &NodeList{Children: children, Glue: ", "}
}

// EnclosedList is a comma-joined NodeList wrapped in parentheses.
func EnclosedList(children ...render.Node) *NodeList {
	return &NodeList{Children: children, Glue: ", ", Parens: true}
}

// Render implements render.Node.
func (l *NodeList) Render(ctx *render.Context) error {
	if l.Parens {
		ctx.Literal("(")
	}
	for i, child := range l.Children {
		if i > 0 {
			ctx.Literal(l.Glue)
		}
		if l.Parens && len(l.Children) == 1 {
			if expr, ok := child.(*Expression); ok {
				child = expr.WithFlat(true)
			}
		}
		if err := ctx.SQL(child); err != nil {
			return err
		}
	}
	if l.Parens {
		ctx.Literal(")")
	}
	return nil
}
