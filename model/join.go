package model

import (
	"fmt"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/render"
)

// resolvedJoin is the outcome of relating two models through a single
// foreign key, mirroring peewee's ModelBase._generate_on_clause /
// Model.join(): which field mediates the relation, which direction it
// was found in, the default destination attribute the joined rows
// should be attached under, and the ON condition.
type resolvedJoin struct {
	fk        *Field
	backref   bool
	destAttr  string
	condition render.Node
}

// resolveJoin finds the single foreign key relating from to to. Per
// spec.md §4.7, forward references (from owns an FK to to) are tried
// first; if none exist, backreferences (to owns an FK to from) are
// tried. toField, if non-nil, narrows the candidates to FKs pointing
// at that specific field instead of to's primary key. Zero or more
// than one remaining candidate is an error: the caller must either
// supply toField or build the ON clause explicitly.
func resolveJoin(from, to *Metadata, toField *Field) (*resolvedJoin, error) {
	backref := false
	candidates := from.ForeignKeysTo(to)
	if len(candidates) == 0 {
		candidates = to.ForeignKeysTo(from)
		backref = true
	}

	if toField != nil {
		var narrowed []*Field
		for _, f := range candidates {
			if f.RelField() == toField {
				narrowed = append(narrowed, f)
			}
		}
		candidates = narrowed
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("model: no foreign key relates %q to %q", from.Name, to.Name)
	case 1:
		fk := candidates[0]
		attr := fk.Name()
		if backref {
			attr = fk.BackrefName()
		}
		return &resolvedJoin{
			fk:        fk,
			backref:   backref,
			destAttr:  attr,
			condition: ast.NewExpression(fk, ast.OpEq, fk.RelField()),
		}, nil
	default:
		return nil, fmt.Errorf(
			"model: %q and %q are related by %d foreign keys; narrow with WithRelField or build the ON clause explicitly",
			from.Name, to.Name, len(candidates))
	}
}
