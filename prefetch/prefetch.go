// Package prefetch implements spec.md §4.8's prefetch: running a root
// query plus a chain of related subqueries, rewriting each subquery's
// WHERE clause to an IN-list over the previous step's keys instead of
// issuing one query per row, then grafting the results back onto the
// rows they belong to.
package prefetch

import (
	"context"
	"fmt"

	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/model"
)

type link struct {
	meta    *model.Metadata
	rows    []*model.Instance
	related *link
	// fk/ownerIsRelated describe how this link relates to `related`,
	// mirroring original_source/peewee.py's subquery/PREFETCH_TYPE
	// classification:
	//   ownerIsRelated true  -> related's model owns fk, pointing at this model
	//                           ("backref" case: related's fk field gets
	//                           overwritten with a single matching row).
	//   ownerIsRelated false -> this model owns fk, pointing at related's model
	//                           ("forward" case: each of this link's rows gets
	//                           one parent reference, related gets a list).
	fk             *model.Field
	ownerIsRelated bool
}

// Run executes root, then each subquery in turn, rewriting its WHERE
// clause against whichever earlier query (root or a prior subquery) it
// relates to by foreign key, and attaches every result onto the rows
// it belongs to. The returned slice is root's materialized rows, now
// carrying their prefetched relations.
func Run(ctx context.Context, sess *db.Session, root *model.ModelSelect, subqueries ...*model.ModelSelect) ([]*model.Instance, error) {
	rootRows, err := root.Find(ctx, sess)
	if err != nil {
		return nil, err
	}
	chain := []*link{{meta: root.Meta(), rows: rootRows}}

	for _, sq := range subqueries {
		related, fk, ownerIsRelated, err := resolve(chain, sq.Meta())
		if err != nil {
			return nil, err
		}

		var rewritten *model.ModelSelect
		if ownerIsRelated {
			// related owns fk -> sq.Meta(); filter sq's rows by the
			// field fk points at, using related's fk values as keys.
			keys := distinctValues(related.rows, fk.Name())
			rewritten = sq.Where(fk.RelField().In(keys))
		} else {
			// sq.Meta() owns fk -> related's model; filter sq's rows
			// by fk itself, using related's referenced-field values.
			keys := distinctValues(related.rows, fk.RelField().Name())
			rewritten = sq.Where(fk.In(keys))
		}

		rows, err := rewritten.Find(ctx, sess)
		if err != nil {
			return nil, err
		}
		chain = append(chain, &link{
			meta:           sq.Meta(),
			rows:           rows,
			related:        related,
			fk:             fk,
			ownerIsRelated: ownerIsRelated,
		})
	}

	// Attach leaf-to-root: a child's own related rows must already be
	// attached before its parent link's attach pass runs, mirroring
	// original_source/peewee.py's `for pq in reversed(fixed_queries)`
	// population order.
	for idx := len(chain) - 1; idx >= 1; idx-- {
		attach(chain[idx])
	}

	return rootRows, nil
}

func resolve(chain []*link, target *model.Metadata) (related *link, fk *model.Field, ownerIsRelated bool, err error) {
	for idx := len(chain) - 1; idx >= 0; idx-- {
		c := chain[idx]
		if fks := c.meta.ForeignKeysTo(target); len(fks) == 1 {
			return c, fks[0], true, nil
		}
		if fks := target.ForeignKeysTo(c.meta); len(fks) == 1 {
			return c, fks[0], false, nil
		}
	}
	return nil, nil, false, fmt.Errorf("prefetch: no foreign key relates %q to any query already in the chain", target.Name)
}

func distinctValues(rows []*model.Instance, field string) []any {
	seen := map[any]bool{}
	var out []any
	for _, r := range rows {
		v := r.Get(field)
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func attach(l *link) {
	related := l.related
	if l.ownerIsRelated {
		// related's fk field -> this model: overwrite it with the
		// single matching row (last write wins, matching peewee's
		// id_map[key] = instance for the backref direction).
		idx := indexBy(l.rows, l.fk.RelField().Name())
		for _, r := range related.rows {
			key := r.Get(l.fk.Name())
			if inst, ok := idx[key]; ok {
				r.Attach(l.fk.Name(), inst)
			}
		}
		return
	}

	// this model's fk field -> related's model: each row gets a single
	// parent reference, the parent accumulates a list of children.
	idx := indexBy(related.rows, l.fk.RelField().Name())
	lists := map[*model.Instance][]*model.Instance{}
	for _, r := range l.rows {
		key := r.Get(l.fk.Name())
		parent, ok := idx[key]
		if !ok {
			continue
		}
		r.Attach(l.fk.Name(), parent)
		lists[parent] = append(lists[parent], r)
	}
	for parent, children := range lists {
		parent.Attach(l.fk.BackrefName(), children)
	}
}

func indexBy(rows []*model.Instance, field string) map[any]*model.Instance {
	idx := make(map[any]*model.Instance, len(rows))
	for _, r := range rows {
		idx[r.Get(field)] = r
	}
	return idx
}
