package model

import (
	"context"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dberrors"
	"github.com/ha1tch/sqlkit/query"
	"github.com/ha1tch/sqlkit/render"
)

// modelJoin is one resolved join in a ModelSelect's chain.
type modelJoin struct {
	meta      *Metadata
	destAttr  string
	fk        *Field
	backref   bool
	condition render.Node
}

// ModelSelect is a model-aware SELECT: it tracks which models are
// joined into the query and in what order, so its RowMaterializer can
// split each flat driver row back into one Instance per model by
// position (see materializer.go's positional-correspondence design).
type ModelSelect struct {
	base      *Metadata
	joins     []*modelJoin
	joinedSet map[*Metadata]bool

	where    render.Node
	groupBy  []render.Node
	having   render.Node
	orderBy  []render.Node
	limit    *int
	offset   *int
	distinct bool
}

// SelectFrom starts a query over m, automatically joining any foreign
// key field m declared with WithEagerLoad() (SPEC_FULL §9's
// lazy_load=false override).
func SelectFrom(m *Metadata) *ModelSelect {
	ms := &ModelSelect{base: m, joinedSet: map[*Metadata]bool{m: true}}
	for _, f := range m.Fields() {
		if f.IsForeignKey() && f.EagerLoad() && f.RelModel() != nil {
			ms = ms.Join(f)
		}
	}
	return ms
}

func (ms *ModelSelect) clone() *ModelSelect {
	c := *ms
	c.joins = append([]*modelJoin{}, ms.joins...)
	c.joinedSet = make(map[*Metadata]bool, len(ms.joinedSet))
	for k, v := range ms.joinedSet {
		c.joinedSet[k] = v
	}
	return &c
}

// Meta returns the query's base model, the one package prefetch
// relates each subsequent subquery against.
func (ms *ModelSelect) Meta() *Metadata { return ms.base }

// Join adds the relation mediated by foreign key field f to the
// query. f may belong to a model already in the chain (the forward
// direction: the new model is the one f.RelModel() points at) or to
// the model being newly joined, owning an FK back into the chain (the
// backref direction).
func (ms *ModelSelect) Join(f *Field) *ModelSelect {
	c := ms.clone()
	var mj *modelJoin
	switch {
	case f.Meta() != nil && ms.joinedSet[f.Meta()] && f.RelModel() != nil:
		target := f.RelModel()
		mj = &modelJoin{
			meta:      target,
			destAttr:  f.Name(),
			fk:        f,
			condition: ast.NewExpression(f, ast.OpEq, f.RelField()),
		}
	case f.RelModel() != nil && ms.joinedSet[f.RelModel()]:
		mj = &modelJoin{
			meta:      f.Meta(),
			destAttr:  f.BackrefName(),
			fk:        f,
			backref:   true,
			condition: ast.NewExpression(f, ast.OpEq, f.RelField()),
		}
	default:
		mj = &modelJoin{meta: f.Meta(), destAttr: f.Name(), fk: f}
	}
	c.joins = append(c.joins, mj)
	c.joinedSet[mj.meta] = true
	return c
}

// JoinModel joins target by resolving the single foreign key relating
// it to the base model, per spec.md §4.7's join resolver. toField
// narrows an ambiguous relation to a specific target field.
func (ms *ModelSelect) JoinModel(target *Metadata, toField ...*Field) (*ModelSelect, error) {
	var tf *Field
	if len(toField) > 0 {
		tf = toField[0]
	}
	rj, err := resolveJoin(ms.base, target, tf)
	if err != nil {
		return nil, err
	}
	c := ms.clone()
	c.joins = append(c.joins, &modelJoin{
		meta:      target,
		destAttr:  rj.destAttr,
		fk:        rj.fk,
		backref:   rj.backref,
		condition: rj.condition,
	})
	c.joinedSet[target] = true
	return c, nil
}

// Where ANDs expr onto the query's predicate.
func (ms *ModelSelect) Where(expr render.Node) *ModelSelect {
	c := ms.clone()
	if c.where == nil {
		c.where = expr
	} else {
		c.where = ast.NewExpression(c.where, ast.OpAnd, expr)
	}
	return c
}

func (ms *ModelSelect) whereAll(conds ...any) *ModelSelect {
	c := ms
	for _, cond := range conds {
		if node, ok := cond.(render.Node); ok {
			c = c.Where(node)
		}
	}
	return c
}

// GroupBy sets the GROUP BY list.
func (ms *ModelSelect) GroupBy(cols ...render.Node) *ModelSelect {
	c := ms.clone()
	c.groupBy = cols
	return c
}

// Having sets the HAVING predicate.
func (ms *ModelSelect) Having(expr render.Node) *ModelSelect {
	c := ms.clone()
	c.having = expr
	return c
}

// OrderBy sets the ORDER BY list.
func (ms *ModelSelect) OrderBy(nodes ...render.Node) *ModelSelect {
	c := ms.clone()
	c.orderBy = nodes
	return c
}

// Limit sets LIMIT n.
func (ms *ModelSelect) Limit(n int) *ModelSelect {
	c := ms.clone()
	c.limit = &n
	return c
}

// Offset sets OFFSET n.
func (ms *ModelSelect) Offset(n int) *ModelSelect {
	c := ms.clone()
	c.offset = &n
	return c
}

// Distinct marks the SELECT DISTINCT.
func (ms *ModelSelect) Distinct() *ModelSelect {
	c := ms.clone()
	c.distinct = true
	return c
}

func fieldsAsNodes(m *Metadata) []render.Node {
	fs := m.Fields()
	nodes := make([]render.Node, len(fs))
	for i, f := range fs {
		nodes[i] = f
	}
	return nodes
}

func (ms *ModelSelect) planEntries() []planEntry {
	entries := []planEntry{{meta: ms.base}}
	for _, j := range ms.joins {
		entries = append(entries, planEntry{meta: j.meta, destAttr: j.destAttr})
	}
	return entries
}

func (ms *ModelSelect) projection() []render.Node {
	cols := fieldsAsNodes(ms.base)
	for _, j := range ms.joins {
		cols = append(cols, fieldsAsNodes(j.meta)...)
	}
	return cols
}

// toSelect builds the underlying query.Select, always in terms of the
// model's canonical table pointers (asColumn's no-self-join design).
func (ms *ModelSelect) toSelect() *query.Select {
	sel := query.NewSelect(ms.projection()...)
	var from render.Source = ms.base.Table()
	for _, j := range ms.joins {
		from = ast.NewJoin(from, j.meta.Table(), ast.JoinLeftOuter, j.condition)
	}
	sel = sel.From(from)
	if ms.distinct {
		sel = sel.Distinct()
	}
	if ms.where != nil {
		sel = sel.Where(ms.where)
	}
	if len(ms.groupBy) > 0 {
		sel = sel.GroupBy(ms.groupBy...)
	}
	if ms.having != nil {
		sel = sel.Having(ms.having)
	}
	if len(ms.orderBy) > 0 {
		sel = sel.OrderBy(ms.orderBy...)
	}
	if ms.limit != nil {
		sel = sel.Limit(*ms.limit)
	}
	if ms.offset != nil {
		sel = sel.Offset(*ms.offset)
	}
	return sel
}

// Find executes the query and materializes every matching row.
func (ms *ModelSelect) Find(ctx context.Context, sess *db.Session) ([]*Instance, error) {
	sel := ms.toSelect()
	sqlText, params, err := sel.Build(sess.DB().Dialect())
	if err != nil {
		return nil, err
	}
	jm := &JoinMaterializer{plan: ms.planEntries()}
	wrapper, err := sess.QueryModel(ctx, sqlText, params, jm)
	if err != nil {
		return nil, err
	}
	defer wrapper.Close()

	if err := wrapper.FillCache(0); err != nil {
		return nil, err
	}
	n, err := wrapper.Len()
	if err != nil {
		return nil, err
	}
	out := make([]*Instance, 0, n)
	for i := 0; i < n; i++ {
		row, err := wrapper.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, row.(*Instance))
	}
	return out, nil
}

// One returns the single row matching the query, or a
// dberrors.DoesNotExistError named for the base model.
func (ms *ModelSelect) One(ctx context.Context, sess *db.Session) (*Instance, error) {
	rows, err := ms.Limit(1).Find(ctx, sess)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, dberrors.NewDoesNotExist(ms.base.Name)
	}
	return rows[0], nil
}

// Count runs SELECT COUNT(*) over the query's FROM/WHERE, discarding
// its projection, ordering and limit/offset.
func (ms *ModelSelect) Count(ctx context.Context, sess *db.Session) (int64, error) {
	c := ms.clone()
	c.orderBy = nil
	c.limit = nil
	c.offset = nil
	sel := query.NewSelect(ast.NewFunction("COUNT", ast.Raw("*")))
	var from render.Source = c.base.Table()
	for _, j := range c.joins {
		from = ast.NewJoin(from, j.meta.Table(), ast.JoinLeftOuter, j.condition)
	}
	sel = sel.From(from)
	if c.where != nil {
		sel = sel.Where(c.where)
	}
	sqlText, params, err := sel.Build(sess.DB().Dialect())
	if err != nil {
		return 0, err
	}
	row := sess.QueryRow(ctx, sqlText, params)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
