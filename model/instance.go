package model

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/dberrors"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/query"
)

// pkCondition builds pk = value as a bare-entity comparison rather
// than pk.Eq(value): UPDATE/DELETE render their target table under
// ScopeValues (an unaliased bare name), so a WHERE clause built from
// pk's own Column node would register a fresh, disconnected alias for
// the same table via the AliasManager instead of matching anything
// the statement actually defines. DBValue pre-converts the value since
// a bare Entity doesn't implement ast.Converting the way pk does.
func pkCondition(pk *Field, v any) (*ast.Expression, error) {
	dbVal, err := pk.DBValue(v)
	if err != nil {
		return nil, err
	}
	return ast.NewExpression(ast.NewEntity(pk.Column()), ast.OpEq, dbVal), nil
}

// Instance is a single row of a model, holding Go-side field values
// and which of them have been assigned since construction or the last
// Save. Go has no equivalent of peewee's per-class __slots__ instance
// dict, so values live in an explicit map keyed by field name.
type Instance struct {
	meta  *Metadata
	data  map[string]any
	dirty map[string]bool
}

// New builds an Instance with the model's defaults applied, then
// overlays values in order. Every field touched (by default or by
// values) starts dirty, matching peewee's Model(**kwargs) constructor.
func New(m *Metadata, values ...map[string]any) *Instance {
	inst := newBare(m)
	for _, f := range m.Fields() {
		if v, ok := f.resolveDefault(); ok {
			inst.data[f.name] = v
			inst.dirty[f.name] = true
		}
	}
	for _, vals := range values {
		for k, v := range vals {
			inst.Set(k, v)
		}
	}
	return inst
}

// newBare builds an empty, clean Instance with no defaults applied,
// the shape cursor.RowMaterializer needs when filling an instance from
// a driver row rather than from user-supplied values.
func newBare(m *Metadata) *Instance {
	return &Instance{meta: m, data: map[string]any{}, dirty: map[string]bool{}}
}

// Meta returns the instance's model metadata.
func (i *Instance) Meta() *Metadata { return i.meta }

// Get returns the current value of a field by name, or nil if unset.
func (i *Instance) Get(name string) any { return i.data[name] }

// Set assigns a field's value and marks it dirty.
func (i *Instance) Set(name string, v any) {
	i.data[name] = v
	i.dirty[name] = true
}

// setClean assigns a field's value without marking it dirty, used when
// populating an instance from a materialized row.
func (i *Instance) setClean(name string, v any) { i.data[name] = v }

// Attach records a related instance (or slice of instances) under
// name without marking it dirty, used by package prefetch to graft
// query results onto the rows they belong to.
func (i *Instance) Attach(name string, v any) { i.setClean(name, v) }

// IsDirty reports whether name has been assigned since the last Save.
func (i *Instance) IsDirty(name string) bool { return i.dirty[name] }

// ClearDirty resets the dirty set, as Save does on success.
func (i *Instance) ClearDirty() { i.dirty = map[string]bool{} }

// PrimaryKeyValue returns the instance's primary-key value, or nil if
// the model has no single-field primary key or it hasn't been set.
func (i *Instance) PrimaryKeyValue() any {
	pk := i.meta.PrimaryKeyField()
	if pk == nil {
		return nil
	}
	return i.data[pk.name]
}

func isZeroOrNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	default:
		return false
	}
}

// Save inserts a new row if the instance has no primary-key value (or
// forceInsert is true), otherwise updates the existing row by primary
// key, per spec.md §4.5's peewee-compatible save() semantics.
func (i *Instance) Save(ctx context.Context, sess *db.Session, forceInsert ...bool) error {
	force := len(forceInsert) > 0 && forceInsert[0]
	pk := i.meta.PrimaryKeyField()
	if force || pk == nil || isZeroOrNil(i.data[pk.name]) {
		return i.doInsert(ctx, sess)
	}
	return i.doUpdate(ctx, sess)
}

func (i *Instance) doInsert(ctx context.Context, sess *db.Session) error {
	pk := i.meta.PrimaryKeyField()

	var cols []string
	var vals []any
	for _, f := range i.meta.Fields() {
		v, ok := i.data[f.name]
		if f == pk && f.Kind() == dialect.FieldAuto && isZeroOrNil(v) {
			continue
		}
		if !ok {
			continue
		}
		dbVal, err := f.DBValue(v)
		if err != nil {
			return fmt.Errorf("model: %s.%s: %w", i.meta.Name, f.name, err)
		}
		cols = append(cols, f.Column())
		vals = append(vals, dbVal)
	}

	ins := query.InsertInto(i.meta.Table()).Columns(cols...).Values(vals...)
	useReturning := pk != nil && sess.DB().Dialect().SupportsReturning()
	if useReturning {
		// A bare entity, not pk itself: RETURNING renders outside the
		// INSERT's ScopeValues push, so a Field's table-bound Column
		// would register a disconnected alias the way doUpdate/Delete's
		// WHERE clause would (see pkCondition).
		ins = ins.Returning(ast.NewEntity(pk.Column()))
	}

	sqlText, params, err := ins.Build(sess.DB().Dialect())
	if err != nil {
		return err
	}

	if useReturning {
		row := sess.QueryRow(ctx, sqlText, params)
		var raw any
		if err := row.Scan(&raw); err != nil {
			return err
		}
		goVal, err := pk.PythonValue(raw)
		if err != nil {
			return err
		}
		i.data[pk.name] = goVal
	} else {
		res, err := sess.Exec(ctx, sqlText, params)
		if err != nil {
			return err
		}
		if pk != nil && isZeroOrNil(i.data[pk.name]) {
			id, idErr := res.LastInsertId()
			if idErr == nil {
				goVal, err := pk.PythonValue(id)
				if err != nil {
					return err
				}
				i.data[pk.name] = goVal
			}
		}
	}
	i.ClearDirty()
	return nil
}

func (i *Instance) doUpdate(ctx context.Context, sess *db.Session) error {
	pk := i.meta.PrimaryKeyField()
	if pk == nil {
		return fmt.Errorf("model: %s: cannot update a row without a primary key", i.meta.Name)
	}

	upd := query.UpdateTable(i.meta.Table())
	hasSet := false
	for _, f := range i.meta.Fields() {
		if f == pk {
			continue
		}
		if i.meta.OnlySaveDirty && !i.dirty[f.name] {
			continue
		}
		v, ok := i.data[f.name]
		if !ok {
			continue
		}
		dbVal, err := f.DBValue(v)
		if err != nil {
			return fmt.Errorf("model: %s.%s: %w", i.meta.Name, f.name, err)
		}
		upd = upd.Set(f.Column(), dbVal)
		hasSet = true
	}
	if !hasSet {
		return nil
	}
	cond, err := pkCondition(pk, i.data[pk.name])
	if err != nil {
		return err
	}
	upd = upd.Where(cond)

	sqlText, params, err := upd.Build(sess.DB().Dialect())
	if err != nil {
		return err
	}
	_, err = sess.Exec(ctx, sqlText, params)
	if err != nil {
		return err
	}
	i.ClearDirty()
	return nil
}

// Delete removes the instance's own row by primary key. It does not
// touch dependent rows; use DeleteInstance(recursive=true) for that.
func (i *Instance) Delete(ctx context.Context, sess *db.Session) error {
	pk := i.meta.PrimaryKeyField()
	if pk == nil {
		return fmt.Errorf("model: %s: cannot delete a row without a primary key", i.meta.Name)
	}
	cond, err := pkCondition(pk, i.data[pk.name])
	if err != nil {
		return err
	}
	del := query.DeleteFrom(i.meta.Table()).Where(cond)
	sqlText, params, err := del.Build(sess.DB().Dialect())
	if err != nil {
		return err
	}
	_, err = sess.Exec(ctx, sqlText, params)
	return err
}

// DeleteInstance deletes the instance, and when recursive is true
// first walks the backref graph: dependent rows whose foreign key is
// nullable get it nulled out, everything else is deleted depth-first,
// guarding against reference cycles the way peewee's
// Model.delete_instance(recursive=True) does.
func (i *Instance) DeleteInstance(ctx context.Context, sess *db.Session, recursive bool) error {
	if recursive {
		seen := map[*Metadata]bool{}
		if err := i.deleteDependents(ctx, sess, seen); err != nil {
			return err
		}
	}
	return i.Delete(ctx, sess)
}

func (i *Instance) deleteDependents(ctx context.Context, sess *db.Session, seen map[*Metadata]bool) error {
	if seen[i.meta] {
		return nil
	}
	seen[i.meta] = true
	defer delete(seen, i.meta)

	for owner, fields := range i.meta.modelBackrefs {
		for _, f := range fields {
			rows, err := SelectFrom(owner).Where(f.Eq(i.PrimaryKeyValue())).Find(ctx, sess)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if f.IsNull() {
					row.Set(f.Name(), nil)
					if err := row.Save(ctx, sess); err != nil {
						return err
					}
					continue
				}
				if err := row.deleteDependents(ctx, sess, seen); err != nil {
					return err
				}
				if err := row.Delete(ctx, sess); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Get fetches the single row matching conds, analogous to peewee's
// Model.get(*conds).
func Get(ctx context.Context, sess *db.Session, m *Metadata, conds ...any) (*Instance, error) {
	return SelectFrom(m).whereAll(conds...).One(ctx, sess)
}

// GetOrNone fetches the single row matching conds, returning (nil,
// nil) instead of a not-found error when none matches.
func GetOrNone(ctx context.Context, sess *db.Session, m *Metadata, conds ...any) (*Instance, error) {
	inst, err := Get(ctx, sess, m, conds...)
	if dberrors.IsDoesNotExist(err, m.Name) {
		return nil, nil
	}
	return inst, err
}

// GetOrCreate fetches the single row matching values, or creates and
// saves a new one from values if none exists, returning the instance
// and whether it was newly created.
func GetOrCreate(ctx context.Context, sess *db.Session, m *Metadata, values map[string]any) (*Instance, bool, error) {
	conds := make([]any, 0, len(values))
	for name, v := range values {
		f := m.Field(name)
		if f == nil {
			continue
		}
		conds = append(conds, f.Eq(v))
	}
	inst, err := GetOrNone(ctx, sess, m, conds...)
	if err != nil {
		return nil, false, err
	}
	if inst != nil {
		return inst, false, nil
	}
	inst = New(m, values)
	if err := inst.Save(ctx, sess); err != nil {
		return nil, false, err
	}
	return inst, true, nil
}
