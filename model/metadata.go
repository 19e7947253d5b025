package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/render"
)

// CompositeKey names the fields making up a model's composite primary
// key, in declaration order (spec.md §3's "CompositeKey (tuple of
// names)").
type CompositeKey []string

type noPrimaryKey struct{}

// NoPrimaryKey disables automatic primary-key inference for a model
// declared with Options.PrimaryKey set to it (e.g. a pure join table
// keyed entirely by its own composite unique index).
var NoPrimaryKey = noPrimaryKey{}

// IndexDecl declares an index: either an explicit column list (plus
// whether it's unique), or a raw SQL node for cases the column-list
// shape can't express.
type IndexDecl struct {
	Columns []string
	Unique  bool
	SQL     render.Node
}

// Options carries the per-model Meta configuration of spec.md §6.
type Options struct {
	Database      *db.DB
	TableName     string
	TableFunction func() string
	// PrimaryKey is nil (infer from field markers, auto-adding an
	// "id" AutoField if none are marked), a CompositeKey, a *Field, or
	// NoPrimaryKey.
	PrimaryKey    any
	Indexes       []IndexDecl
	Constraints   []render.Node
	Schema        string
	OnlySaveDirty bool
	DependsOn     []*Metadata
	WithoutRowID  bool
	Options       map[string]string
}

// Metadata is the per-model record described by spec.md §3: field
// ordering, the reference/backreference graph, primary/composite
// keys, and DDL-relevant options.
type Metadata struct {
	Name      string
	TableName string
	Schema    string

	fields        []*Field
	fieldsByName  map[string]*Field
	columnsByName map[string]*Field

	primaryKey   *Field
	compositeKey CompositeKey
	noPrimaryKey bool

	refs          map[*Field]*Metadata
	modelRefs     map[*Metadata][]*Field
	backrefs      map[*Field]*Metadata
	modelBackrefs map[*Metadata][]*Field

	Indexes       []IndexDecl
	Constraints   []render.Node
	DependsOn     []*Metadata
	OnlySaveDirty bool
	WithoutRowID  bool
	TableOptions  map[string]string

	Database      *db.DB
	TableFunction func() string

	table *ast.Table
}

var (
	registryMu      sync.Mutex
	modelsByName    = map[string]*Metadata{}
	deferredPending = map[string][]*deferredLink{}
	declCounter     int
)

type deferredLink struct {
	field *Field
	owner *Metadata
}

func nextDeclOrder() int {
	declCounter++
	return declCounter
}

// Define assembles a model's Metadata from an explicit, ordered field
// list. Go has no equivalent to Python's class-body introspection, so
// declaration order is carried by passing fields as an ordered slice
// rather than relying on struct-tag reflection (no pack example uses
// a struct-tag ORM declaration style; this keeps the field list a
// first-class, explicit value like the rest of the query builders).
//
// Define panics on malformed input (duplicate field names, conflicting
// primary-key markers): these are programming errors caught at
// process-init time, the Go analogue of the original's metaclass
// raising during class construction.
func Define(name string, opts Options, fields ...*Field) *Metadata {
	m := &Metadata{
		Name:          strings.ToLower(name),
		Schema:        opts.Schema,
		Indexes:       opts.Indexes,
		Constraints:   opts.Constraints,
		DependsOn:     opts.DependsOn,
		OnlySaveDirty: opts.OnlySaveDirty,
		WithoutRowID:  opts.WithoutRowID,
		TableOptions:  opts.Options,
		Database:      opts.Database,
		TableFunction: opts.TableFunction,
		fieldsByName:  map[string]*Field{},
		columnsByName: map[string]*Field{},
	}
	m.TableName = opts.TableName
	if m.TableName == "" {
		if opts.TableFunction != nil {
			m.TableName = opts.TableFunction()
		} else {
			m.TableName = m.Name
		}
	}
	if m.Schema != "" {
		m.table = ast.NewTable(m.TableName).WithSchema(m.Schema)
	} else {
		m.table = ast.NewTable(m.TableName)
	}

	for _, f := range fields {
		if _, dup := m.fieldsByName[f.name]; dup {
			panic(fmt.Sprintf("model: %s: duplicate field name %q", name, f.name))
		}
		f.meta = m
		f.declOrder = nextDeclOrder()
		m.fields = append(m.fields, f)
		m.fieldsByName[f.name] = f
		m.columnsByName[f.column] = f
	}

	m.resolvePrimaryKey(opts.PrimaryKey)
	m.sortFields()

	for _, f := range m.fields {
		if f.relModel != nil {
			wireForeignKey(m, f, f.relModel)
		} else if f.deferredName != "" {
			registryMu.Lock()
			key := strings.ToLower(f.deferredName)
			deferredPending[key] = append(deferredPending[key], &deferredLink{field: f, owner: m})
			registryMu.Unlock()
		}
	}

	registryMu.Lock()
	modelsByName[m.Name] = m
	pending := deferredPending[m.Name]
	delete(deferredPending, m.Name)
	registryMu.Unlock()

	for _, link := range pending {
		link.field.relModel = m
		wireForeignKey(link.owner, link.field, m)
	}

	return m
}

func (m *Metadata) resolvePrimaryKey(decl any) {
	var explicit []*Field
	for _, f := range m.fields {
		if f.IsPrimaryKey() {
			explicit = append(explicit, f)
		}
	}

	switch v := decl.(type) {
	case noPrimaryKey:
		if len(explicit) > 0 {
			panic(fmt.Sprintf("model: %s: NoPrimaryKey conflicts with an explicit primary-key field", m.Name))
		}
		m.noPrimaryKey = true
		return
	case CompositeKey:
		if len(explicit) > 0 {
			panic(fmt.Sprintf("model: %s: CompositeKey conflicts with an explicit primary-key field", m.Name))
		}
		for _, fname := range v {
			if _, ok := m.fieldsByName[fname]; !ok {
				panic(fmt.Sprintf("model: %s: CompositeKey names unknown field %q", m.Name, fname))
			}
		}
		m.compositeKey = v
		return
	case *Field:
		if v.meta != m {
			panic(fmt.Sprintf("model: %s: PrimaryKey field %q does not belong to this model", m.Name, v.name))
		}
		if len(explicit) > 1 || (len(explicit) == 1 && explicit[0] != v) {
			panic(fmt.Sprintf("model: %s: conflicting primary-key declarations", m.Name))
		}
		v.primaryKey = true
		m.primaryKey = v
		return
	}

	switch len(explicit) {
	case 0:
		id := Auto("id")
		id.meta = m
		id.declOrder = nextDeclOrder()
		m.fields = append([]*Field{id}, m.fields...)
		m.fieldsByName["id"] = id
		m.columnsByName["id"] = id
		m.primaryKey = id
	case 1:
		m.primaryKey = explicit[0]
	default:
		panic(fmt.Sprintf("model: %s: multiple primary_key fields declared", m.Name))
	}
}

func (m *Metadata) sortFields() {
	sort.SliceStable(m.fields, func(i, j int) bool {
		pi, pj := 1, 1
		if m.fields[i] == m.primaryKey {
			pi = 0
		}
		if m.fields[j] == m.primaryKey {
			pj = 0
		}
		if pi != pj {
			return pi < pj
		}
		return m.fields[i].declOrder < m.fields[j].declOrder
	})
}

func wireForeignKey(owner *Metadata, f *Field, target *Metadata) {
	if owner.refs == nil {
		owner.refs = map[*Field]*Metadata{}
	}
	owner.refs[f] = target
	if owner.modelRefs == nil {
		owner.modelRefs = map[*Metadata][]*Field{}
	}
	owner.modelRefs[target] = append(owner.modelRefs[target], f)

	if target.backrefs == nil {
		target.backrefs = map[*Field]*Metadata{}
	}
	target.backrefs[f] = owner
	if target.modelBackrefs == nil {
		target.modelBackrefs = map[*Metadata][]*Field{}
	}
	target.modelBackrefs[owner] = append(target.modelBackrefs[owner], f)
}

// Table returns the model's canonical, unaliased FROM source.
func (m *Metadata) Table() *ast.Table { return m.table }

// Field looks up a field by its attribute name.
func (m *Metadata) Field(name string) *Field { return m.fieldsByName[name] }

// ColumnField looks up a field by its database column name.
func (m *Metadata) ColumnField(column string) *Field { return m.columnsByName[column] }

// Fields returns the model's fields in sorted order (primary key
// first, then declaration order).
func (m *Metadata) Fields() []*Field {
	out := make([]*Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// PrimaryKeyField returns the single primary-key field, or nil if the
// model uses a composite key or has none.
func (m *Metadata) PrimaryKeyField() *Field { return m.primaryKey }

// IsCompositeKey reports whether the model's primary key spans
// multiple fields.
func (m *Metadata) IsCompositeKey() bool { return len(m.compositeKey) > 0 }

// CompositeKeyFields resolves the composite key's field names to
// Fields, in declared order.
func (m *Metadata) CompositeKeyFields() []*Field {
	out := make([]*Field, len(m.compositeKey))
	for i, name := range m.compositeKey {
		out[i] = m.fieldsByName[name]
	}
	return out
}

// HasPrimaryKey reports whether the model has any primary key at all
// (single or composite).
func (m *Metadata) HasPrimaryKey() bool {
	return !m.noPrimaryKey && (m.primaryKey != nil || len(m.compositeKey) > 0)
}

// ForeignKeysTo returns the fields this model owns that reference
// target, the "forward" direction of the refs/model_refs index.
func (m *Metadata) ForeignKeysTo(target *Metadata) []*Field {
	return m.modelRefs[target]
}

// BackreferencesFrom returns the fields owner owns that reference
// this model, the "backref" direction of the model_backrefs index.
func (m *Metadata) BackreferencesFrom(owner *Metadata) []*Field {
	return m.modelBackrefs[owner]
}

// LookupModel resolves a previously Define'd model by its
// (case-insensitive) name, for turning a DeferredForeignKey's target
// name into a Metadata outside the automatic resolution path.
func LookupModel(name string) (*Metadata, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	m, ok := modelsByName[strings.ToLower(name)]
	return m, ok
}
