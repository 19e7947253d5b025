package model

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/dialect"
	"github.com/ha1tch/sqlkit/render"
)

// Field is one column of a model: its storage kind, Go<->DB value
// conversion, and (for foreign keys) the relation it describes.
// Fields implement render.Node so they can appear directly as query
// operands (User.Name.Eq("ada")) and ast.Converting so an Expression
// with a Field on the left converts its right-hand operand through
// the field's db-side encoding, per spec.md §4.2's converter
// injection rule.
type Field struct {
	name      string
	column    string
	kind      dialect.FieldKind
	mods      []int
	meta      *Metadata
	declOrder int

	primaryKey bool
	null       bool
	unique     bool
	index      bool
	defaultVal any
	defaultFn  func() any

	toDB func(any) (any, error)
	toGo func(any) (any, error)

	// Foreign key fields only.
	relModel     *Metadata
	relFieldName string
	backref      string
	onDelete     string
	onUpdate     string
	deferredName string
	eagerLoad    bool

	// ManyToMany fields only.
	m2mTarget  *Metadata
	m2mThrough *Metadata
}

func newField(name string, kind dialect.FieldKind, mods ...int) *Field {
	return &Field{name: name, column: name, kind: kind, mods: mods}
}

// Name returns the field's attribute name.
func (f *Field) Name() string { return f.name }

// Column returns the field's database column name.
func (f *Field) Column() string { return f.column }

// Meta returns the owning model's metadata, set once by Define.
func (f *Field) Meta() *Metadata { return f.meta }

// Kind returns the field's logical storage type.
func (f *Field) Kind() dialect.FieldKind { return f.kind }

// Mods returns the field's type modifiers (length, precision, ...).
func (f *Field) Mods() []int { return f.mods }

// DeclOrder returns the field's global declaration-order counter, used
// to break ties in the model's sorted field list per spec.md §3.
func (f *Field) DeclOrder() int { return f.declOrder }

// IsPrimaryKey reports whether this field is the model's primary key.
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }

// AsPrimaryKey marks the field as the model's (single) primary key.
func (f *Field) AsPrimaryKey() *Field { f.primaryKey = true; return f }

// Null allows the field to hold SQL NULL.
func (f *Field) Null() *Field { f.null = true; return f }

// IsNull reports whether the field allows NULL.
func (f *Field) IsNull() bool { return f.null }

// AsUnique marks the field with an implicit unique index (SPEC_FULL
// §9 supplemented feature: Field Unique/Index booleans).
func (f *Field) AsUnique() *Field { f.unique = true; return f }

// IsUnique reports the implicit-unique-index flag.
func (f *Field) IsUnique() bool { return f.unique }

// AsIndexed marks the field with an implicit (non-unique) index.
func (f *Field) AsIndexed() *Field { f.index = true; return f }

// IsIndexed reports the implicit-index flag.
func (f *Field) IsIndexed() bool { return f.index }

// WithColumn overrides the database column name (defaults to Name).
func (f *Field) WithColumn(column string) *Field { f.column = column; return f }

// WithDefault sets a scalar default applied, by value, at
// instantiation time.
func (f *Field) WithDefault(v any) *Field { f.defaultVal = v; return f }

// WithDefaultFunc sets a callable default invoked once per instance.
func (f *Field) WithDefaultFunc(fn func() any) *Field { f.defaultFn = fn; return f }

func (f *Field) resolveDefault() (any, bool) {
	if f.defaultFn != nil {
		return f.defaultFn(), true
	}
	if f.defaultVal != nil {
		return f.defaultVal, true
	}
	return nil, false
}

// DBValue converts a Go value to its database representation.
func (f *Field) DBValue(v any) (any, error) {
	if v == nil || f.toDB == nil {
		return v, nil
	}
	return f.toDB(v)
}

// PythonValue converts a database value back to its Go representation,
// named to match spec.md's python_value terminology.
func (f *Field) PythonValue(v any) (any, error) {
	if v == nil || f.toGo == nil {
		return v, nil
	}
	return f.toGo(v)
}

// DBConverter implements ast.Converting: an Expression with this field
// on the left converts its right-hand operand through DBValue.
func (f *Field) DBConverter() render.Converter {
	return func(v any) (any, error) { return f.DBValue(v) }
}

// asColumn builds the Column node used to render this field, always
// rooted at the model's own canonical table rather than any
// per-query aliased source — see DESIGN.md's self-join open question.
func (f *Field) asColumn() *ast.Column {
	if f.meta == nil {
		return ast.NewColumn(nil, f.column)
	}
	return ast.NewColumn(f.meta.table, f.column)
}

// Render implements render.Node, letting a Field appear directly as a
// query operand.
func (f *Field) Render(ctx *render.Context) error {
	return f.asColumn().Render(ctx)
}

// Comparison helpers build an Expression with this field as the LHS.
func (f *Field) Eq(v any) *ast.Expression    { return ast.NewExpression(f, ast.OpEq, v) }
func (f *Field) NotEq(v any) *ast.Expression { return ast.NewExpression(f, ast.OpNotEq, v) }
func (f *Field) LT(v any) *ast.Expression    { return ast.NewExpression(f, ast.OpLT, v) }
func (f *Field) LTE(v any) *ast.Expression   { return ast.NewExpression(f, ast.OpLTE, v) }
func (f *Field) GT(v any) *ast.Expression    { return ast.NewExpression(f, ast.OpGT, v) }
func (f *Field) GTE(v any) *ast.Expression   { return ast.NewExpression(f, ast.OpGTE, v) }
func (f *Field) Like(v any) *ast.Expression  { return ast.NewExpression(f, ast.OpLike, v) }

// In renders "field IN (v1, v2, ...)", degenerating to 0=1 when vals
// is empty, per ast.Expression's own empty-multi-value rule.
func (f *Field) In(vals any) *ast.Expression {
	return ast.NewExpression(f, ast.OpIn, ast.NewValues(vals))
}

// NotIn renders "field NOT IN (v1, v2, ...)".
func (f *Field) NotIn(vals any) *ast.Expression {
	return ast.NewExpression(f, ast.OpNotIn, ast.NewValues(vals))
}

// Asc/Desc wrap the field for ORDER BY.
func (f *Field) Asc() *ast.Ordering  { return ast.Asc(f) }
func (f *Field) Desc() *ast.Ordering { return ast.Desc(f) }

// RelModel returns the target model for a foreign key field.
func (f *Field) RelModel() *Metadata { return f.relModel }

// RelField returns the target field a foreign key points at,
// defaulting to the target model's primary key.
func (f *Field) RelField() *Field {
	if f.relModel == nil {
		return nil
	}
	if f.relFieldName == "" {
		return f.relModel.PrimaryKeyField()
	}
	return f.relModel.Field(f.relFieldName)
}

// BackrefName returns the attribute name the referenced model exposes
// its matching rows under, defaulting to "<owner model name>_set"
// (original_source/peewee.py's ForeignKeyField default backref).
func (f *Field) BackrefName() string {
	if f.backref != "" {
		return f.backref
	}
	if f.meta == nil {
		return ""
	}
	return f.meta.Name + "_set"
}

// IsForeignKey reports whether this field describes a relation
// (resolved or still pending on a DeferredForeignKey).
func (f *Field) IsForeignKey() bool { return f.relModel != nil || f.deferredName != "" }

// OnDelete/OnUpdate report the configured referential actions.
func (f *Field) OnDelete() string { return f.onDelete }
func (f *Field) OnUpdate() string { return f.onUpdate }

// EagerLoad reports the SPEC_FULL §9 ForeignKeyField.lazy_load=false
// override: SelectFrom always joins this relation into the default
// projection instead of leaving it to a lazy follow-up query.
func (f *Field) EagerLoad() bool { return f.eagerLoad }

// ManyToManyTarget/ManyToManyThrough return the related/join models
// for a ManyToMany field.
func (f *Field) ManyToManyTarget() *Metadata  { return f.m2mTarget }
func (f *Field) ManyToManyThrough() *Metadata { return f.m2mThrough }

// FKOption configures a ForeignKey/DeferredForeignKey field.
type FKOption func(*Field)

// WithRelField narrows the FK's target to a specific field instead of
// the target model's primary key.
func WithRelField(name string) FKOption { return func(f *Field) { f.relFieldName = name } }

// WithBackref overrides the default "<model>_set" backref name.
func WithBackref(name string) FKOption { return func(f *Field) { f.backref = name } }

// WithOnDelete sets the ON DELETE referential action.
func WithOnDelete(action string) FKOption { return func(f *Field) { f.onDelete = action } }

// WithOnUpdate sets the ON UPDATE referential action.
func WithOnUpdate(action string) FKOption { return func(f *Field) { f.onUpdate = action } }

// WithEagerLoad requests that SelectFrom always include this relation
// in the default projection (SPEC_FULL §9's lazy_load=false).
func WithEagerLoad() FKOption { return func(f *Field) { f.eagerLoad = true } }

// Typed field constructors, mirroring spec.md §6's declaration
// surface. These are package-level (not methods on Metadata) since a
// Field must exist before it is attached to a model via Define/F.

func Integer(name string) *Field    { return newField(name, dialect.FieldInteger) }
func BigInteger(name string) *Field { return newField(name, dialect.FieldBigInteger) }
func Float(name string) *Field      { return newField(name, dialect.FieldFloat) }
func Double(name string) *Field     { return newField(name, dialect.FieldDouble) }

// Decimal builds a DecimalField backed by shopspring/decimal.
// autoRound, when true, rounds incoming values to decimalPlaces with
// banker's rounding (RoundBank); the rounding argument is not applied.
// When autoRound is false, values are passed through with whatever
// precision they carry.
func Decimal(name string, maxDigits, decimalPlaces int, autoRound bool, rounding decimal.RoundingMode) *Field {
	f := newField(name, dialect.FieldDecimal, maxDigits, decimalPlaces)
	f.toDB = func(v any) (any, error) {
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		if autoRound {
			d = d.RoundBank(int32(decimalPlaces))
		}
		return d, nil
	}
	f.toGo = func(v any) (any, error) { return toDecimal(v) }
	return f
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(t)
	case float64:
		return decimal.NewFromFloat(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("model: cannot convert %T to decimal", v)
	}
}

func Char(name string, maxLen int) *Field     { return newField(name, dialect.FieldChar, maxLen) }
func FixedChar(name string, length int) *Field { return newField(name, dialect.FieldFixedChar, length) }
func Text(name string) *Field                 { return newField(name, dialect.FieldText) }
func Blob(name string) *Field                 { return newField(name, dialect.FieldBlob) }

func Bool(name string) *Field {
	return newField(name, dialect.FieldBool)
}

// UUID builds a UUIDField backed by google/uuid, stored as its
// canonical 36-character string form.
func UUID(name string) *Field {
	f := newField(name, dialect.FieldUUID)
	f.toDB = func(v any) (any, error) {
		switch t := v.(type) {
		case uuid.UUID:
			return t.String(), nil
		case string:
			return t, nil
		default:
			return nil, fmt.Errorf("model: cannot convert %T to uuid", v)
		}
	}
	f.toGo = func(v any) (any, error) {
		switch t := v.(type) {
		case string:
			return uuid.Parse(t)
		case []byte:
			return uuid.Parse(string(t))
		default:
			return nil, fmt.Errorf("model: cannot convert %T to uuid", v)
		}
	}
	return f
}

func Date(name string) *Field     { return newField(name, dialect.FieldDate) }
func DateTime(name string) *Field { return newField(name, dialect.FieldDateTime) }
func Time(name string) *Field     { return newField(name, dialect.FieldTime) }

// Timestamp builds a field storing time.Time as an integer tick count
// since the epoch at the given resolution (1 = seconds, 10^6 =
// microseconds per spec.md §6). utc toggles UTC vs. local-time
// conversion.
func Timestamp(name string, resolution int64, utc bool) *Field {
	f := newField(name, dialect.FieldTimestamp, int(resolution))
	f.toDB = func(v any) (any, error) {
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("model: cannot convert %T to timestamp", v)
		}
		if utc {
			t = t.UTC()
		}
		return t.Unix()*resolution + int64(t.Nanosecond())/(int64(time.Second)/resolution), nil
	}
	f.toGo = func(v any) (any, error) {
		ticks, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		t := time.Unix(ticks/resolution, (ticks%resolution)*(int64(time.Second)/resolution))
		if utc {
			return t.UTC(), nil
		}
		return t.Local(), nil
	}
	return f
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("model: cannot convert %T to int64", v)
	}
}

// IP builds a field storing a net.IP as a 32-bit big-endian integer
// (spec.md §6's IPField external format).
func IP(name string) *Field {
	f := newField(name, dialect.FieldIP)
	f.toDB = func(v any) (any, error) {
		ip, ok := v.(net.IP)
		if !ok {
			parsed := net.ParseIP(fmt.Sprint(v))
			if parsed == nil {
				return nil, fmt.Errorf("model: cannot convert %v to IP", v)
			}
			ip = parsed
		}
		v4 := ip.To4()
		if v4 == nil {
			return nil, fmt.Errorf("model: IPField only supports IPv4")
		}
		return int64(binary.BigEndian.Uint32(v4)), nil
	}
	f.toGo = func(v any) (any, error) {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(n))
		return net.IP(buf), nil
	}
	return f
}

// Bare declares a field with no type-specific conversion; values pass
// through DBValue/PythonValue unchanged.
func Bare(name string) *Field { return newField(name, dialect.FieldBare) }

// Auto declares an auto-incrementing primary key field (AutoField).
func Auto(name string) *Field {
	f := newField(name, dialect.FieldAuto)
	return f.AsPrimaryKey()
}

// ForeignKey declares a field referencing target's primary key (or
// the field named via WithRelField).
func ForeignKey(name string, target *Metadata, opts ...FKOption) *Field {
	f := newField(name, dialect.FieldInteger)
	f.relModel = target
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DeferredForeignKey declares a field referencing a model that has not
// been defined yet, named by targetName (case-insensitive). It is
// resolved automatically the moment a model named targetName calls
// Define, per spec.md §3's deferred-FK invariant.
func DeferredForeignKey(name string, targetName string, opts ...FKOption) *Field {
	f := newField(name, dialect.FieldInteger)
	f.deferredName = targetName
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ManyToMany declares a field describing a many-to-many relation to
// rel, materialized through the join model through.
func ManyToMany(name string, rel *Metadata, through *Metadata) *Field {
	f := newField(name, dialect.FieldBare)
	f.m2mTarget = rel
	f.m2mThrough = through
	return f
}
