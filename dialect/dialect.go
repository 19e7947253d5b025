// Package dialect describes vendor-specific SQL rendering rules and
// feature flags, directly generalizing the teacher's SQLDialect
// interface (storage/dialects.go) from "describe this for a code
// generator" into "render this SQL fragment".
package dialect

import (
	"github.com/ha1tch/sqlkit/render"
)

// The ast package is imported by the concrete dialect implementations
// (sqlite.go, postgres.go, mysql.go) to build ExtractDate/TruncateDate
// function-call fragments; it is intentionally not imported here so
// this file stays the pure interface/contract definition.

// FieldKind names a field's logical storage type, independent of any
// one dialect's concrete column type.
type FieldKind int

const (
	FieldInteger FieldKind = iota
	FieldBigInteger
	FieldFloat
	FieldDouble
	FieldDecimal
	FieldChar
	FieldFixedChar
	FieldText
	FieldBlob
	FieldBool
	FieldUUID
	FieldDate
	FieldDateTime
	FieldTime
	FieldTimestamp
	FieldIP
	FieldBare
	FieldAuto
)

// ConflictAction names the behavior requested for an INSERT conflict.
type ConflictAction int

const (
	ConflictIgnore ConflictAction = iota
	ConflictReplace
	ConflictUpdateAction
	ConflictNothing
)

// OnConflict carries the full conflict-resolution request; dialects
// decide which fields are legal for their syntax.
type OnConflict struct {
	Action     ConflictAction
	Update     map[string]render.Node
	Preserve   []string
	Where      render.Node
	Target     []string
	Constraint string
}

// Dialect is a set of vendor-specific rendering rules and feature
// flags, per spec.md §4.5.
type Dialect interface {
	Name() string

	ParamMarker(n int) string
	QuoteChar() byte
	Operations() map[render.Op]string

	CommitSelect() bool
	CompoundSelectParens() bool
	SupportsForUpdate() bool
	// LimitMax returns the dialect's maximum LIMIT value used to make
	// a bare OFFSET legal, or 0 if the dialect needs no such trick.
	LimitMax() int
	SupportsReturning() bool
	SafeCreateIndex() bool
	SafeDropIndex() bool
	SupportsSequences() bool

	FieldType(kind FieldKind, mods ...int) string

	// ConflictStatement replaces the INSERT keyword outright (SQLite's
	// "INSERT OR <ACTION>", MySQL's "REPLACE"/"INSERT IGNORE"). ok is
	// false when the dialect instead needs ConflictUpdate.
	ConflictStatement(oc *OnConflict) (stmt string, ok bool, err error)
	// ConflictUpdate renders a trailing ON CONFLICT/ON DUPLICATE KEY
	// clause. Returns nil, nil when the dialect has nothing to append
	// (i.e. ConflictStatement already handled it).
	ConflictUpdate(oc *OnConflict) (render.Node, error)

	DefaultValuesInsert() string
	LastInsertIDExpr() string
	ExtractDate(part string, node render.Node) render.Node
	TruncateDate(part string, node render.Node) render.Node
	NoopSelect() string

	TablesQuery() string
	ColumnsQuery() string
	IndexesQuery() string
	PrimaryKeyQuery() string
	ForeignKeysQuery() string
	SequencesQuery() string
}

// NewSettings builds render.Settings from a Dialect so the render
// package never needs to know about Dialect itself.
func NewSettings(d Dialect) *render.Settings {
	return &render.Settings{
		ParamMarker: d.ParamMarker,
		QuoteChar:   d.QuoteChar(),
		Operations:  d.Operations(),
		LimitMax:    d.LimitMax(),
		ForUpdate:   d.SupportsForUpdate(),

		CompoundSelectParens: d.CompoundSelectParens(),
	}
}

// NewContext starts a fresh render.Context under d's settings.
func NewContext(d Dialect) *render.Context {
	return render.NewContext(NewSettings(d))
}

// ErrNoTarget is returned when a dialect requires a conflict target
// (Postgres UPDATE) that was not supplied.
type ErrNoTarget struct{ Dialect string }

func (e *ErrNoTarget) Error() string {
	return e.Dialect + ": ON CONFLICT target columns or constraint required for UPDATE"
}

// ErrUnsupportedConflict is returned when a dialect cannot express the
// requested conflict resolution at all (e.g. SQLite with an update
// map, or MySQL with an explicit target).
type ErrUnsupportedConflict struct {
	Dialect string
	Reason  string
}

func (e *ErrUnsupportedConflict) Error() string {
	return e.Dialect + ": " + e.Reason
}
