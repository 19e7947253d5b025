package dialect

import (
	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/render"
)

// SQLite implements Dialect for SQLite 3.35+ (RETURNING support),
// directly generalizing the teacher's SQLiteDialect.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) ParamMarker(int) string { return "?" }

func (SQLite) QuoteChar() byte { return '"' }

// Operations remaps LIKE to GLOB (case-sensitive, pattern-match
// semantics differ from standard LIKE) and ILIKE back to LIKE, per
// spec.md §4.2, matching the teacher's per-dialect operator notes.
func (SQLite) Operations() map[render.Op]string {
	return map[render.Op]string{
		ast.OpLike:  "GLOB",
		ast.OpILike: "LIKE",
	}
}

func (SQLite) CommitSelect() bool          { return false }
func (SQLite) CompoundSelectParens() bool  { return false }
func (SQLite) SupportsForUpdate() bool     { return false }
func (SQLite) LimitMax() int               { return -1 } // SQLite accepts LIMIT -1 as "unlimited"
func (SQLite) SupportsReturning() bool     { return true }
func (SQLite) SafeCreateIndex() bool       { return true }
func (SQLite) SafeDropIndex() bool         { return true }
func (SQLite) SupportsSequences() bool     { return false }

func (SQLite) FieldType(kind FieldKind, mods ...int) string {
	switch kind {
	case FieldInteger, FieldBigInteger, FieldAuto, FieldBool, FieldTimestamp:
		return "INTEGER"
	case FieldFloat, FieldDouble, FieldDecimal:
		return "REAL"
	case FieldChar, FieldFixedChar, FieldText, FieldUUID, FieldDate, FieldDateTime, FieldTime:
		return "TEXT"
	case FieldBlob, FieldIP:
		return "BLOB"
	case FieldBare:
		return ""
	default:
		return "TEXT"
	}
}

func (SQLite) ConflictStatement(oc *OnConflict) (string, bool, error) {
	if len(oc.Update) > 0 || oc.Where != nil || len(oc.Target) > 0 || oc.Constraint != "" {
		return "", false, &ErrUnsupportedConflict{Dialect: "sqlite",
			Reason: "INSERT OR <action> does not support an update map, WHERE, or conflict target"}
	}
	switch oc.Action {
	case ConflictIgnore, ConflictNothing:
		return "INSERT OR IGNORE", true, nil
	case ConflictReplace:
		return "INSERT OR REPLACE", true, nil
	default:
		return "", false, &ErrUnsupportedConflict{Dialect: "sqlite", Reason: "upsert requires Postgres or MySQL"}
	}
}

func (SQLite) ConflictUpdate(*OnConflict) (render.Node, error) {
	return nil, nil
}

func (SQLite) DefaultValuesInsert() string { return "DEFAULT VALUES" }

func (SQLite) LastInsertIDExpr() string { return "last_insert_rowid()" }

func (SQLite) ExtractDate(part string, node render.Node) render.Node {
	return ast.NewFunction("strftime", ast.Raw(strftimeFormat(part)), node)
}

func (SQLite) TruncateDate(part string, node render.Node) render.Node {
	return ast.NewFunction("strftime", ast.Raw(strftimeFormat(part)), node)
}

func strftimeFormat(part string) string {
	formats := map[string]string{
		"year": "'%Y'", "month": "'%m'", "day": "'%d'",
		"hour": "'%H'", "minute": "'%M'", "second": "'%S'",
	}
	if f, ok := formats[part]; ok {
		return f
	}
	return "'%Y-%m-%d'"
}

func (SQLite) NoopSelect() string { return "SELECT 0 WHERE 0" }

func (SQLite) TablesQuery() string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
}

func (SQLite) ColumnsQuery() string {
	return `SELECT name, type, "notnull", pk FROM pragma_table_info(?)`
}

func (SQLite) IndexesQuery() string {
	return `SELECT name, sql FROM sqlite_master WHERE type = 'index' AND tbl_name = ?`
}

func (SQLite) PrimaryKeyQuery() string {
	return `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`
}

func (SQLite) ForeignKeysQuery() string {
	return `SELECT "from", "table", "to" FROM pragma_foreign_key_list(?)`
}

func (SQLite) SequencesQuery() string { return "" }
