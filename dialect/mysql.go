package dialect

import (
	"math"
	"strconv"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/render"
)

// MySQL implements Dialect for MySQL/MariaDB, directly generalizing
// the teacher's MySQLDialect.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) ParamMarker(int) string { return "?" }

func (MySQL) QuoteChar() byte { return '`' }

// Operations remaps LIKE to a binary (case-sensitive) comparison, per
// the teacher's MySQL notes.
func (MySQL) Operations() map[render.Op]string {
	return map[render.Op]string{
		ast.OpLike: "LIKE BINARY",
	}
}

func (MySQL) CommitSelect() bool         { return false }
func (MySQL) CompoundSelectParens() bool { return true }
func (MySQL) SupportsForUpdate() bool    { return true }
func (MySQL) LimitMax() int              { return math.MaxInt64 }
func (MySQL) SupportsReturning() bool    { return false }
func (MySQL) SafeCreateIndex() bool      { return false }
func (MySQL) SafeDropIndex() bool        { return false }
func (MySQL) SupportsSequences() bool    { return false }

func (MySQL) FieldType(kind FieldKind, mods ...int) string {
	switch kind {
	case FieldInteger, FieldAuto:
		return "INT"
	case FieldBigInteger:
		return "BIGINT"
	case FieldFloat:
		return "FLOAT"
	case FieldDouble:
		return "DOUBLE"
	case FieldDecimal:
		if len(mods) == 2 {
			return "DECIMAL(" + strconv.Itoa(mods[0]) + ", " + strconv.Itoa(mods[1]) + ")"
		}
		return "DECIMAL(18, 4)"
	case FieldChar:
		if len(mods) == 1 {
			return "VARCHAR(" + strconv.Itoa(mods[0]) + ")"
		}
		return "VARCHAR(255)"
	case FieldFixedChar:
		if len(mods) == 1 {
			return "CHAR(" + strconv.Itoa(mods[0]) + ")"
		}
		return "CHAR"
	case FieldText:
		return "TEXT"
	case FieldBlob:
		return "BLOB"
	case FieldBool:
		return "TINYINT(1)"
	case FieldUUID:
		return "CHAR(36)"
	case FieldDate:
		return "DATE"
	case FieldDateTime, FieldTimestamp:
		return "DATETIME"
	case FieldTime:
		return "TIME"
	case FieldIP:
		return "INT UNSIGNED"
	case FieldBare:
		return ""
	default:
		return "TEXT"
	}
}

func (MySQL) ConflictStatement(oc *OnConflict) (string, bool, error) {
	if len(oc.Target) > 0 || oc.Constraint != "" || oc.Where != nil {
		return "", false, &ErrUnsupportedConflict{Dialect: "mysql",
			Reason: "conflict target/constraint/where are not supported; MySQL resolves conflicts by unique index alone"}
	}
	switch oc.Action {
	case ConflictIgnore, ConflictNothing:
		if len(oc.Update) > 0 {
			return "", false, nil // fall through to ConflictUpdate (ON DUPLICATE KEY UPDATE)
		}
		return "INSERT IGNORE", true, nil
	case ConflictReplace:
		return "REPLACE", true, nil
	default:
		return "", false, nil
	}
}

func (MySQL) ConflictUpdate(oc *OnConflict) (render.Node, error) {
	if oc.Action != ConflictUpdateAction && len(oc.Update) == 0 && len(oc.Preserve) == 0 {
		return nil, nil
	}
	assigns := make([]render.Node, 0, len(oc.Update)+len(oc.Preserve))
	for col, val := range oc.Update {
		assigns = append(assigns, ast.NewExpression(ast.NewEntity(col), "=", val).WithFlat(true))
	}
	for _, col := range oc.Preserve {
		q := "`" + col + "`"
		assigns = append(assigns, ast.Raw(q+" = VALUES("+q+")"))
	}
	if len(assigns) == 0 {
		return nil, nil
	}
	return ast.NewNodeList("", ast.Raw("ON DUPLICATE KEY UPDATE "), ast.CommaList(assigns...)), nil
}

func (MySQL) DefaultValuesInsert() string { return "() VALUES ()" }

func (MySQL) LastInsertIDExpr() string { return "LAST_INSERT_ID()" }

func (MySQL) ExtractDate(part string, node render.Node) render.Node {
	return ast.NewFunction("EXTRACT", ast.Raw(part+" FROM "), node)
}

func (MySQL) TruncateDate(part string, node render.Node) render.Node {
	formats := map[string]string{
		"year": "'%Y-01-01'", "month": "'%Y-%m-01'", "day": "'%Y-%m-%d'",
	}
	format, ok := formats[part]
	if !ok {
		format = "'%Y-%m-%d'"
	}
	return ast.NewFunction("DATE_FORMAT", node, ast.Raw(format))
}

func (MySQL) NoopSelect() string { return "SELECT 0 FROM DUAL WHERE 0" }

func (MySQL) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`
}

func (MySQL) ColumnsQuery() string {
	return `SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`
}

func (MySQL) IndexesQuery() string {
	return `SHOW INDEX FROM ??`
}

func (MySQL) PrimaryKeyQuery() string {
	return `SELECT column_name FROM information_schema.key_column_usage WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY' ORDER BY ordinal_position`
}

func (MySQL) ForeignKeysQuery() string {
	return `SELECT column_name, referenced_table_name, referenced_column_name FROM information_schema.key_column_usage WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL`
}

func (MySQL) SequencesQuery() string { return "" }
