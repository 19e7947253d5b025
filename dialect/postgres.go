package dialect

import (
	"strconv"

	"github.com/ha1tch/sqlkit/ast"
	"github.com/ha1tch/sqlkit/render"
)

// Postgres implements Dialect for PostgreSQL, directly generalizing
// the teacher's PostgresDialect.
type Postgres struct {
	safeCreateIndex bool
}

// NewPostgres returns a Postgres dialect assuming a modern server
// (CREATE INDEX IF NOT EXISTS / CREATE INDEX CONCURRENTLY safe).
func NewPostgres() *Postgres {
	return &Postgres{safeCreateIndex: true}
}

func (*Postgres) Name() string { return "postgres" }

func (*Postgres) ParamMarker(n int) string { return "$" + strconv.Itoa(n) }

func (*Postgres) QuoteChar() byte { return '"' }

func (*Postgres) Operations() map[render.Op]string {
	return nil
}

func (*Postgres) CommitSelect() bool         { return false }
func (*Postgres) CompoundSelectParens() bool { return false }
func (*Postgres) SupportsForUpdate() bool    { return true }
func (*Postgres) LimitMax() int              { return 0 }
func (*Postgres) SupportsReturning() bool    { return true }

// SafeCreateIndex reflects set_server_version toggling: Postgres >=
// 9.6 supports "CREATE INDEX IF NOT EXISTS" safely under concurrent
// DDL; older servers do not. Per DESIGN.md's Open Question decision,
// toggling this on a live, shared Postgres value is documented as
// best-effort and not synchronized against concurrent renders.
func (p *Postgres) SafeCreateIndex() bool { return p.safeCreateIndex }
func (*Postgres) SafeDropIndex() bool     { return true }
func (*Postgres) SupportsSequences() bool { return true }

// SetServerVersion adjusts feature flags that depend on the
// connected server's version. Mutating a *Postgres value that is
// shared across goroutines while renders are in flight is a race by
// construction; callers needing strict synchronization should swap in
// a replacement *Postgres value instead of mutating this one.
func (p *Postgres) SetServerVersion(major, minor int) {
	p.safeCreateIndex = major > 9 || (major == 9 && minor >= 6)
}

func (*Postgres) FieldType(kind FieldKind, mods ...int) string {
	switch kind {
	case FieldInteger:
		return "INTEGER"
	case FieldBigInteger:
		return "BIGINT"
	case FieldAuto:
		return "SERIAL"
	case FieldFloat:
		return "REAL"
	case FieldDouble:
		return "DOUBLE PRECISION"
	case FieldDecimal:
		if len(mods) == 2 {
			return "NUMERIC(" + strconv.Itoa(mods[0]) + ", " + strconv.Itoa(mods[1]) + ")"
		}
		return "NUMERIC"
	case FieldChar:
		if len(mods) == 1 {
			return "VARCHAR(" + strconv.Itoa(mods[0]) + ")"
		}
		return "VARCHAR"
	case FieldFixedChar:
		if len(mods) == 1 {
			return "CHAR(" + strconv.Itoa(mods[0]) + ")"
		}
		return "CHAR"
	case FieldText:
		return "TEXT"
	case FieldBlob:
		return "BYTEA"
	case FieldBool:
		return "BOOLEAN"
	case FieldUUID:
		return "UUID"
	case FieldDate:
		return "DATE"
	case FieldDateTime, FieldTimestamp:
		return "TIMESTAMP"
	case FieldTime:
		return "TIME"
	case FieldIP:
		return "BIGINT"
	case FieldBare:
		return ""
	default:
		return "TEXT"
	}
}

func (*Postgres) ConflictStatement(oc *OnConflict) (string, bool, error) {
	return "", false, nil
}

func (*Postgres) ConflictUpdate(oc *OnConflict) (render.Node, error) {
	switch oc.Action {
	case ConflictIgnore, ConflictNothing:
		if len(oc.Update) > 0 {
			return nil, &ErrUnsupportedConflict{Dialect: "postgres", Reason: "DO NOTHING cannot carry an update map"}
		}
		frag := "ON CONFLICT"
		if len(oc.Target) > 0 || oc.Constraint != "" {
			frag += conflictTargetSQL(oc)
		}
		return ast.Raw(frag + " DO NOTHING"), nil
	case ConflictUpdateAction:
		if len(oc.Target) == 0 && oc.Constraint == "" {
			return nil, &ErrNoTarget{Dialect: "postgres"}
		}
		parts := []render.Node{ast.Raw("ON CONFLICT" + conflictTargetSQL(oc) + " DO UPDATE SET ")}
		assigns := make([]render.Node, 0, len(oc.Update)+len(oc.Preserve))
		for col, val := range oc.Update {
			assigns = append(assigns, ast.NewExpression(ast.NewEntity(col), "=", val).WithFlat(true))
		}
		for _, col := range oc.Preserve {
			assigns = append(assigns, ast.Raw(quotedIdent(col)+" = EXCLUDED."+quotedIdent(col)))
		}
		parts = append(parts, ast.CommaList(assigns...))
		if oc.Where != nil {
			parts = append(parts, ast.Raw(" WHERE "), oc.Where)
		}
		return ast.NewNodeList("", parts...), nil
	default:
		return nil, &ErrUnsupportedConflict{Dialect: "postgres", Reason: "unsupported conflict action"}
	}
}

func conflictTargetSQL(oc *OnConflict) string {
	if oc.Constraint != "" {
		return " ON CONSTRAINT " + quotedIdent(oc.Constraint)
	}
	cols := make([]string, len(oc.Target))
	for i, c := range oc.Target {
		cols[i] = quotedIdent(c)
	}
	s := " ("
	for i, c := range cols {
		if i > 0 {
			s += ", "
		}
		s += c
	}
	return s + ")"
}

func quotedIdent(name string) string { return `"` + name + `"` }

func (*Postgres) DefaultValuesInsert() string { return "DEFAULT VALUES" }

func (*Postgres) LastInsertIDExpr() string { return "RETURNING" }

func (*Postgres) ExtractDate(part string, node render.Node) render.Node {
	return ast.NewFunction("EXTRACT", ast.Raw(part+" FROM "), node)
}

func (*Postgres) TruncateDate(part string, node render.Node) render.Node {
	return ast.NewFunction("DATE_TRUNC", ast.Raw("'"+part+"', "), node)
}

func (*Postgres) NoopSelect() string { return "SELECT 0 WHERE false" }

func (*Postgres) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`
}

func (*Postgres) ColumnsQuery() string {
	return `SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`
}

func (*Postgres) IndexesQuery() string {
	return `SELECT indexname, indexdef FROM pg_indexes WHERE tablename = $1`
}

func (*Postgres) PrimaryKeyQuery() string {
	return `SELECT a.attname FROM pg_index i JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey) WHERE i.indrelid = $1::regclass AND i.indisprimary`
}

func (*Postgres) ForeignKeysQuery() string {
	return `SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage ccu ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = $1`
}

func (*Postgres) SequencesQuery() string {
	return `SELECT sequence_name FROM information_schema.sequences WHERE sequence_schema = 'public'`
}
