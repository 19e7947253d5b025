// Package schema generates and introspects DDL for model metadata,
// implementing spec.md §4.9's Manager: CreateTable/DropTable,
// CreateIndexes, sequence management, and dependency-ordered creation
// across a set of models.
package schema

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/ha1tch/sqlkit/cursor"
	"github.com/ha1tch/sqlkit/db"
	"github.com/ha1tch/sqlkit/model"
)

// Manager generates and applies DDL for models against a database's
// dialect.
type Manager struct {
	db *db.DB
}

// NewManager builds a Manager bound to database.
func NewManager(database *db.DB) *Manager {
	return &Manager{db: database}
}

func (m *Manager) quote(ident string) string {
	q := m.db.Dialect().QuoteChar()
	if q == 0 {
		q = '"'
	}
	return string(q) + strings.ReplaceAll(ident, string(q), string(q)+string(q)) + string(q)
}

// CreateTable emits and executes CREATE TABLE for meta, including
// column definitions, the primary key clause (single or composite),
// and foreign key clauses. meta's table-level Constraints and Options
// are not emitted.
func (m *Manager) CreateTable(ctx context.Context, sess *db.Session, meta *model.Metadata, ifNotExists bool) error {
	sqlText := m.CreateTableSQL(meta, ifNotExists)
	_, err := sess.Exec(ctx, sqlText, nil)
	return err
}

// CreateTableSQL renders CREATE TABLE for meta without executing it.
func (m *Manager) CreateTableSQL(meta *model.Metadata, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(m.qualifiedTable(meta))
	b.WriteString(" (\n")

	var lines []string
	for _, f := range meta.Fields() {
		lines = append(lines, "  "+m.columnDefinition(meta, f))
	}
	if meta.IsCompositeKey() {
		cols := make([]string, 0, len(meta.CompositeKeyFields()))
		for _, f := range meta.CompositeKeyFields() {
			cols = append(cols, m.quote(f.Column()))
		}
		lines = append(lines, "  PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}
	for _, f := range meta.Fields() {
		if f.RelModel() == nil {
			continue
		}
		lines = append(lines, "  "+m.foreignKeyClause(f))
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	if meta.WithoutRowID {
		b.WriteString(" WITHOUT ROWID")
	}
	return b.String()
}

func (m *Manager) qualifiedTable(meta *model.Metadata) string {
	if meta.Schema != "" {
		return m.quote(meta.Schema) + "." + m.quote(meta.TableName)
	}
	return m.quote(meta.TableName)
}

func (m *Manager) columnDefinition(meta *model.Metadata, f *model.Field) string {
	d := m.db.Dialect()
	var b strings.Builder
	b.WriteString(m.quote(f.Column()))
	b.WriteString(" ")
	b.WriteString(d.FieldType(f.Kind(), f.Mods()...))
	if f.IsPrimaryKey() && !meta.IsCompositeKey() {
		b.WriteString(" PRIMARY KEY")
	}
	if !f.IsNull() && !f.IsPrimaryKey() {
		b.WriteString(" NOT NULL")
	}
	if f.IsUnique() {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func (m *Manager) foreignKeyClause(f *model.Field) string {
	target := f.RelModel()
	relField := f.RelField()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		m.quote(f.Column()), m.quote(target.TableName), m.quote(relField.Column())))
	if f.OnDelete() != "" {
		b.WriteString(" ON DELETE " + f.OnDelete())
	}
	if f.OnUpdate() != "" {
		b.WriteString(" ON UPDATE " + f.OnUpdate())
	}
	return b.String()
}

// DropTable drops meta's table.
func (m *Manager) DropTable(ctx context.Context, sess *db.Session, meta *model.Metadata, ifExists bool) error {
	var b strings.Builder
	b.WriteString("DROP TABLE ")
	if ifExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(m.qualifiedTable(meta))
	_, err := sess.Exec(ctx, b.String(), nil)
	return err
}

// CreateIndexes creates every implicit (Field.AsUnique/AsIndexed) and
// explicit (Options.Indexes) column-list index declared on meta;
// explicit indexes given as a raw SQL node are skipped. safe wraps the
// statement in IF NOT EXISTS when the dialect supports it
// (dialect.Dialect.SafeCreateIndex).
func (m *Manager) CreateIndexes(ctx context.Context, sess *db.Session, meta *model.Metadata, safe bool) error {
	for _, stmt := range m.CreateIndexesSQL(meta, safe) {
		if _, err := sess.Exec(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndexesSQL renders CREATE INDEX statements for meta without
// executing them.
func (m *Manager) CreateIndexesSQL(meta *model.Metadata, safe bool) []string {
	d := m.db.Dialect()
	var stmts []string

	for _, f := range meta.Fields() {
		if f.IsUnique() {
			stmts = append(stmts, m.indexStatement(meta, []string{f.Column()}, true, safe && d.SafeCreateIndex()))
		} else if f.IsIndexed() {
			stmts = append(stmts, m.indexStatement(meta, []string{f.Column()}, false, safe && d.SafeCreateIndex()))
		}
	}
	for _, idx := range meta.Indexes {
		if idx.SQL != nil {
			continue
		}
		stmts = append(stmts, m.indexStatement(meta, idx.Columns, idx.Unique, safe && d.SafeCreateIndex()))
	}
	return stmts
}

func (m *Manager) indexStatement(meta *model.Metadata, columns []string, unique, safe bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if safe {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(m.quote(IndexName(meta.TableName, columns)))
	b.WriteString(" ON ")
	b.WriteString(m.qualifiedTable(meta))
	b.WriteString(" (")
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = m.quote(c)
	}
	b.WriteString(strings.Join(quoted, ", "))
	b.WriteString(")")
	return b.String()
}

// IndexName derives an index name from table and columns: the
// "<table>_<col1>_<col2>..." form, truncated to 64 characters with a
// 7-character MD5 suffix when it would otherwise exceed 64 characters,
// matching peewee's make_index_name (original_source/peewee.py).
func IndexName(table string, columns []string) string {
	base := table + "_" + strings.Join(columns, "_")
	if len(base) <= 64 {
		return base
	}
	sum := md5.Sum([]byte(base))
	suffix := hex.EncodeToString(sum[:])[:7]
	return base[:64-8] + "_" + suffix
}

// CreateSequence creates a standalone sequence named name, for
// dialects with SupportsSequences (Postgres).
func (m *Manager) CreateSequence(ctx context.Context, sess *db.Session, name string) error {
	if !m.db.Dialect().SupportsSequences() {
		return fmt.Errorf("schema: %s does not support sequences", m.db.Dialect().Name())
	}
	_, err := sess.Exec(ctx, "CREATE SEQUENCE "+m.quote(name), nil)
	return err
}

// DropSequence drops sequence name.
func (m *Manager) DropSequence(ctx context.Context, sess *db.Session, name string) error {
	if !m.db.Dialect().SupportsSequences() {
		return fmt.Errorf("schema: %s does not support sequences", m.db.Dialect().Name())
	}
	_, err := sess.Exec(ctx, "DROP SEQUENCE "+m.quote(name), nil)
	return err
}

// CreateAll creates every table in models, in dependency order (refs
// union DependsOn), then every index, matching peewee's
// create_tables(models) convenience.
func (m *Manager) CreateAll(ctx context.Context, sess *db.Session, models []*model.Metadata, ifNotExists bool) error {
	ordered, err := TopologicalOrder(models)
	if err != nil {
		return err
	}
	for _, meta := range ordered {
		if err := m.CreateTable(ctx, sess, meta, ifNotExists); err != nil {
			return err
		}
	}
	for _, meta := range ordered {
		if err := m.CreateIndexes(ctx, sess, meta, true); err != nil {
			return err
		}
	}
	return nil
}

// DropAll drops every table in models, in reverse dependency order.
func (m *Manager) DropAll(ctx context.Context, sess *db.Session, models []*model.Metadata, ifExists bool) error {
	ordered, err := TopologicalOrder(models)
	if err != nil {
		return err
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if err := m.DropTable(ctx, sess, ordered[i], ifExists); err != nil {
			return err
		}
	}
	return nil
}

// TopologicalOrder sorts models so that every model referenced by
// another model's foreign keys or Options.DependsOn comes first
// (spec.md §4.9's dependency graph is refs ∪ depends_on). It errors on
// a dependency cycle.
func TopologicalOrder(models []*model.Metadata) ([]*model.Metadata, error) {
	inSet := make(map[*model.Metadata]bool, len(models))
	for _, m := range models {
		inSet[m] = true
	}

	deps := make(map[*model.Metadata]map[*model.Metadata]bool, len(models))
	for _, meta := range models {
		set := map[*model.Metadata]bool{}
		for _, f := range meta.Fields() {
			if f.RelModel() != nil && inSet[f.RelModel()] && f.RelModel() != meta {
				set[f.RelModel()] = true
			}
		}
		for _, dep := range meta.DependsOn {
			if inSet[dep] && dep != meta {
				set[dep] = true
			}
		}
		deps[meta] = set
	}

	var order []*model.Metadata
	state := map[*model.Metadata]int{} // 0 unvisited, 1 visiting, 2 done
	var visit func(meta *model.Metadata) error
	visit = func(meta *model.Metadata) error {
		switch state[meta] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("schema: dependency cycle detected involving %q", meta.Name)
		}
		state[meta] = 1
		depNames := make([]*model.Metadata, 0, len(deps[meta]))
		for dep := range deps[meta] {
			depNames = append(depNames, dep)
		}
		sort.Slice(depNames, func(i, j int) bool { return depNames[i].Name < depNames[j].Name })
		for _, dep := range depNames {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[meta] = 2
		order = append(order, meta)
		return nil
	}

	sortedModels := append([]*model.Metadata{}, models...)
	sort.Slice(sortedModels, func(i, j int) bool { return sortedModels[i].Name < sortedModels[j].Name })
	for _, meta := range sortedModels {
		if err := visit(meta); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ColumnMetadata describes one introspected column.
type ColumnMetadata struct {
	Name       string
	DataType   string
	IsNullable bool
}

// IndexMetadata describes one introspected index.
type IndexMetadata struct {
	Name    string
	Unique  bool
	Columns []string
}

// ForeignKeyMetadata describes one introspected foreign key.
type ForeignKeyMetadata struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Columns introspects table's columns via the dialect's ColumnsQuery.
// The three supported dialects report column name/type/nullability
// under different key and column-count conventions (sqlite reports
// "notnull" rather than "is_nullable", for instance), so this method
// switches on dialect.Name() to normalize them; that is the one place
// in package schema the vendor difference cannot be hidden behind the
// dialect.Dialect interface, since it turns driver-specific column
// shapes into a single ColumnMetadata shape rather than a single SQL
// fragment.
func (m *Manager) Columns(ctx context.Context, sess *db.Session, table string) ([]ColumnMetadata, error) {
	d := m.db.Dialect()
	rows, err := m.queryDicts(ctx, sess, d.ColumnsQuery(), table)
	if err != nil {
		return nil, err
	}
	out := make([]ColumnMetadata, 0, len(rows))
	for _, row := range rows {
		out = append(out, columnFromRow(d.Name(), row))
	}
	return out, nil
}

// PrimaryKey introspects table's primary-key column names, in key
// order, via the dialect's PrimaryKeyQuery.
func (m *Manager) PrimaryKey(ctx context.Context, sess *db.Session, table string) ([]string, error) {
	d := m.db.Dialect()
	rows, err := m.queryDicts(ctx, sess, d.PrimaryKeyQuery(), table)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, firstString(row, "column_name", "name"))
	}
	return cols, nil
}

// ForeignKeys introspects table's foreign keys via the dialect's
// ForeignKeysQuery. As with Columns, sqlite names its three columns
// differently ("from"/"table"/"to") than Postgres and MySQL's
// information_schema joins, so the row-to-struct mapping switches on
// dialect name rather than column position.
func (m *Manager) ForeignKeys(ctx context.Context, sess *db.Session, table string) ([]ForeignKeyMetadata, error) {
	d := m.db.Dialect()
	rows, err := m.queryDicts(ctx, sess, d.ForeignKeysQuery(), table)
	if err != nil {
		return nil, err
	}
	out := make([]ForeignKeyMetadata, 0, len(rows))
	for _, row := range rows {
		switch d.Name() {
		case "sqlite":
			out = append(out, ForeignKeyMetadata{
				Column:           asString(row["from"]),
				ReferencedTable:  asString(row["table"]),
				ReferencedColumn: asString(row["to"]),
			})
		default:
			out = append(out, ForeignKeyMetadata{
				Column:           firstString(row, "column_name"),
				ReferencedTable:  firstString(row, "referenced_table_name", "table_name"),
				ReferencedColumn: firstString(row, "referenced_column_name", "column_name"),
			})
		}
	}
	return out, nil
}

// Tables lists every table name in the database via the dialect's
// TablesQuery.
func (m *Manager) Tables(ctx context.Context, sess *db.Session) ([]string, error) {
	d := m.db.Dialect()
	rows, err := sess.Query(ctx, d.TablesQuery(), nil, cursor.Dict)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if err := rows.FillCache(0); err != nil {
		return nil, err
	}
	n, err := rows.Len()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		raw, err := rows.At(i)
		if err != nil {
			return nil, err
		}
		row := raw.(cursor.DictRow)
		out = append(out, firstString(row, "table_name", "name"))
	}
	return out, nil
}

func (m *Manager) queryDicts(ctx context.Context, sess *db.Session, query string, param string) ([]cursor.DictRow, error) {
	if query == "" {
		return nil, nil
	}
	rows, err := sess.Query(ctx, query, []any{param}, cursor.Dict)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if err := rows.FillCache(0); err != nil {
		return nil, err
	}
	n, err := rows.Len()
	if err != nil {
		return nil, err
	}
	out := make([]cursor.DictRow, 0, n)
	for i := 0; i < n; i++ {
		raw, err := rows.At(i)
		if err != nil {
			return nil, err
		}
		out = append(out, raw.(cursor.DictRow))
	}
	return out, nil
}

func firstString(row cursor.DictRow, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			return asString(v)
		}
	}
	return ""
}

func columnFromRow(dialectName string, row cursor.DictRow) ColumnMetadata {
	switch dialectName {
	case "sqlite":
		notNull, _ := row["notnull"].(int64)
		return ColumnMetadata{
			Name:       asString(row["name"]),
			DataType:   asString(row["type"]),
			IsNullable: notNull == 0,
		}
	default:
		nullable := strings.EqualFold(asString(row["is_nullable"]), "YES")
		return ColumnMetadata{
			Name:       asString(row["column_name"]),
			DataType:   asString(row["data_type"]),
			IsNullable: nullable,
		}
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
