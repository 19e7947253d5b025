package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresAdapter implements Adapter over jackc/pgx/v5's database/sql
// driver.
type PostgresAdapter struct {
	BaseAdapter
}

// NewPostgresAdapter creates a Postgres adapter from config.
func NewPostgresAdapter(config Config) *PostgresAdapter {
	if config.Port == 0 {
		config.Port = 5432
	}
	return &PostgresAdapter{
		BaseAdapter: BaseAdapter{config: config},
	}
}

func (a *PostgresAdapter) dsn() string {
	sslmode := a.config.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		a.config.Username, a.config.Password, a.config.Host, a.config.Port, a.config.Database, sslmode)
}

// Open establishes the connection pool.
func (a *PostgresAdapter) Open(ctx context.Context) error {
	db, err := sql.Open("pgx", a.dsn())
	if err != nil {
		return err
	}
	a.db = db
	a.configurePool()
	return a.db.PingContext(ctx)
}

func (a *PostgresAdapter) DialectName() string { return "postgres" }
func (a *PostgresAdapter) DriverName() string  { return "pgx" }

// LastInsertID reads currval of the column's serial sequence
// (pg_get_serial_sequence); Postgres has no
// auto-increment cursor API, so callers normally prefer the
// RETURNING clause directly on the insert (query.Insert.Returning).
// This exists for parity with the other adapters' LastInsertID.
func (a *PostgresAdapter) LastInsertID(ctx context.Context, table, idColumn string) (int64, error) {
	var id int64
	query := fmt.Sprintf(`SELECT currval(pg_get_serial_sequence('%s', '%s'))`, table, idColumn)
	err := a.db.QueryRowContext(ctx, query).Scan(&id)
	return id, err
}

// TableExists reports whether table exists in the current schema.
func (a *PostgresAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
	return exists, err
}

// GetTableColumns returns column metadata for table.
func (a *PostgresAdapter) GetTableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsNullable); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

var _ Adapter = (*PostgresAdapter)(nil)
