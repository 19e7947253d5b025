package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLAdapter implements Adapter over go-sql-driver/mysql.
type MySQLAdapter struct {
	BaseAdapter
}

// NewMySQLAdapter creates a MySQL adapter from config.
func NewMySQLAdapter(config Config) *MySQLAdapter {
	if config.Port == 0 {
		config.Port = 3306
	}
	return &MySQLAdapter{
		BaseAdapter: BaseAdapter{config: config},
	}
}

func (a *MySQLAdapter) dsn() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		a.config.Username, a.config.Password, a.config.Host, a.config.Port, a.config.Database)
}

// Open establishes the connection pool.
func (a *MySQLAdapter) Open(ctx context.Context) error {
	db, err := sql.Open("mysql", a.dsn())
	if err != nil {
		return err
	}
	a.db = db
	a.configurePool()
	return a.db.PingContext(ctx)
}

func (a *MySQLAdapter) DialectName() string { return "mysql" }
func (a *MySQLAdapter) DriverName() string  { return "mysql" }

// LastInsertID reads the per-session LAST_INSERT_ID(); table and
// idColumn are accepted for interface parity with the other adapters
// but unused, since MySQL tracks this per-connection rather than
// per-table.
func (a *MySQLAdapter) LastInsertID(ctx context.Context, table, idColumn string) (int64, error) {
	var id int64
	err := a.db.QueryRowContext(ctx, "SELECT LAST_INSERT_ID()").Scan(&id)
	return id, err
}

// TableExists reports whether table exists in the connected schema.
func (a *MySQLAdapter) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := a.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = ?
		)`, table).Scan(&exists)
	return exists, err
}

// GetTableColumns returns column metadata for table.
func (a *MySQLAdapter) GetTableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
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

var _ Adapter = (*MySQLAdapter)(nil)
