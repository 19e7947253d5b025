package dberrors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Translate maps a driver-specific error from the given driver name
// ("pgx", "mysql", "sqlite") onto the taxonomy of spec.md §7. It
// passes sql.ErrNoRows through unchanged — that's a row-not-found
// signal the model layer turns into a DoesNotExistError itself, not a
// taxonomy member on its own.
func Translate(driverName string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return New(OperationalError, "context canceled or deadline exceeded", err)
	}
	if errors.Is(err, driver.ErrBadConn) {
		return New(InterfaceError, "bad connection", err)
	}

	switch driverName {
	case "pgx", "postgres", "postgresql":
		return translatePostgres(err)
	case "mysql":
		return translateMySQL(err)
	case "sqlite":
		return translateSQLite(err)
	default:
		return New(DatabaseError, "unrecognized driver error", err)
	}
}

// translatePostgres classifies by SQLSTATE class (the first two
// digits of the five-character code), per the Postgres error code
// appendix.
func translatePostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return New(DatabaseError, "postgres error", err)
	}
	if len(pgErr.Code) != 5 {
		return New(DatabaseError, pgErr.Message, err)
	}
	switch pgErr.Code[:2] {
	case "23":
		return New(IntegrityError, pgErr.Message, err)
	case "22":
		return New(DataError, pgErr.Message, err)
	case "42":
		return New(ProgrammingError, pgErr.Message, err)
	case "08", "53", "57", "58":
		return New(OperationalError, pgErr.Message, err)
	case "40":
		return New(OperationalError, pgErr.Message, err) // serialization failure, deadlock
	case "0A":
		return New(NotSupportedError, pgErr.Message, err)
	case "XX":
		return New(InternalError, pgErr.Message, err)
	default:
		return New(DatabaseError, pgErr.Message, err)
	}
}

// translateMySQL classifies by server error number.
func translateMySQL(err error) error {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return New(DatabaseError, "mysql error", err)
	}
	switch myErr.Number {
	case 1062, 1451, 1452, 1048, 1364:
		return New(IntegrityError, myErr.Message, err)
	case 1054, 1064, 1146, 1109:
		return New(ProgrammingError, myErr.Message, err)
	case 1205, 1213:
		return New(OperationalError, myErr.Message, err)
	case 1044, 1045, 1142:
		return New(InterfaceError, myErr.Message, err)
	default:
		return New(DatabaseError, myErr.Message, err)
	}
}

// sqliteCoder is implemented by modernc.org/sqlite's *sqlite.Error;
// matched structurally so this package doesn't need to import sqlite
// just to pull in the error type it returns from database/sql.
type sqliteCoder interface {
	error
	Code() int
}

// Primary SQLite result codes relevant to classification.
const (
	sqliteConstraint = 19
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteCantOpen   = 14
	sqliteMisuse     = 21
	sqliteMismatch   = 20
)

func translateSQLite(err error) error {
	var sqErr sqliteCoder
	if errors.As(err, &sqErr) {
		switch sqErr.Code() {
		case sqliteConstraint:
			return New(IntegrityError, sqErr.Error(), err)
		case sqliteBusy, sqliteLocked:
			return New(OperationalError, sqErr.Error(), err)
		case sqliteCantOpen:
			return New(OperationalError, sqErr.Error(), err)
		case sqliteMisuse:
			return New(InterfaceError, sqErr.Error(), err)
		case sqliteMismatch:
			return New(DataError, sqErr.Error(), err)
		}
	}

	// No structured code available; fall back to message matching, the
	// same technique the teacher's WrapError used for free-text driver
	// errors without a stable number.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique") || strings.Contains(msg, "constraint"):
		return New(IntegrityError, err.Error(), err)
	case strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") || strings.Contains(msg, "syntax error"):
		return New(ProgrammingError, err.Error(), err)
	case strings.Contains(msg, "locked") || strings.Contains(msg, "busy"):
		return New(OperationalError, err.Error(), err)
	default:
		return New(DatabaseError, err.Error(), err)
	}
}
