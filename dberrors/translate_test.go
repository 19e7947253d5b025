package dberrors_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/ha1tch/sqlkit/dberrors"
)

func TestTranslatePostgresIntegrityViolation(t *testing.T) {
	err := dberrors.Translate("pgx", &pgconn.PgError{Code: "23505", Message: "duplicate key value"})
	assert.True(t, dberrors.Is(err, dberrors.IntegrityError))
}

func TestTranslatePostgresSyntaxError(t *testing.T) {
	err := dberrors.Translate("pgx", &pgconn.PgError{Code: "42601", Message: "syntax error"})
	assert.True(t, dberrors.Is(err, dberrors.ProgrammingError))
}

func TestTranslateMySQLDuplicateEntry(t *testing.T) {
	err := dberrors.Translate("mysql", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	assert.True(t, dberrors.Is(err, dberrors.IntegrityError))
}

func TestTranslateMySQLDeadlock(t *testing.T) {
	err := dberrors.Translate("mysql", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"})
	assert.True(t, dberrors.Is(err, dberrors.OperationalError))
}

func TestTranslateSQLiteMessageFallback(t *testing.T) {
	err := dberrors.Translate("sqlite", errors.New("no such table: user"))
	assert.True(t, dberrors.Is(err, dberrors.ProgrammingError))
}

func TestTranslatePassesThroughNoRows(t *testing.T) {
	err := dberrors.Translate("sqlite", sql.ErrNoRows)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDoesNotExistRoundTrips(t *testing.T) {
	err := dberrors.NewDoesNotExist("User")
	assert.True(t, dberrors.IsDoesNotExist(err, "User"))
	assert.False(t, dberrors.IsDoesNotExist(err, "Note"))
}
