package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	ErrCodeDuplicateEntry       = 1062
	ErrCodeForeignKeyConstraint = 1452

	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// constraint names a unique constraint the way each driver reports it: MySQL
// and Postgres by constraint name, SQLite by "table.column".
type constraint struct {
	Name   string
	Table  string
	Column string
}

func isViolationOfConstraint(err error, c constraint) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		// MySQL error code 1062 is for duplicate entry (unique constraint violation)
		if mysqlErr.Number == ErrCodeDuplicateEntry {
			return strings.Contains(mysqlErr.Message, c.Name)
		}

		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeUniqueViolation && pgErr.ConstraintName == c.Name
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return false
		}

		return strings.Contains(sqliteErr.Error(), c.Table+"."+c.Column)
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == ErrCodeForeignKeyConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCodeForeignKeyViolation
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}

	return false
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
