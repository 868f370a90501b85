package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kazna/user-service/internal/common"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// mapWriteError turns driver unique-constraint violations into the
// common duplicate sentinels. Anything else is wrapped as a db error.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if dup := duplicateFor(pgErr.ConstraintName); dup != nil {
			return dup
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && isSQLiteUnique(liteErr) {
		// "UNIQUE constraint failed: users.email"
		if dup := duplicateFor(liteErr.Error()); dup != nil {
			return dup
		}
	}

	return fmt.Errorf("db error: %w", err)
}

// isSQLiteUnique accepts both the extended code and the primary
// SQLITE_CONSTRAINT code, depending on whether extended codes are enabled.
func isSQLiteUnique(err *sqlite.Error) bool {
	if err.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), "UNIQUE")
}

func duplicateFor(detail string) error {
	switch {
	case strings.Contains(detail, "email"):
		return common.ErrDuplicateEmail
	case strings.Contains(detail, "username"):
		return common.ErrDuplicateUsername
	default:
		return nil
	}
}
