package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/migrations"
	"github.com/kazna/user-service/internal/server/repositories/tokens"
	"github.com/kazna/user-service/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends the SQL repository implementations and runs
// the embedded goose migrations for its dialect.
type SQLRepositoryManager struct {
	dialect goose.Dialect
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

// gooseUp is a seam for testing migrations without a database.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	provider, err := goose.NewProvider(dialect, db, migrations.Migrations)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// RunMigrations applies every pending embedded migration.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := gooseUp(ctx, db, m.dialect); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// NewSQLRepositoryManager returns the manager for a database/sql driver name
// ("pgx" or "sqlite").
func NewSQLRepositoryManager(driver string) (*SQLRepositoryManager, error) {
	switch driver {
	case "pgx":
		return &SQLRepositoryManager{dialect: goose.DialectPostgres}, nil
	case "sqlite":
		return &SQLRepositoryManager{dialect: goose.DialectSQLite3}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens and pings a database. SQLite gets foreign keys switched on and
// a busy timeout so concurrent writers wait instead of failing.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver == "sqlite" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
