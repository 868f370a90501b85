package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kazna/user-service/internal/server/repositories/tokens"
	"github.com/kazna/user-service/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewSQLRepositoryManager(t *testing.T) {
	m, err := NewSQLRepositoryManager("pgx")
	require.NoError(t, err)
	assert.Equal(t, goose.DialectPostgres, m.dialect)

	m, err = NewSQLRepositoryManager("sqlite")
	require.NoError(t, err)
	assert.Equal(t, goose.DialectSQLite3, m.dialect)

	_, err = NewSQLRepositoryManager("mysql")
	assert.Error(t, err)

	var _ RepositoryManager = m
}

func TestFactories_ReturnSQLRepos(t *testing.T) {
	db := newDB(t)
	m := &SQLRepositoryManager{dialect: goose.DialectPostgres}

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &tokens.PostgresRepository{}, m.Tokens(db))
}

func TestRunMigrations_UsesDialect(t *testing.T) {
	db := newDB(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var got goose.Dialect
	gooseUp = func(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
		got = dialect
		return nil
	}

	m := &SQLRepositoryManager{dialect: goose.DialectSQLite3}
	require.NoError(t, m.RunMigrations(context.Background(), db))
	assert.Equal(t, goose.DialectSQLite3, got)
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)

	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })
	gooseUp = func(context.Context, *sql.DB, goose.Dialect) error { return errors.New("boom") }

	m := &SQLRepositoryManager{dialect: goose.DialectPostgres}
	err := m.RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "migration error: boom")
}
