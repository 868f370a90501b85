package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "6f1c2f0e-8a39-4a8e-9a57-3c1f4f3f2b10"

var columns = []string{"id", "email", "username", "first_name", "last_name", "password_hash", "is_active", "date_joined", "last_login"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func sampleUser() *models.User {
	return &models.User{
		ID:           testID,
		Email:        "a@x.com",
		Username:     "a1",
		FirstName:    "A",
		LastName:     "B",
		PasswordHash: "$argon2id$hash",
		IsActive:     true,
		DateJoined:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*username,.*VALUES\s*\(\$1,.*\$8\)$`).
		WithArgs(u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.PasswordHash, true, u.DateJoined).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Same(t, u, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_email_key", common.ErrDuplicateEmail},
		{"users_username_key", common.ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			mock.ExpectExec(`INSERT INTO users`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), sampleUser())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	login := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow(testID, "a@x.com", "a1", "A", "B", "$argon2id$hash", true, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), login)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*email,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(testID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.Username)
	require.NotNil(t, got.LastLogin)
	assert.True(t, login.Equal(*got.LastLogin))
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_OrderedRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow(testID, "a@x.com", "a1", "A", "B", "h1", true, joined, nil).
		AddRow("7a1c2f0e-8a39-4a8e-9a57-3c1f4f3f2b11", "b@x.com", "b1", "C", "D", "h2", false, joined, nil)
	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+users\s+ORDER\s+BY\s+date_joined,\s*id$`).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[1].Username)
	assert.False(t, got[1].IsActive)
	assert.Nil(t, got[0].LastLogin)
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdateProfile(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+email\s*=\s*\$1,\s*username\s*=\s*\$2,\s*first_name\s*=\s*\$3,\s*last_name\s*=\s*\$4\s+WHERE\s+id\s*=\s*\$5$`).
		WithArgs(u.Email, u.Username, u.FirstName, u.LastName, u.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProfile(context.Background(), u))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_NoRows(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET email`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), sampleUser()), common.ErrorNotFound)
}

func TestUpdateProfile_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET email`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), sampleUser()), common.ErrDuplicateUsername)
}

func TestSetPassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`).
		WithArgs("new-hash", testID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetPassword(context.Background(), testID, "new-hash"))
}

func TestSetLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET last_login`).
		WithArgs(sqlmock.AnyArg(), testID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetLastLogin(context.Background(), testID, time.Now().UTC()))
}

func TestSetActive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`UPDATE users SET is_active = \$1 WHERE id = \$2`).
		WithArgs(false, testID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetActive(context.Background(), testID, false))
}

func TestEmailTaken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+AND\s+id\s*<>\s*\$2$`).
		WithArgs("a@x.com", "00000000-0000-0000-0000-000000000000").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	taken, err := repo.EmailTaken(context.Background(), "a@x.com", "")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUsernameTaken_ExcludesSelf(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE username = \$1 AND id <> \$2`).
		WithArgs("a1", testID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	taken, err := repo.UsernameTaken(context.Background(), "a1", testID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestMapWriteError(t *testing.T) {
	assert.NoError(t, mapWriteError(nil))

	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk"}
	err := mapWriteError(other)
	assert.NotErrorIs(t, err, common.ErrDuplicateEmail)
	assert.ErrorIs(t, err, other)
}
