package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create leaves the transaction usable when the user already has a token,
// so the caller can read the existing one in the same unit of work.
func (r *PostgresRepository) Create(ctx context.Context, token *models.AuthToken) (bool, error) {
	query := `
		INSERT INTO auth_tokens (token, user_id, created)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, token.Key, token.UserID, token.Created)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) find(ctx context.Context, column string, value string) (*models.AuthToken, error) {
	query := `SELECT token, user_id, created FROM auth_tokens WHERE ` + column + ` = $1`

	token := &models.AuthToken{}
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&token.Key, &token.UserID, &token.Created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) FindByKey(ctx context.Context, key string) (*models.AuthToken, error) {
	return r.find(ctx, "token", key)
}

func (r *PostgresRepository) FindByUser(ctx context.Context, userID string) (*models.AuthToken, error) {
	return r.find(ctx, "user_id", userID)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
