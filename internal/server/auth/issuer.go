// Package auth issues and resolves the tokens clients present in the
// Authorization header. Two backends exist: opaque keys stored in the
// database (one per user) and stateless JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/repositories/tokens"
)

// TokenIssuer turns an authenticated user into a token and back.
type TokenIssuer interface {
	// Issue returns a token for userID. tx is the unit of work the login runs
	// in; stateless backends ignore it.
	Issue(ctx context.Context, tx dbx.DBTX, userID string) (string, error)
	// Resolve returns the user id a token belongs to.
	Resolve(ctx context.Context, token string) (string, error)
	// Revoke invalidates the user's token, if the backend can.
	Revoke(ctx context.Context, userID string) error
}

type tokenRepos interface {
	Tokens(db dbx.DBTX) tokens.Repository
}

// DBTokenIssuer stores one opaque 40-hex key per user. Logging in again
// returns the existing key until it is revoked.
type DBTokenIssuer struct {
	repos tokenRepos
	conn  dbx.Transactor
	now   func() time.Time
}

func NewDBTokenIssuer(repos tokenRepos, conn dbx.Transactor) *DBTokenIssuer {
	return &DBTokenIssuer{repos: repos, conn: conn, now: time.Now}
}

func (i *DBTokenIssuer) Issue(ctx context.Context, tx dbx.DBTX, userID string) (string, error) {
	repo := i.repos.Tokens(tx)

	existing, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return existing.Key, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error searching token: %w", err)
	}

	key, err := common.MakeRandHexString(common.AuthTokenSize)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	token := &models.AuthToken{Key: key, UserID: userID, Created: i.now().UTC()}
	created, err := repo.Create(ctx, token)
	if err != nil {
		return "", fmt.Errorf("error creating token: %w", err)
	}
	if created {
		return key, nil
	}

	// A concurrent login stored the user's token first.
	existing, err = repo.FindByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("error searching token: %w", err)
	}
	return existing.Key, nil
}

func (i *DBTokenIssuer) Resolve(ctx context.Context, key string) (string, error) {
	token, err := i.repos.Tokens(i.conn.Conn()).FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", fmt.Errorf("error searching token: %w", err)
	}
	return token.UserID, nil
}

func (i *DBTokenIssuer) Revoke(ctx context.Context, userID string) error {
	if err := i.repos.Tokens(i.conn.Conn()).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting token: %w", err)
	}
	return nil
}
