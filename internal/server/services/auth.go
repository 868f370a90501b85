package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/cryptox"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/auth"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/repositories/repomanager"
	"github.com/kazna/user-service/internal/server/validation"
)

// AuthService logs users in by email and password and resolves the tokens
// it issued.
type AuthService struct {
	conn        dbx.Transactor
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	issuer      auth.TokenIssuer
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(conn dbx.Transactor, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, issuer auth.TokenIssuer) *AuthService {
	return &AuthService{
		conn:        conn,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		now:         time.Now,
	}
}

// Login checks the credentials and returns a token. An unknown email, a
// wrong password and an inactive account all yield
// common.ErrorInvalidCredentials. last_login is stamped in the same
// transaction that stores the token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.conn.Conn())

	user, err := repo.GetByEmail(ctx, validation.NormalizeEmail(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Spend the same hashing time as a real check.
			_, _ = s.hasher.Verify(ctx, password, s.fakeHash(ctx))
			return "", common.ErrorInvalidCredentials
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("error verifying password: %w", err)
	}
	if !ok || !user.IsActive {
		return "", common.ErrorInvalidCredentials
	}

	var token string
	err = s.conn.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetLastLogin(ctx, user.ID, s.now().UTC().Truncate(time.Microsecond)); err != nil {
			return fmt.Errorf("error updating last login: %w", err)
		}
		var issueErr error
		token, issueErr = s.issuer.Issue(ctx, tx, user.ID)
		return issueErr
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate returns the active user owning token, or common.ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.issuer.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	user, err := findUser(ctx, s.repomanager.Users(s.conn.Conn()), userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrInvalidToken
	}
	return user, nil
}

// Logout revokes the user's token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.issuer.Revoke(ctx, userID)
}

func (s *AuthService) fakeHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(ctx, "dummy-password")
	})
	return s.dummyHash
}
