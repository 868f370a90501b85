// Package users declares the persistence contract for user accounts and its
// SQL implementation.
package users

import (
	"context"
	"time"

	"github.com/kazna/user-service/internal/server/models"
)

// Repository stores users. Implementations must enforce email and username
// uniqueness themselves and report violations as common.ErrDuplicateEmail /
// common.ErrDuplicateUsername; lookups of absent rows return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)

	// UpdateProfile writes identity and name fields; the password hash is untouched.
	UpdateProfile(ctx context.Context, user *models.User) error
	SetPassword(ctx context.Context, id string, passwordHash string) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetActive(ctx context.Context, id string, active bool) error

	// EmailTaken and UsernameTaken report whether another user (not excludeID)
	// already holds the value. excludeID may be empty.
	EmailTaken(ctx context.Context, email string, excludeID string) (bool, error)
	UsernameTaken(ctx context.Context, username string, excludeID string) (bool, error)
}
