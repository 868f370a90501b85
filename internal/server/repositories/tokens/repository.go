// Package tokens stores opaque auth tokens, one per user.
package tokens

import (
	"context"

	"github.com/kazna/user-service/internal/server/models"
)

// Repository defines operations for issuing, looking up and revoking auth tokens.
type Repository interface {
	// Create stores token unless its user already has one. It reports false,
	// without an error, when the user's existing token was kept.
	Create(ctx context.Context, token *models.AuthToken) (bool, error)

	// FindByKey and FindByUser return common.ErrorNotFound when absent.
	FindByKey(ctx context.Context, key string) (*models.AuthToken, error)
	FindByUser(ctx context.Context, userID string) (*models.AuthToken, error)

	// DeleteByUser removes the user's token. Deleting nothing is not an error.
	DeleteByUser(ctx context.Context, userID string) error
}
