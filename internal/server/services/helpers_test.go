package services

import (
	"context"
	"testing"
	"time"

	"github.com/kazna/user-service/internal/cryptox"
	"github.com/kazna/user-service/internal/server/auth"
	"github.com/kazna/user-service/internal/server/config"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/repositories/memory"
	"github.com/kazna/user-service/internal/server/validation"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

var cheapParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type fixture struct {
	store  *memory.Store
	hasher *cryptox.Argon2Hasher
	users  *UserService
	auth   *AuthService
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	store := memory.NewStore()
	hasher := cryptox.NewArgon2Hasher(cheapParams)
	return &fixture{
		store:  store,
		hasher: hasher,
		users:  NewUserService(store, store, hasher, cfg),
		auth:   NewAuthService(store, store, hasher, auth.NewDBTokenIssuer(store, store)),
	}
}

func validInput() CreateUserInput {
	return CreateUserInput{
		Email:     validation.Text("a@x.com"),
		Username:  validation.Text("a1"),
		Password:  validation.Text("longenough1"),
		FirstName: validation.Text("A"),
		LastName:  validation.Text("B"),
	}
}

func (f *fixture) mustCreate(t *testing.T, in CreateUserInput) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), in)
	require.NoError(t, err)
	return u
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
