// Package memory keeps users and tokens in process memory. It backs the
// "memory" database driver for local runs and the service and HTTP tests.
// Uniqueness rules match the SQL schema; transactions are not isolated.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/repositories/tokens"
	"github.com/kazna/user-service/internal/server/repositories/users"
)

// Store is a RepositoryManager and a dbx.Transactor at once.
type Store struct {
	mu     sync.RWMutex
	users  map[string]models.User
	tokens map[string]models.AuthToken // by key
}

func NewStore() *Store {
	return &Store{
		users:  make(map[string]models.User),
		tokens: make(map[string]models.AuthToken),
	}
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository   { return (*userRepo)(s) }
func (s *Store) Tokens(dbx.DBTX) tokens.Repository { return (*tokenRepo)(s) }

func (s *Store) Conn() dbx.DBTX { return nil }

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type userRepo Store

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return nil, common.ErrDuplicateUsername
		}
	}
	r.users[user.ID] = *user
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		result = append(result, &u)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateJoined.Equal(result[j].DateJoined) {
			return result[i].DateJoined.Before(result[j].DateJoined)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return common.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return common.ErrDuplicateUsername
		}
	}

	current.Email = user.Email
	current.Username = user.Username
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	r.users[user.ID] = current
	return nil
}

func (r *userRepo) SetPassword(ctx context.Context, id string, passwordHash string) error {
	return r.modify(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *userRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.modify(id, func(u *models.User) { u.LastLogin = &at })
}

func (r *userRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.modify(id, func(u *models.User) { u.IsActive = active })
}

func (r *userRepo) modify(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	r.users[id] = u
	return nil
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, excludeID string) (bool, error) {
	return r.taken(excludeID, func(u models.User) bool { return u.Email == email }), nil
}

func (r *userRepo) UsernameTaken(ctx context.Context, username string, excludeID string) (bool, error) {
	return r.taken(excludeID, func(u models.User) bool { return u.Username == username }), nil
}

func (r *userRepo) taken(excludeID string, match func(models.User) bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, u := range r.users {
		if id != excludeID && match(u) {
			return true
		}
	}
	return false
}

type tokenRepo Store

func (r *tokenRepo) Create(ctx context.Context, token *models.AuthToken) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[token.UserID]; !ok {
		return false, common.ErrorNotFound
	}
	for _, t := range r.tokens {
		if t.UserID == token.UserID {
			return false, nil
		}
	}
	r.tokens[token.Key] = *token
	return true, nil
}

func (r *tokenRepo) FindByKey(ctx context.Context, key string) (*models.AuthToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *tokenRepo) FindByUser(ctx context.Context, userID string) (*models.AuthToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tokens {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *tokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}
