// Package services contains server-side business logic. UserService owns the
// account lifecycle (registration, profile reads and edits, password change);
// AuthService turns credentials into tokens and tokens back into users.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/cryptox"
	"github.com/kazna/user-service/internal/dbx"
	"github.com/kazna/user-service/internal/server/config"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/repositories/repomanager"
	"github.com/kazna/user-service/internal/server/repositories/users"
	"github.com/kazna/user-service/internal/server/validation"
)

// CreateUserInput is a registration request. Every field is required.
type CreateUserInput struct {
	Email     validation.Input
	Username  validation.Input
	Password  validation.Input
	FirstName validation.Input
	LastName  validation.Input
}

// ProfilePatch lists the profile fields to change. Fields that were not set
// stay as they are; a null is rejected.
type ProfilePatch struct {
	Email     validation.Input
	Username  validation.Input
	FirstName validation.Input
	LastName  validation.Input
}

type ChangePasswordInput struct {
	NewPassword     validation.Input
	CurrentPassword validation.Input
}

type UserService struct {
	conn                   dbx.Transactor
	repomanager            repomanager.RepositoryManager
	hasher                 cryptox.PasswordHasher
	requireCurrentPassword bool
	now                    func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(conn dbx.Transactor, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, cfg *config.Config) *UserService {
	return &UserService{
		conn:                   conn,
		repomanager:            m,
		hasher:                 hasher,
		requireCurrentPassword: cfg.RequireCurrentPassword,
		now:                    time.Now,
	}
}

func (s *UserService) users() users.Repository {
	return s.repomanager.Users(s.conn.Conn())
}

// Create validates every field, hashes the password and stores a new active
// user. All field failures come back together as a *validation.Error.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	repo := s.users()

	v := validation.New(repo)
	email := v.Email(ctx, "email", in.Email, "")
	username := v.Username(ctx, "username", in.Username, "")
	password := v.Password("password", in.Password)
	firstName := v.RequiredText("first_name", in.FirstName, validation.MaxNameLength)
	lastName := v.RequiredText("last_name", in.LastName, validation.MaxNameLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		IsActive:     true,
		DateJoined:   s.now().UTC().Truncate(time.Microsecond),
	}

	created, err := repo.Create(ctx, user)
	if err != nil {
		return nil, storeError("error creating user", err)
	}
	return created, nil
}

// Get returns the user with id. Unknown and malformed ids are both
// common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return findUser(ctx, s.users(), id)
}

// List returns every user ordered by join date.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.users().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// UpdateProfile applies the supplied fields of patch. Only those fields are
// validated; the password hash is never touched.
func (s *UserService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	repo := s.users()

	user, err := findUser(ctx, repo, id)
	if err != nil {
		return nil, err
	}

	v := validation.New(repo)
	if patch.Email.Set {
		user.Email = v.Email(ctx, "email", patch.Email, user.ID)
	}
	if patch.Username.Set {
		user.Username = v.Username(ctx, "username", patch.Username, user.ID)
	}
	if patch.FirstName.Set {
		user.FirstName = v.RequiredText("first_name", patch.FirstName, validation.MaxNameLength)
	}
	if patch.LastName.Set {
		user.LastName = v.RequiredText("last_name", patch.LastName, validation.MaxNameLength)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := repo.UpdateProfile(ctx, user); err != nil {
		return nil, storeError("error updating user", err)
	}
	return user, nil
}

// ChangePassword replaces the user's password hash. The current password is
// only checked when the service is configured to require it.
func (s *UserService) ChangePassword(ctx context.Context, id string, in ChangePasswordInput) error {
	repo := s.users()

	user, err := findUser(ctx, repo, id)
	if err != nil {
		return err
	}

	v := validation.New(repo)
	newPassword := v.Password("new_password", in.NewPassword)
	var current string
	if s.requireCurrentPassword {
		current = v.Require("current_password", in.CurrentPassword)
	}
	if err := v.Err(); err != nil {
		return err
	}

	if s.requireCurrentPassword {
		ok, err := s.hasher.Verify(ctx, current, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("error verifying password: %w", err)
		}
		if !ok {
			return validation.NewError("current_password", validation.InvalidPassword, "Invalid password.")
		}
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := repo.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error setting password: %w", err)
	}
	return nil
}

func findUser(ctx context.Context, repo users.Repository, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// storeError reports a uniqueness violation that slipped past validation
// (two concurrent requests) as the matching field error.
func storeError(msg string, err error) error {
	var verr *validation.Error
	if mapped := validation.FromStore(err); errors.As(mapped, &verr) {
		return mapped
	}
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
