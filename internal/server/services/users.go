// Package services implements the business operations of the vault on top
// of the repositories: account management, item/group administration, the
// access-control checks, and the one-time share-token flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/server/auth"
	"github.com/clione/sikre/internal/server/config"
	"github.com/clione/sikre/internal/server/models"
	"github.com/clione/sikre/internal/server/passwords"
	userrepo "github.com/clione/sikre/internal/server/repositories/users"
)

type UserService struct {
	repo          userrepo.Repository
	authenticator *auth.Authenticator
	tokenValidity time.Duration
}

func NewUserService(repo userrepo.Repository, cfg *config.Config) *UserService {
	return &UserService{
		repo:          repo,
		authenticator: auth.NewAuthenticator(cfg.SiteDomain, []byte(cfg.SecretKey), cfg.SessionExpires),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

// Authenticator exposes the session validator for the HTTP middleware.
func (s *UserService) Authenticator() *auth.Authenticator {
	return s.authenticator
}

// Register creates a new account. The master password is hashed before the
// user record ever reaches the store; a duplicate handle or email surfaces
// as common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, userName, email, password string) (*models.User, error) {

	user := &models.User{
		UserName: userName,
		Email:    email,
		IsActive: true,
	}

	if password != "" {
		hash, err := passwords.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.MasterPassword = hash
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the master password and issues a session token. Unknown
// user, deactivated account and wrong password all collapse into
// ErrorUnauthorized so callers cannot probe for valid handles.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {

	user, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !user.IsActive || user.MasterPassword == "" {
		return "", common.ErrorUnauthorized
	}

	ok, err := passwords.Check(password, user.MasterPassword)
	if err != nil {
		return "", common.ErrorInternal
	}
	if !ok {
		return "", common.ErrorUnauthorized
	}

	token, err := s.authenticator.IssueToken(user.ID, s.tokenValidity)
	if err != nil {
		return "", common.ErrorInternal
	}

	return token, nil
}

// SetMasterPassword replaces the stored master-password record with the
// hash of the given plaintext.
func (s *UserService) SetMasterPassword(ctx context.Context, userID, password string) error {
	hash, err := passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return s.repo.UpdateMasterPassword(ctx, userID, hash)
}

// CheckMasterPassword reports whether the plaintext matches the stored
// record. A wrong password is a false result, never an error.
func (s *UserService) CheckMasterPassword(ctx context.Context, userID, password string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if user.MasterPassword == "" {
		return false, nil
	}

	return passwords.Check(password, user.MasterPassword)
}

// GetByUserName resolves an account by handle.
func (s *UserService) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return s.repo.GetByUserName(ctx, userName)
}
