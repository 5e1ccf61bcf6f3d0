// Package users declares the repository contract for identity records.
package users

import (
	"context"

	"github.com/clione/sikre/internal/server/models"
)

type Repository interface {
	// Create persists a new user. A duplicate username, email, or provider
	// linkage fails with common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUserName returns the user with the given handle or common.ErrorNotFound.
	GetByUserName(ctx context.Context, userName string) (*models.User, error)

	// UpdateMasterPassword replaces the stored master-password record.
	UpdateMasterPassword(ctx context.Context, userID string, encodedHash string) error
}
