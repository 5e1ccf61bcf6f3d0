// Package groups declares the repository contract for user groups and their
// membership/categorization association rows.
package groups

import (
	"context"

	"github.com/clione/sikre/internal/server/models"
)

type Repository interface {
	// Create persists a new group. A duplicate name fails with
	// common.ErrorConflict.
	Create(ctx context.Context, group *models.Group) (*models.Group, error)

	// GetByID returns the group with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Group, error)

	// ListByUser returns the groups the given user is a member of.
	ListByUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddUser records group membership. The (group, user) pair is unique;
	// duplicates fail with common.ErrorConflict, a missing parent with
	// common.ErrorNotFound.
	AddUser(ctx context.Context, groupID, userID string) error

	// AddItem categorizes an item into the group. Same uniqueness and
	// referential rules as AddUser.
	AddItem(ctx context.Context, groupID, itemID string) error

	// IsMember reports whether the user belongs to the group.
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}
