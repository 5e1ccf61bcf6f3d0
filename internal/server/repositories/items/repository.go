// Package items declares the repository contract for items, direct access
// grants, and the access predicate derived from the association tables.
package items

import (
	"context"

	"github.com/clione/sikre/internal/server/models"
)

type Repository interface {
	// Create persists a new item. The author reference must exist.
	Create(ctx context.Context, item *models.Item) (*models.Item, error)

	// GetByID returns the item with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Item, error)

	// ListVisible returns every item the user may access: authored, directly
	// granted, or reachable through group membership.
	ListVisible(ctx context.Context, userID string) ([]*models.Item, error)

	// Grant records a direct user→item access row. Granting an existing
	// pair is a no-op, not an error: redemption converges on the same state.
	Grant(ctx context.Context, userID, itemID string) error

	// CanAccess answers the access-control predicate: the user authored the
	// item, holds a direct grant, or shares a group with it. Re-evaluated on
	// every call; results are never cached.
	CanAccess(ctx context.Context, userID, itemID string) (bool, error)

	// ListByGroup returns the items categorized into a group.
	ListByGroup(ctx context.Context, groupID string) ([]*models.Item, error)
}
