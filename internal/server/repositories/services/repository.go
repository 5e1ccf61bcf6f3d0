// Package services declares the repository contract for stored credential
// records. Access to a service is always inherited from its parent item.
package services

import (
	"context"

	"github.com/clione/sikre/internal/server/models"
)

type Repository interface {
	// Create persists a new service under its parent item. A missing parent
	// fails with common.ErrorNotFound.
	Create(ctx context.Context, service *models.Service) (*models.Service, error)

	// GetByID returns the service with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Service, error)

	// ListByItem returns the services stored under an item.
	ListByItem(ctx context.Context, itemID string) ([]*models.Service, error)
}
