package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/dbx"
	"github.com/clione/sikre/internal/server/models"
	grouprepo "github.com/clione/sikre/internal/server/repositories/groups"
	itemrepo "github.com/clione/sikre/internal/server/repositories/items"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
	servicerepo "github.com/clione/sikre/internal/server/repositories/services"
)

// VaultService implements the item, service and group operations. Every read
// or write on another user's data goes through the access predicate first;
// the predicate is evaluated per call and never cached.
type VaultService struct {
	manager  repomanager.RepositoryManager
	groups   grouprepo.Repository
	items    itemrepo.Repository
	services servicerepo.Repository
}

func NewVaultService(m repomanager.RepositoryManager) *VaultService {
	return &VaultService{
		manager:  m,
		groups:   m.Groups(),
		items:    m.Items(),
		services: m.Services(),
	}
}

// CreateGroup creates a group and enrolls the creator as its first member.
// Both writes happen in one transaction.
func (s *VaultService) CreateGroup(ctx context.Context, callerID, name string) (*models.Group, error) {

	var created *models.Group

	err := dbx.WithTx(ctx, s.manager.Conn(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := grouprepo.NewSQLRepository(tx)

		group, err := repo.Create(ctx, &models.Group{Name: name})
		if err != nil {
			return err
		}

		if err := repo.AddUser(ctx, group.ID, callerID); err != nil {
			return err
		}

		created = group
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrorConflict) || errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating group: %w", err)
	}

	return created, nil
}

// ListGroups returns the groups the caller is a member of.
func (s *VaultService) ListGroups(ctx context.Context, callerID string) ([]*models.Group, error) {
	return s.groups.ListByUser(ctx, callerID)
}

// AddUserToGroup enrolls a user into a group. Only existing members may
// enroll others.
func (s *VaultService) AddUserToGroup(ctx context.Context, callerID, groupID, userID string) error {

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return err
	}

	member, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if !member {
		return common.ErrorPermissionDenied
	}

	return s.groups.AddUser(ctx, groupID, userID)
}

// AddItemToGroup categorizes an item into a group. The caller must be a
// member of the group and hold access to the item.
func (s *VaultService) AddItemToGroup(ctx context.Context, callerID, groupID, itemID string) error {

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return err
	}

	member, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if !member {
		return common.ErrorPermissionDenied
	}

	ok, err := s.items.CanAccess(ctx, callerID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorPermissionDenied
	}

	return s.groups.AddItem(ctx, groupID, itemID)
}

// ListGroupItems returns the items categorized into a group, members only.
func (s *VaultService) ListGroupItems(ctx context.Context, callerID, groupID string) ([]*models.Item, error) {

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	member, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, common.ErrorPermissionDenied
	}

	return s.items.ListByGroup(ctx, groupID)
}

// CreateItem creates an item authored by the caller. The author holds access
// from the moment of creation without any association rows.
func (s *VaultService) CreateItem(ctx context.Context, callerID, name, description, tags string) (*models.Item, error) {
	return s.items.Create(ctx, &models.Item{
		Name:        name,
		Description: description,
		Tags:        tags,
		AuthorID:    callerID,
	})
}

// ListItems returns every item visible to the caller: authored, directly
// granted, or reachable through a shared group.
func (s *VaultService) ListItems(ctx context.Context, callerID string) ([]*models.Item, error) {
	return s.items.ListVisible(ctx, callerID)
}

// GetItem returns an item together with its services, credentials included.
// A missing item is ErrorNotFound; an existing item the caller may not read
// is ErrorPermissionDenied.
func (s *VaultService) GetItem(ctx context.Context, callerID, itemID string) (*models.Item, []*models.Service, error) {

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	ok, err := s.items.CanAccess(ctx, callerID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, common.ErrorPermissionDenied
	}

	svcs, err := s.services.ListByItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	return item, svcs, nil
}

// CreateService stores a credential under an item the caller may access.
func (s *VaultService) CreateService(ctx context.Context, callerID string, service *models.Service) (*models.Service, error) {

	if _, err := s.items.GetByID(ctx, service.ItemID); err != nil {
		return nil, err
	}

	ok, err := s.items.CanAccess(ctx, callerID, service.ItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorPermissionDenied
	}

	return s.services.Create(ctx, service)
}

// CanAccessItem answers the access predicate for an item.
func (s *VaultService) CanAccessItem(ctx context.Context, callerID, itemID string) (bool, error) {
	return s.items.CanAccess(ctx, callerID, itemID)
}

// CanAccessService answers the access predicate for a service by checking
// its parent item. Services carry no access rows of their own.
func (s *VaultService) CanAccessService(ctx context.Context, callerID, serviceID string) (bool, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return false, err
	}
	return s.items.CanAccess(ctx, callerID, svc.ItemID)
}
