// Package seed fills a vault store with generated sample data: two known
// accounts and a tree of groups, items and services. Useful for local
// development and demo environments, never for production stores.
package seed

import (
	"context"
	"fmt"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/logging"
	"github.com/clione/sikre/internal/server/config"
	"github.com/clione/sikre/internal/server/models"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
	"github.com/clione/sikre/internal/server/services"
)

// Params controls the size of the generated tree and the master password
// assigned to the two sample accounts.
type Params struct {
	Groups          int
	ItemsPerGroup   int
	ServicesPerItem int
	MasterPassword  string
}

// DefaultParams mirrors the historical sample set: five groups of ten items
// with four services each.
func DefaultParams() Params {
	return Params{Groups: 5, ItemsPerGroup: 10, ServicesPerItem: 4}
}

// Generate populates the store. The primary account authors everything; the
// secondary account receives a direct grant on every generated item, so both
// sides of the access predicate have data to exercise.
func Generate(ctx context.Context, m repomanager.RepositoryManager, cfg *config.Config, p Params, logger logging.Logger) error {

	us := services.NewUserService(m.Users(), cfg)
	vault := services.NewVaultService(m)

	dummy, err := us.Register(ctx, "dummy", "dummy@example.com", p.MasterPassword)
	if err != nil {
		return fmt.Errorf("error creating primary user: %w", err)
	}

	second, err := us.Register(ctx, "second", "example@example.com", p.MasterPassword)
	if err != nil {
		return fmt.Errorf("error creating secondary user: %w", err)
	}

	logger.Info(ctx, "created sample accounts", "primary", dummy.UserName, "secondary", second.UserName)

	for g := 0; g < p.Groups; g++ {

		name, err := common.MakeRandHexString(5)
		if err != nil {
			return err
		}

		group, err := vault.CreateGroup(ctx, dummy.ID, "group-"+name)
		if err != nil {
			return fmt.Errorf("error creating group: %w", err)
		}

		logger.Info(ctx, "creating group", "name", group.Name, "remaining", p.Groups-g-1)

		for i := 0; i < p.ItemsPerGroup; i++ {

			name, err := common.MakeRandHexString(8)
			if err != nil {
				return err
			}

			item, err := vault.CreateItem(ctx, dummy.ID, "item-"+name, "generated item "+name, "sample")
			if err != nil {
				return fmt.Errorf("error creating item: %w", err)
			}

			if err := vault.AddItemToGroup(ctx, dummy.ID, group.ID, item.ID); err != nil {
				return fmt.Errorf("error categorizing item: %w", err)
			}

			if err := m.Items().Grant(ctx, second.ID, item.ID); err != nil {
				return fmt.Errorf("error granting item: %w", err)
			}

			for s := 0; s < p.ServicesPerItem; s++ {

				name, err := common.MakeRandHexString(8)
				if err != nil {
					return err
				}
				password, err := common.MakeRandHexString(4)
				if err != nil {
					return err
				}

				_, err = vault.CreateService(ctx, dummy.ID, &models.Service{
					Name:     "service-" + name,
					UserName: "user-" + name,
					Password: password,
					URL:      "https://" + name + ".example.com",
					ItemID:   item.ID,
				})
				if err != nil {
					return fmt.Errorf("error creating service: %w", err)
				}
			}
		}
	}

	logger.Info(ctx, "database generation completed")
	return nil
}
