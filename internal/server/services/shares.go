package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/dbx"
	"github.com/clione/sikre/internal/server/models"
	grouprepo "github.com/clione/sikre/internal/server/repositories/groups"
	itemrepo "github.com/clione/sikre/internal/server/repositories/items"
	"github.com/clione/sikre/internal/server/repositories/repomanager"
	servicerepo "github.com/clione/sikre/internal/server/repositories/services"
	tokenrepo "github.com/clione/sikre/internal/server/repositories/sharetokens"
)

// shareTokenBytes is the entropy of the opaque token string; the encoded
// string is twice as long.
const shareTokenBytes = 32

// ShareService issues, validates and redeems one-time share tokens.
// Redemption runs in a single transaction around an atomic conditional
// update, so under concurrent attempts exactly one caller wins.
type ShareService struct {
	manager  repomanager.RepositoryManager
	tokens   tokenrepo.Repository
	items    itemrepo.Repository
	services servicerepo.Repository
	groups   grouprepo.Repository
	validity time.Duration
	now      func() time.Time
}

// NewShareService builds a ShareService. A zero validity means issued
// tokens never expire.
func NewShareService(m repomanager.RepositoryManager, validity time.Duration) *ShareService {
	return &ShareService{
		manager:  m,
		tokens:   m.ShareTokens(),
		items:    m.Items(),
		services: m.Services(),
		groups:   m.Groups(),
		validity: validity,
		now:      time.Now,
	}
}

// ValidationResult is the outcome of a side-effect-free token check. A used
// or expired token yields Valid=false, not an error; only a token string
// that was never issued is ErrorNotFound.
type ValidationResult struct {
	Valid      bool
	Resource   models.ResourceType
	ResourceID string
	IssuerID   string
}

// Issue creates a share token for a resource the issuer can access. The
// issuer must hold access to the shared item (directly or through the
// service's parent item) or be a member of the shared group.
func (s *ShareService) Issue(ctx context.Context, issuerID string, resource models.ResourceType, resourceID, email string) (*models.ShareToken, error) {

	if !resource.Valid() {
		return nil, fmt.Errorf("unknown resource type %d", int(resource))
	}

	if err := s.checkIssuerAccess(ctx, issuerID, resource, resourceID); err != nil {
		return nil, err
	}

	tokenString, err := common.MakeRandHexString(shareTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	token := &models.ShareToken{
		UserID:     issuerID,
		Token:      tokenString,
		Resource:   resource,
		ResourceID: resourceID,
		Email:      email,
	}

	if s.validity > 0 {
		token.ExpiresAt = s.now().Add(s.validity)
	}

	return s.tokens.Create(ctx, token)
}

func (s *ShareService) checkIssuerAccess(ctx context.Context, issuerID string, resource models.ResourceType, resourceID string) error {

	switch resource {

	case models.ResourceItem:
		if _, err := s.items.GetByID(ctx, resourceID); err != nil {
			return err
		}
		ok, err := s.items.CanAccess(ctx, issuerID, resourceID)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorPermissionDenied
		}

	case models.ResourceService:
		svc, err := s.services.GetByID(ctx, resourceID)
		if err != nil {
			return err
		}
		ok, err := s.items.CanAccess(ctx, issuerID, svc.ItemID)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorPermissionDenied
		}

	case models.ResourceCategory:
		if _, err := s.groups.GetByID(ctx, resourceID); err != nil {
			return err
		}
		member, err := s.groups.IsMember(ctx, resourceID, issuerID)
		if err != nil {
			return err
		}
		if !member {
			return common.ErrorPermissionDenied
		}
	}

	return nil
}

// Validate checks a token without consuming it. Calling it any number of
// times changes nothing.
func (s *ShareService) Validate(ctx context.Context, tokenString string) (*ValidationResult, error) {

	token, err := s.tokens.GetByToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Resource:   token.Resource,
		ResourceID: token.ResourceID,
		IssuerID:   token.UserID,
	}

	if token.Used || token.Expired(s.now()) {
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// Redeem consumes a token and grants the redeeming user access to the
// shared resource: a direct item grant for item and service shares, group
// membership for category shares. The consumption and the grant are one
// transaction; an already-used or expired token is ErrorTokenUsed.
func (s *ShareService) Redeem(ctx context.Context, tokenString, userID string) (*models.ShareToken, error) {

	var redeemed *models.ShareToken

	err := dbx.WithTx(ctx, s.manager.Conn(), nil, func(ctx context.Context, tx dbx.DBTX) error {

		tokens := tokenrepo.NewSQLRepository(tx)

		token, err := tokens.GetByToken(ctx, tokenString)
		if err != nil {
			return err
		}

		if token.Expired(s.now()) {
			return common.ErrorTokenUsed
		}

		ok, err := tokens.Consume(ctx, tokenString)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrorTokenUsed
		}

		if err := s.grant(ctx, tx, token, userID); err != nil {
			return err
		}

		token.Used = true
		redeemed = token
		return nil
	})

	if err != nil {
		return nil, err
	}

	return redeemed, nil
}

// grant records the access produced by a successful redemption, within the
// redemption transaction.
func (s *ShareService) grant(ctx context.Context, tx dbx.DBTX, token *models.ShareToken, userID string) error {

	items := itemrepo.NewSQLRepository(tx)

	switch token.Resource {

	case models.ResourceItem:
		return items.Grant(ctx, userID, token.ResourceID)

	case models.ResourceService:
		svc, err := servicerepo.NewSQLRepository(tx).GetByID(ctx, token.ResourceID)
		if err != nil {
			return err
		}
		return items.Grant(ctx, userID, svc.ItemID)

	case models.ResourceCategory:
		err := grouprepo.NewSQLRepository(tx).AddUser(ctx, token.ResourceID, userID)
		if errors.Is(err, common.ErrorConflict) {
			// already a member, redemption converges
			return nil
		}
		return err
	}

	return fmt.Errorf("unknown resource type %d", int(token.Resource))
}
