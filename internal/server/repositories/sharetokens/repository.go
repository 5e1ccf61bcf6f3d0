// Package sharetokens declares the repository contract for one-time share
// tokens. Consumption is an atomic conditional update: under concurrent
// redemption exactly one caller wins.
package sharetokens

import (
	"context"

	"github.com/clione/sikre/internal/server/models"
)

type Repository interface {
	// Create persists a new share token. Duplicate token strings fail with
	// common.ErrorConflict.
	Create(ctx context.Context, token *models.ShareToken) (*models.ShareToken, error)

	// GetByToken returns the record for an opaque token string or
	// common.ErrorNotFound. Never mutates state.
	GetByToken(ctx context.Context, token string) (*models.ShareToken, error)

	// Consume flips used from No to Yes for the given token string and
	// reports whether this call performed the flip. A false result with a
	// nil error means the token was already used (or does not exist).
	Consume(ctx context.Context, token string) (bool, error)
}
