package sharetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/dbx"
	"github.com/clione/sikre/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, token *models.ShareToken) (*models.ShareToken, error) {

	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO share_tokens (id, user_id, token, resource, resource_id, email, used, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	email := sql.NullString{String: token.Email, Valid: token.Email != ""}
	expires := sql.NullTime{Time: token.ExpiresAt, Valid: !token.ExpiresAt.IsZero()}

	used := 0
	if token.Used {
		used = 1
	}

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Token, int(token.Resource), token.ResourceID,
		email, used, token.CreatedAt, expires)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return token, nil
}

func (r *SQLRepository) GetByToken(ctx context.Context, tokenString string) (*models.ShareToken, error) {
	query :=
		`SELECT id, user_id, token, resource, resource_id, email, used, created_at, expires_at
		 FROM share_tokens
		 WHERE token = $1
		 `

	token := &models.ShareToken{}
	var (
		resource int
		email    sql.NullString
		used     int
		expires  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, tokenString).
		Scan(&token.ID, &token.UserID, &token.Token, &resource, &token.ResourceID,
			&email, &used, &token.CreatedAt, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	token.Resource = models.ResourceType(resource)
	token.Email = email.String
	token.Used = used != 0
	if expires.Valid {
		token.ExpiresAt = expires.Time
	}

	return token, nil
}

// Consume performs the read-check-flip as one conditional update, so two
// concurrent redemption attempts can never both succeed.
func (r *SQLRepository) Consume(ctx context.Context, tokenString string) (bool, error) {
	query :=
		`UPDATE share_tokens SET used = 1
		 WHERE token = $1 AND used = 0
		 `

	res, err := r.db.ExecContext(ctx, query, tokenString)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}
