package groups

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

func (r *SQLRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {

	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO user_groups (id, name, created_at)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, group.ID, group.Name, group.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query :=
		`SELECT id, name, created_at FROM user_groups
		 WHERE id = $1
		 `

	group := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&group.ID, &group.Name, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return group, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	query :=
		`SELECT g.id, g.name, g.created_at
		 FROM user_groups g
		 JOIN group_users gu ON gu.group_id = g.id
		 WHERE gu.user_id = $1
		 ORDER BY g.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) AddUser(ctx context.Context, groupID, userID string) error {
	query :=
		`INSERT INTO group_users (group_id, user_id)
		 VALUES ($1, $2)
		 `

	return r.execAssociation(ctx, query, groupID, userID)
}

func (r *SQLRepository) AddItem(ctx context.Context, groupID, itemID string) error {
	query :=
		`INSERT INTO group_items (group_id, item_id)
		 VALUES ($1, $2)
		 `

	return r.execAssociation(ctx, query, groupID, itemID)
}

func (r *SQLRepository) execAssociation(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		    SELECT 1 FROM group_users
		    WHERE group_id = $1 AND user_id = $2
		 )`

	var member bool
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return member, nil
}
