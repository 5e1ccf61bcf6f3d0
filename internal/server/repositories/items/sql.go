package items

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

func (r *SQLRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO items (id, name, description, tags, author_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	tags := sql.NullString{String: item.Tags, Valid: item.Tags != ""}

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.Name, item.Description, tags, item.AuthorID, item.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Item, error) {
	query :=
		`SELECT id, name, description, tags, author_id, created_at FROM items
		 WHERE id = $1
		 `

	item := &models.Item{}
	var tags sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&item.ID, &item.Name, &item.Description, &tags, &item.AuthorID, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	item.Tags = tags.String
	return item, nil
}

func (r *SQLRepository) ListVisible(ctx context.Context, userID string) ([]*models.Item, error) {
	query :=
		`SELECT DISTINCT i.id, i.name, i.description, i.tags, i.author_id, i.created_at
		 FROM items i
		 LEFT JOIN user_items ui ON ui.item_id = i.id AND ui.user_id = $1
		 LEFT JOIN group_items gi ON gi.item_id = i.id
		 LEFT JOIN group_users gu ON gu.group_id = gi.group_id AND gu.user_id = $1
		 WHERE i.author_id = $1 OR ui.user_id IS NOT NULL OR gu.user_id IS NOT NULL
		 ORDER BY i.name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return collectItems(rows)
}

func (r *SQLRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.Item, error) {
	query :=
		`SELECT i.id, i.name, i.description, i.tags, i.author_id, i.created_at
		 FROM items i
		 JOIN group_items gi ON gi.item_id = i.id
		 WHERE gi.group_id = $1
		 ORDER BY i.name
		 `

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*models.Item, error) {
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		item := &models.Item{}
		var tags sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &tags, &item.AuthorID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Tags = tags.String
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) Grant(ctx context.Context, userID, itemID string) error {
	query :=
		`INSERT INTO user_items (user_id, item_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	_, err := r.db.ExecContext(ctx, query, userID, itemID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// CanAccess is the access-control predicate: author, direct grant, or a
// group that both the user and the item belong to.
func (r *SQLRepository) CanAccess(ctx context.Context, userID, itemID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		    SELECT 1 FROM items i
		    WHERE i.id = $2 AND i.author_id = $1
		 ) OR EXISTS (
		    SELECT 1 FROM user_items ui
		    WHERE ui.user_id = $1 AND ui.item_id = $2
		 ) OR EXISTS (
		    SELECT 1 FROM group_users gu
		    JOIN group_items gi ON gi.group_id = gu.group_id
		    WHERE gu.user_id = $1 AND gi.item_id = $2
		 )`

	var allowed bool
	err := r.db.QueryRowContext(ctx, query, userID, itemID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return allowed, nil
}
