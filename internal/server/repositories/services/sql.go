package services

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

func (r *SQLRepository) Create(ctx context.Context, service *models.Service) (*models.Service, error) {

	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now()
	}

	query :=
		`INSERT INTO services (id, name, username, password, url, item_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		service.ID, service.Name, service.UserName, service.Password,
		service.URL, service.ItemID, service.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return service, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	query :=
		`SELECT id, name, username, password, url, item_id, created_at FROM services
		 WHERE id = $1
		 `

	service := &models.Service{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&service.ID, &service.Name, &service.UserName, &service.Password,
			&service.URL, &service.ItemID, &service.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return service, nil
}

func (r *SQLRepository) ListByItem(ctx context.Context, itemID string) ([]*models.Service, error) {
	query :=
		`SELECT id, name, username, password, url, item_id, created_at FROM services
		 WHERE item_id = $1
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Service
	for rows.Next() {
		service := &models.Service{}
		if err := rows.Scan(&service.ID, &service.Name, &service.UserName, &service.Password,
			&service.URL, &service.ItemID, &service.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
