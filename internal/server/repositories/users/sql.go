package users

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

// SQLRepository works over both supported engines through dbx.DBTX.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.JoinDate.IsZero() {
		user.JoinDate = time.Now()
	}

	query :=
		`INSERT INTO users (id, username, email, master_password, facebook, google, github, linkedin, twitter, join_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, nullable(user.MasterPassword),
		nullable(user.Facebook), nullable(user.Google), nullable(user.GitHub),
		nullable(user.LinkedIn), nullable(user.Twitter),
		user.JoinDate, user.IsActive)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, email, master_password, join_date, is_active FROM users
		 WHERE id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, email, master_password, join_date, is_active FROM users
		 WHERE username = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, userName))
}

func (r *SQLRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var masterPassword sql.NullString

	err := row.Scan(&user.ID, &user.UserName, &user.Email, &masterPassword, &user.JoinDate, &user.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.MasterPassword = masterPassword.String
	return user, nil
}

func (r *SQLRepository) UpdateMasterPassword(ctx context.Context, userID string, encodedHash string) error {
	query :=
		`UPDATE users SET master_password = $1
		 WHERE id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, encodedHash, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
