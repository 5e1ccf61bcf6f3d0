package items

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/clione/sikre/internal/common"
	"github.com/clione/sikre/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewSQLRepository(db), mock, db
}

func TestCreate_GeneratesDefaults(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+items`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.Item{Name: "Banking", AuthorID: "u1"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected generated defaults, got %+v", got)
	}
}

func TestGetByID_NullTags(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "description", "tags", "author_id", "created_at"}).
		AddRow("i1", "Banking", "bank logins", nil, "u1", time.Now())

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+items`).
		WithArgs("i1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "i1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Tags != "" {
		t.Fatalf("NULL tags must scan to empty string, got %q", got.Tags)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+items`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestCanAccess_ScansBool(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS`).
		WithArgs("u1", "i1").
		WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(false))

	allowed, err := repo.CanAccess(context.Background(), "u1", "i1")
	if err != nil {
		t.Fatalf("CanAccess error: %v", err)
	}
	if allowed {
		t.Fatal("expected access denied")
	}
}

func TestGrant_Idempotent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// a second grant affects zero rows and is still not an error
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+user_items.*ON\s+CONFLICT\s+DO\s+NOTHING`).
		WithArgs("u1", "i1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Grant(context.Background(), "u1", "i1"); err != nil {
		t.Fatalf("Grant error: %v", err)
	}
}

func TestListVisible_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+DISTINCT`).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListVisible(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
}
