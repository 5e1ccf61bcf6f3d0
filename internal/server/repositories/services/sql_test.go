package services

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

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+services`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.Service{Name: "checking", ItemID: "i1"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" || got.CreatedAt.IsZero() {
		t.Fatalf("expected generated defaults, got %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+services`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestListByItem_ScansRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "username", "password", "url", "item_id", "created_at"}).
		AddRow("s1", "checking", "alice", "hunter2", "https://bank.example", "i1", created).
		AddRow("s2", "savings", "alice", "hunter3", "https://bank.example", "i1", created)

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+services\s+WHERE\s+item_id`).
		WithArgs("i1").
		WillReturnRows(rows)

	got, err := repo.ListByItem(context.Background(), "i1")
	if err != nil {
		t.Fatalf("ListByItem error: %v", err)
	}
	if len(got) != 2 || got[0].Password != "hunter2" {
		t.Fatalf("unexpected services: %+v", got)
	}
}
