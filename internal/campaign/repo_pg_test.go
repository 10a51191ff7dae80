package campaign

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"campaign-backend/internal/suggestion"
	"campaign-backend/internal/tier"
)

var runColumns = []string{"id", "profile", "confidence", "source", "requested", "succeeded", "outputs", "created_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaigns")).
		WithArgs("run-1", "alto", 100, "manual", 2, 1, []byte(`["/output/x.png"]`), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), Run{
		ID: "run-1", Tier: tier.High, Confidence: 100, Source: suggestion.SourceManual,
		Requested: 2, Succeeded: 1, Outputs: []string{"/output/x.png"}, CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM campaigns")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-1", "medio", 70, "fallback", 2, 2, []byte(`["/output/a.png","/output/b.png"]`), created))

	run, err := repo.GetByID(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if run.Tier != tier.Mid || run.Source != suggestion.SourceFallback || len(run.Outputs) != 2 {
		t.Fatalf("unexpected run %+v", run)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM campaigns")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-2", "baixo", 60, "advisory", 0, 0, []byte(`[]`), created))

	runs, err := repo.List(context.Background(), 500, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 1 || runs[0].Tier != tier.Low || len(runs[0].Outputs) != 0 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoRejectsUnknownProfile(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM campaigns")).
		WithArgs("run-3").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("run-3", "luxo", 60, "advisory", 0, 0, []byte(`[]`), time.Now()))

	if _, err := repo.GetByID(context.Background(), "run-3"); !errors.Is(err, tier.ErrInvalid) {
		t.Fatalf("expected tier.ErrInvalid, got %v", err)
	}
}
