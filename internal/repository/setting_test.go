package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/flowerdaily/internal/models"
)

func setupSettingMock(t *testing.T) (*PostgresSettingRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresSettingRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestUpsertSetting(t *testing.T) {
	repo, mock, cleanup := setupSettingMock(t)
	defer cleanup()

	now := time.Now().UTC()
	s := models.Setting{Key: "ai.api_key", Value: "00ff:aa", Encrypted: true, UpdatedAt: now}
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (key) DO UPDATE SET`)).
		WithArgs("ai.api_key", "00ff:aa", true, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.UpsertSetting(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSetting(t *testing.T) {
	repo, mock, cleanup := setupSettingMock(t)
	defer cleanup()

	now := time.Now().UTC()
	cols := []string{"key", "value", "encrypted", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM settings WHERE key = $1`)).
		WithArgs("ai.model").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("ai.model", "gpt-4o-mini", false, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM settings WHERE key = $1`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(cols))

	s, err := repo.GetSetting(context.Background(), "ai.model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Value != "gpt-4o-mini" || s.Encrypted {
		t.Errorf("unexpected setting: %+v", s)
	}

	if _, err := repo.GetSetting(context.Background(), "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSetting(t *testing.T) {
	repo, mock, cleanup := setupSettingMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM settings WHERE key = $1`)).
		WithArgs("unsplash.access_key").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSetting(context.Background(), "unsplash.access_key"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListSettings(t *testing.T) {
	repo, mock, cleanup := setupSettingMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM settings ORDER BY key`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "encrypted", "updated_at"}).
			AddRow("a", "1", false, now).
			AddRow("b", "00:11", true, now))

	list, err := repo.ListSettings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || !list[1].Encrypted {
		t.Errorf("unexpected settings: %+v", list)
	}
}
