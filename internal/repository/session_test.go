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

func setupSessionMock(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresSessionRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestCreateAndGetSession(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := models.Session{TokenHash: "th", UserID: "u1", Role: models.RoleAdmin, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (token_hash, user_id, role, created_at, expires_at)`)).
		WithArgs("th", "u1", "admin", s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE token_hash = $1`)).
		WithArgs("th").
		WillReturnRows(sqlmock.NewRows([]string{"token_hash", "user_id", "role", "created_at", "expires_at"}).
			AddRow("th", "u1", "admin", s.CreatedAt, s.ExpiresAt))

	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	got, err := repo.GetSession(context.Background(), "th")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != "u1" || got.Role != models.RoleAdmin || !got.ExpiresAt.Equal(s.ExpiresAt) {
		t.Errorf("unexpected session: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions WHERE token_hash = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"token_hash", "user_id", "role", "created_at", "expires_at"}))

	if _, err := repo.GetSession(context.Background(), "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSessions(t *testing.T) {
	repo, mock, cleanup := setupSessionMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE token_hash = $1`)).
		WithArgs("th").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnError(errors.New("db down"))

	if err := repo.DeleteSession(context.Background(), "th"); err != nil {
		t.Errorf("DeleteSession of unknown token should not fail: %v", err)
	}
	if err := repo.DeleteUserSessions(context.Background(), "u1"); err == nil {
		t.Error("expected DeleteUserSessions error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewRedisSessionRepository_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisSessionRepository(ctx, RedisOptions{Address: "127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !regexp.MustCompile(`ping redis`).MatchString(err.Error()) {
		t.Errorf("unexpected error: %v", err)
	}
}
