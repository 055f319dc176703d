package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/lib/pq"
)

var userCols = []string{"id", "username", "password_hash", "role", "created_at"}

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestCreateUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now().UTC()
	u := models.User{ID: "u1", Username: "alice", PasswordHash: "argon2id$...", Role: models.RoleAdmin, CreatedAt: now}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, username, password_hash, role, created_at)`)).
		WithArgs("u1", "alice", "argon2id$...", "admin", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})

	err := repo.CreateUser(context.Background(), models.User{ID: "u2", Username: "alice"})
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "bob", "hash", "editor", now))

	u, err := repo.GetUserByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" || u.Role != models.RoleEditor || u.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", u)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	if _, err := repo.GetUserByUsername(context.Background(), "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetUserByUsername_Error(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("carol").
		WillReturnError(errors.New("query failed"))

	_, err := repo.GetUserByUsername(context.Background(), "carol")
	if err == nil || errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected query error, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY username`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "alice", "h1", "admin", now).
			AddRow("u2", "bob", "h2", "editor", now))

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 || users[1].Username != "bob" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $2 WHERE id = $1`)).
		WithArgs("u9", "newhash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdatePasswordHash(context.Background(), "u9", "newhash"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteUser(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
