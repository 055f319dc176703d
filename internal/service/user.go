package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/secret"
	"github.com/google/uuid"
)

var (
	// ErrWeakPassword is returned when a password fails the complexity rule.
	ErrWeakPassword = errors.New("password must be longer than 8 characters and mix upper case, lower case and symbols")
	// ErrInvalidRole is returned for an unknown role.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUserExists is returned when the username is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUsername is returned for an empty username.
	ErrInvalidUsername = errors.New("username is required")
)

// UserService manages back-office accounts.
type UserService struct {
	users    UserStore
	sessions SessionStore
	hasher   PasswordHasher
	now      func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore, sessions SessionStore, hasher PasswordHasher) *UserService {
	return &UserService{users: users, sessions: sessions, hasher: hasher, now: time.Now}
}

// Create registers a new user.
func (s *UserService) Create(ctx context.Context, username, password string, role models.Role) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, ErrInvalidUsername
	}
	if !role.Valid() {
		return models.User{}, ErrInvalidRole
	}
	if !secret.CheckComplexity(password) {
		return models.User{}, ErrWeakPassword
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: digest,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, err
	}
	return u, nil
}

// List returns every user ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}

// Delete removes a user and every session it holds.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.DeleteUserSessions(ctx, id); err != nil {
		return err
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ResetPassword replaces the password of a user and logs it out everywhere.
func (s *UserService) ResetPassword(ctx context.Context, id, password string) error {
	if !secret.CheckComplexity(password) {
		return ErrWeakPassword
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, id, digest); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.sessions.DeleteUserSessions(ctx, id)
}
