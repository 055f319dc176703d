package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/flowerdaily/internal/models"
	"go.uber.org/zap"
)

// SessionTTL is the lifetime of a login session.
const SessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound is returned for unknown or expired session tokens.
	ErrSessionNotFound = errors.New("session not found")
)

// UserStore defines the user persistence operations used by the services.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	DeleteUser(ctx context.Context, id string) error
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

// PasswordHasher produces and checks password digests.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(attempt, digest string) bool
	NeedsRehash(digest string) bool
}

// AuthService logs users in and resolves session tokens.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	hasher   PasswordHasher
	logger   *zap.Logger
	now      func() time.Time

	// decoy is verified against for unknown usernames so that they cost
	// the same hashing work as a wrong password.
	decoyOnce sync.Once
	decoy     string
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, sessions SessionStore, hasher PasswordHasher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
}

// Login checks the credentials and opens a new session. The returned token
// is only ever given to the client; the store keeps its hash.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, models.Session, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		s.hasher.Verify(password, s.decoyDigest())
		return "", models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.Session{}, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", models.Session{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	token, err := newToken()
	if err != nil {
		return "", models.Session{}, err
	}
	now := s.now().UTC()
	session := models.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return "", models.Session{}, fmt.Errorf("create session: %w", err)
	}
	return token, session, nil
}

func (s *AuthService) decoyDigest() string {
	s.decoyOnce.Do(func() {
		digest, err := s.hasher.Hash("flowerdaily-decoy")
		if err != nil {
			s.logger.Warn("failed to prepare decoy digest", zap.Error(err))
			return
		}
		s.decoy = digest
	})
	return s.decoy
}

// rehash upgrades an old digest. Failure does not block the login.
func (s *AuthService) rehash(ctx context.Context, user *models.User, password string) {
	digest, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, digest)
	}
	if err != nil {
		s.logger.Warn("failed to upgrade password digest", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	s.logger.Info("upgraded password digest", zap.String("user_id", user.ID))
}

// Authenticate resolves a session token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.sessions.GetSession(ctx, HashToken(token))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Logout deletes the session of token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, HashToken(token))
}

// HashToken returns the hex SHA-256 of a session token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
