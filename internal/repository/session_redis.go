package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix     = "flowerdaily:session:"
	userSessionKeyPrefix = "flowerdaily:user-sessions:"
)

// RedisSessionRepository stores login sessions in Redis. Keys expire with
// the session, so no cleaner is needed.
type RedisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// RedisOptions holds the connection options for NewRedisSessionRepository.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedisSessionRepository connects to Redis and verifies the connection.
func NewRedisSessionRepository(ctx context.Context, opts RedisOptions) (*RedisSessionRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisSessionRepository{client: client, now: time.Now}, nil
}

type redisSession struct {
	UserID    string      `json:"user_id"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// CreateSession stores a session with a TTL matching its expiry.
func (r *RedisSessionRepository) CreateSession(ctx context.Context, s models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("CreateSession: session already expired")
	}
	b, err := json.Marshal(redisSession{UserID: s.UserID, Role: s.Role, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}

	userKey := userSessionKeyPrefix + s.UserID
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+s.TokenHash, b, ttl)
	pipe.SAdd(ctx, userKey, s.TokenHash)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// GetSession loads a session by token hash.
func (r *RedisSessionRepository) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	b, err := r.client.Get(ctx, sessionKeyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetSession: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("GetSession: decode: %w", err)
	}
	return &models.Session{
		TokenHash: tokenHash,
		UserID:    rs.UserID,
		Role:      rs.Role,
		CreatedAt: rs.CreatedAt,
		ExpiresAt: rs.ExpiresAt,
	}, nil
}

// DeleteSession removes one session.
func (r *RedisSessionRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("DeleteSession: %w", err)
	}
	return nil
}

// DeleteUserSessions revokes every session of a user.
func (r *RedisSessionRepository) DeleteUserSessions(ctx context.Context, userID string) error {
	userKey := userSessionKeyPrefix + userID
	hashes, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("DeleteUserSessions: %w", err)
	}
	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKeyPrefix+h)
	}
	keys = append(keys, userKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("DeleteUserSessions: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisSessionRepository) Close() error {
	return r.client.Close()
}
