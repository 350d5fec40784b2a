package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned for a refresh token id that was never
// stored, has expired, or was already rotated.
var ErrSessionNotFound = errors.New("refresh session not found")

const sessionKeyPrefix = "refresh:"

// RedisSessions tracks live refresh tokens by jti. Consuming a session
// deletes it, so every refresh token can be rotated exactly once.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (s *RedisSessions) Save(ctx context.Context, jti string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKeyPrefix+jti, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RedisSessions) Consume(ctx context.Context, jti string) (uuid.UUID, error) {
	raw, err := s.rdb.GetDel(ctx, sessionKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume refresh session: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume refresh session: %w", err)
	}
	return id, nil
}
