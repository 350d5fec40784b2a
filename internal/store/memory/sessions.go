package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/board-service/internal/security"
)

type session struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// Sessions is an in-memory refresh session registry with the same
// consume-once semantics as security.RedisSessions.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]session
}

func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]session)}
}

func (s *Sessions) Save(_ context.Context, jti string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[jti] = session{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *Sessions) Consume(_ context.Context, jti string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	delete(s.sessions, jti)
	if !ok || time.Now().After(sess.expiresAt) {
		return uuid.Nil, security.ErrSessionNotFound
	}
	return sess.userID, nil
}
