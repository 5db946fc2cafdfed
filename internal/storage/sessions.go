package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NoahSmiley/fluxchat/internal/domain"
)

// ErrSessionInvalid covers every way a token can fail: unknown, malformed
// record, or expired. The upgrade fails closed on all of them.
var ErrSessionInvalid = errors.New("storage: session invalid or expired")

// Session is the record behind an opaque token.
type Session struct {
	UserID      domain.UserID `json:"userId"`
	DisplayName string        `json:"displayName"`
	ExpiresAt   time.Time     `json:"expiresAt"`
}

// SessionStore validates opaque session tokens presented at upgrade.
type SessionStore interface {
	Validate(ctx context.Context, token string) (Session, error)
}

// RedisSessions reads session records written by the auth service.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(addr, password string, db int) *RedisSessions {
	return &RedisSessions{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
	}
}

func (s *RedisSessions) Validate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionInvalid
	}
	raw, err := s.rdb.Get(ctx, "session:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionInvalid
	}
	if err != nil {
		return Session{}, fmt.Errorf("session lookup: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return Session{}, ErrSessionInvalid
	}
	if !sess.ExpiresAt.After(time.Now()) {
		return Session{}, ErrSessionInvalid
	}
	return sess, nil
}

func (s *RedisSessions) Close() error {
	return s.rdb.Close()
}
