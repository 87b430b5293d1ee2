// Package session owns the server side of the dashboard session: an opaque
// refresh token mapped to the cached user profile. The store is the single
// writer; middleware and handlers only read.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shopadmin/pkg/logger"
)

// ErrNotFound is returned when no session exists for a token.
var ErrNotFound = errors.New("session: not found")

// User is the profile cached alongside the token.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	BranchID *string `json:"branch_id,omitempty"`
}

// Session pairs a refresh token with its cached profile.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store persists sessions in redis with the refresh TTL. A broken or absent
// redis degrades every query to "not authenticated"; it never panics.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewStore builds a session store with the given refresh TTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, log: logger.Get()}
}

func sessionKey(token string) string { return "session:" + token }
func userKey(userID string) string   { return "user_sessions:" + userID }

// Save persists the token and profile atomically; both expire together.
func (s *Store) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("session: encode profile: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.Token), payload, s.ttl)
	pipe.SAdd(ctx, userKey(sess.User.ID), sess.Token)
	pipe.Expire(ctx, userKey(sess.User.ID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

// Get resolves a token into its session. Missing or expired tokens return
// ErrNotFound.
func (s *Store) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("session: decode profile: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// IsAuthenticated reports whether a non-expired session exists for token.
// Storage failures count as not authenticated.
func (s *Store) IsAuthenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	_, err := s.Get(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Warn().Err(err).Msg("session store unavailable, treating as unauthenticated")
	}
	return err == nil
}

// Clear removes one session. Clearing an unknown token is not an error.
func (s *Store) Clear(ctx context.Context, token string) error {
	sess, err := s.Get(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userKey(sess.User.ID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// ClearAllForUser revokes every session of one user (password change, forced
// logout).
func (s *Store) ClearAllForUser(ctx context.Context, userID string) error {
	tokens, err := s.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("session: list user sessions: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: clear all: %w", err)
	}
	return nil
}
