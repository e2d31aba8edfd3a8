// Package session stores refresh-token sessions in Redis, or in SQL when no
// Redis is configured.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intranet/api/internal/store"
)

var ErrNotFound = errors.New("refresh session not found or expired")

// Store is the contract shared by both backends.
type Store interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type sqlSessions interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// SQLStore adapts the relational refresh_sessions table.
type SQLStore struct {
	db sqlSessions
}

func NewSQLStore(db sqlSessions) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	return s.db.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (s *SQLStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	user, err := s.db.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *SQLStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return s.db.RevokeRefreshSession(ctx, tokenHash)
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
)
