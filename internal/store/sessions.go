package store

import (
	"context"
	"fmt"
	"time"
)

// SaveRefreshSession is the SQL fallback when Redis is not configured.
func (c conn) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	err := c.exec(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`, tokenHash, userID, expiresAt.UTC(), now())
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (c conn) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := c.get(ctx, &user, `
		SELECT u.id, u.email, u.display_name, u.role, u.password_hash, u.department_id, u.is_active, u.created_at
		FROM refresh_sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = ? AND s.expires_at > ? AND u.is_active = ?`, tokenHash, now(), true)
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (c conn) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := c.exec(ctx, `DELETE FROM refresh_sessions WHERE token_hash = ?`, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}
