package store

import (
	"context"
	"fmt"
	"strings"
)

const userColumns = `id, email, display_name, role, password_hash, department_id, is_active, created_at`

func (c conn) InsertUser(ctx context.Context, user User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	err := c.exec(ctx, `
		INSERT INTO users (id, email, display_name, role, password_hash, department_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, strings.ToLower(strings.TrimSpace(user.Email)), user.DisplayName, user.Role,
		user.PasswordHash, user.DepartmentID, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (c conn) GetUserByID(ctx context.Context, id string) (User, error) {
	var user User
	if err := c.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

func (c conn) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := c.get(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (c conn) ListUsersByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := c.in(`SELECT `+userColumns+` FROM users WHERE id IN (?) ORDER BY display_name`, ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	var users []User
	if err := c.selectAll(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
