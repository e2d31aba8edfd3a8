package store

import (
	"context"
	"errors"
	"fmt"
)

// LockSequence takes a row lock on the prefix sentinel for the rest of the
// transaction. It reports found=false when no sentinel exists yet.
func (c conn) LockSequence(ctx context.Context, prefix string) (string, bool, error) {
	var last string
	err := c.get(ctx, &last, `SELECT last_code FROM project_code_sequences WHERE prefix = ? FOR UPDATE`, prefix)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lock sequence: %w", err)
	}
	return last, true, nil
}

// CreateSequence inserts the sentinel. A concurrent creator fails on the
// primary key, which the allocator treats as a conflict and retries.
func (c conn) CreateSequence(ctx context.Context, prefix, code string) error {
	err := c.exec(ctx, `INSERT INTO project_code_sequences (prefix, last_code, updated_at) VALUES (?, ?, ?)`, prefix, code, now())
	if err != nil {
		return fmt.Errorf("create sequence: %w", err)
	}
	return nil
}

func (c conn) SaveSequence(ctx context.Context, prefix, code string) error {
	err := c.exec(ctx, `UPDATE project_code_sequences SET last_code = ?, updated_at = ? WHERE prefix = ?`, code, now(), prefix)
	if err != nil {
		return fmt.Errorf("save sequence: %w", err)
	}
	return nil
}

// LatestProjectCode includes soft-deleted projects so their codes are never
// reissued.
func (c conn) LatestProjectCode(ctx context.Context, prefix string) (string, bool, error) {
	var code string
	err := c.get(ctx, &code, `
		SELECT code FROM projects WHERE code LIKE ?
		ORDER BY created_at DESC, code DESC LIMIT 1`, prefix+"-%")
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("latest project code: %w", err)
	}
	return code, true, nil
}
