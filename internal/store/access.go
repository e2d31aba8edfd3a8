package store

import (
	"context"
	"errors"
	"fmt"

	"intranet/api/internal/policy"
)

// The methods below implement policy.Lookup. Absent rows report found=false;
// only driver errors are returned.

func (c conn) ProjectAccess(ctx context.Context, projectID, userID string) (policy.ProjectAccess, bool, error) {
	var managerID string
	err := c.get(ctx, &managerID, `SELECT manager_id FROM projects WHERE id = ? AND deleted_at IS NULL`, projectID)
	if errors.Is(err, ErrNotFound) {
		return policy.ProjectAccess{}, false, nil
	}
	if err != nil {
		return policy.ProjectAccess{}, false, fmt.Errorf("load project access: %w", err)
	}
	access := policy.ProjectAccess{ManagerID: managerID}

	var role string
	err = c.get(ctx, &role, `SELECT role FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	switch {
	case err == nil:
		access.IsMember = true
		access.MemberRole = role
	case !errors.Is(err, ErrNotFound):
		return policy.ProjectAccess{}, false, fmt.Errorf("load project membership: %w", err)
	}
	return access, true, nil
}

func (c conn) TaskAccess(ctx context.Context, taskID, userID string) (policy.TaskAccess, bool, error) {
	var projectID string
	err := c.get(ctx, &projectID, `SELECT project_id FROM tasks WHERE id = ?`, taskID)
	if errors.Is(err, ErrNotFound) {
		return policy.TaskAccess{}, false, nil
	}
	if err != nil {
		return policy.TaskAccess{}, false, fmt.Errorf("load task access: %w", err)
	}
	project, found, err := c.ProjectAccess(ctx, projectID, userID)
	if err != nil || !found {
		return policy.TaskAccess{}, false, err
	}

	var assigned int
	err = c.get(ctx, &assigned, `SELECT COUNT(*) FROM task_assignees WHERE task_id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return policy.TaskAccess{}, false, fmt.Errorf("load task assignment: %w", err)
	}
	return policy.TaskAccess{ProjectID: projectID, Project: project, IsAssignee: assigned > 0}, true, nil
}

type meetingAccessRow struct {
	CreatorID  string `db:"creator_id"`
	AccessMode string `db:"access_mode"`
}

func (c conn) MeetingAccess(ctx context.Context, meetingID, userID string) (policy.MeetingAccess, bool, error) {
	var row meetingAccessRow
	err := c.get(ctx, &row, `SELECT creator_id, access_mode FROM meetings WHERE id = ?`, meetingID)
	if errors.Is(err, ErrNotFound) {
		return policy.MeetingAccess{}, false, nil
	}
	if err != nil {
		return policy.MeetingAccess{}, false, fmt.Errorf("load meeting access: %w", err)
	}
	var invited int
	err = c.get(ctx, &invited, `SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = ? AND user_id = ?`, meetingID, userID)
	if err != nil {
		return policy.MeetingAccess{}, false, fmt.Errorf("load meeting participation: %w", err)
	}
	return policy.MeetingAccess{CreatorID: row.CreatorID, AccessMode: row.AccessMode, IsParticipant: invited > 0}, true, nil
}

type bookingAccessRow struct {
	CreatorID string `db:"creator_id"`
	Status    string `db:"status"`
}

func (c conn) BookingAccess(ctx context.Context, bookingID string) (policy.BookingAccess, bool, error) {
	var row bookingAccessRow
	err := c.get(ctx, &row, `SELECT creator_id, status FROM bookings WHERE id = ?`, bookingID)
	if errors.Is(err, ErrNotFound) {
		return policy.BookingAccess{}, false, nil
	}
	if err != nil {
		return policy.BookingAccess{}, false, fmt.Errorf("load booking access: %w", err)
	}
	return policy.BookingAccess{CreatorID: row.CreatorID, Status: row.Status}, true, nil
}

func (c conn) ForumPostAuthor(ctx context.Context, postID string) (string, bool, error) {
	return c.authorOf(ctx, `SELECT author_id FROM forum_posts WHERE id = ?`, postID)
}

func (c conn) NewsArticleAuthor(ctx context.Context, articleID string) (string, bool, error) {
	return c.authorOf(ctx, `SELECT author_id FROM news_articles WHERE id = ?`, articleID)
}

func (c conn) authorOf(ctx context.Context, query, id string) (string, bool, error) {
	var authorID string
	err := c.get(ctx, &authorID, query, id)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load author: %w", err)
	}
	return authorID, true, nil
}
