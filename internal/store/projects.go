package store

import (
	"context"
	"fmt"
	"time"

	"intranet/api/internal/progress"
)

const projectColumns = `id, code, name, description, status, priority, manager_id, progress, deleted_at, created_at, updated_at`

func (c conn) InsertProject(ctx context.Context, p Project) error {
	ts := now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = ts
	}
	err := c.exec(ctx, `
		INSERT INTO projects (id, code, name, description, status, priority, manager_id, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, p.Name, p.Description, p.Status, p.Priority, p.ManagerID, p.Progress, p.CreatedAt, ts,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject returns ErrNotFound for soft-deleted projects.
func (c conn) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := c.get(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// ListProjects returns every live project when all is set, otherwise only the
// projects userID manages or belongs to.
func (c conn) ListProjects(ctx context.Context, userID string, all bool) ([]Project, error) {
	var (
		projects []Project
		err      error
	)
	if all {
		err = c.selectAll(ctx, &projects, `
			SELECT `+projectColumns+` FROM projects
			WHERE deleted_at IS NULL
			ORDER BY created_at DESC, code DESC`)
	} else {
		err = c.selectAll(ctx, &projects, `
			SELECT `+projectColumns+` FROM projects
			WHERE deleted_at IS NULL
			  AND (manager_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?))
			ORDER BY created_at DESC, code DESC`, userID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (c conn) ListActiveProjectIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.selectAll(ctx, &ids, `SELECT id FROM projects WHERE deleted_at IS NULL ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	return ids, nil
}

func (c conn) UpdateProject(ctx context.Context, p Project) error {
	err := c.exec(ctx, `
		UPDATE projects SET name = ?, description = ?, priority = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		p.Name, p.Description, p.Priority, now(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	return nil
}

func (c conn) SetProjectStatus(ctx context.Context, id, status string) error {
	err := c.exec(ctx, `UPDATE projects SET status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, status, now(), id)
	if err != nil {
		return fmt.Errorf("set project status %s: %w", id, err)
	}
	return nil
}

func (c conn) SetProjectProgress(ctx context.Context, id string, pct int) error {
	err := c.exec(ctx, `UPDATE projects SET progress = ?, updated_at = ? WHERE id = ?`, pct, now(), id)
	if err != nil {
		return fmt.Errorf("set project progress %s: %w", id, err)
	}
	return nil
}

func (c conn) SoftDeleteProject(ctx context.Context, id string, at time.Time) error {
	err := c.exec(ctx, `UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, at, at, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// PutProjectMember inserts the membership or replaces its role.
func (c conn) PutProjectMember(ctx context.Context, m ProjectMember) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	if err := c.exec(ctx, `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, m.ProjectID, m.UserID); err != nil {
		return fmt.Errorf("reset project member: %w", err)
	}
	err := c.exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role, created_at)
		VALUES (?, ?, ?, ?)`, m.ProjectID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project member: %w", err)
	}
	return nil
}

func (c conn) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	if err := c.exec(ctx, `DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID); err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	return nil
}

func (c conn) ListProjectMembers(ctx context.Context, projectID string) ([]ProjectMember, error) {
	var members []ProjectMember
	err := c.selectAll(ctx, &members, `
		SELECT project_id, user_id, role, created_at FROM project_members
		WHERE project_id = ? ORDER BY created_at, user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	return members, nil
}

type completionRow struct {
	Total     int `db:"total"`
	Completed int `db:"completed"`
}

// ProjectCounts reads task and checklist completion for one project. A task
// counts as completed when its status is Done in any letter case.
func (c conn) ProjectCounts(ctx context.Context, projectID string) (tasks, checklist progress.Counts, err error) {
	var row completionRow
	err = c.get(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN LOWER(status) = 'done' THEN 1 ELSE 0 END), 0) AS completed
		FROM tasks WHERE project_id = ?`, projectID)
	if err != nil {
		return progress.Counts{}, progress.Counts{}, fmt.Errorf("count tasks: %w", err)
	}
	tasks = progress.Counts{Total: row.Total, Completed: row.Completed}

	row = completionRow{}
	err = c.get(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN ci.is_completed THEN 1 ELSE 0 END), 0) AS completed
		FROM checklist_items ci
		JOIN tasks t ON t.id = ci.task_id
		WHERE t.project_id = ?`, projectID)
	if err != nil {
		return progress.Counts{}, progress.Counts{}, fmt.Errorf("count checklist items: %w", err)
	}
	checklist = progress.Counts{Total: row.Total, Completed: row.Completed}
	return tasks, checklist, nil
}
