package store

import (
	"context"
	"fmt"
)

const taskColumns = `t.id, t.project_id, t.creator_id, t.title, t.description, t.status, t.priority, t.due_date, t.created_at, t.updated_at`

func (c conn) InsertTask(ctx context.Context, t Task) error {
	ts := now()
	err := c.exec(ctx, `
		INSERT INTO tasks (id, project_id, creator_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.CreatorID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return c.SetTaskAssignees(ctx, t.ID, t.Assignees)
}

// GetTask loads the task with its assignees and checklist. Tasks of
// soft-deleted projects are not found.
func (c conn) GetTask(ctx context.Context, id string) (Task, error) {
	var t Task
	err := c.get(ctx, &t, `
		SELECT `+taskColumns+` FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = ? AND p.deleted_at IS NULL`, id)
	if err != nil {
		return Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	if t.Assignees, err = c.taskAssignees(ctx, id); err != nil {
		return Task{}, err
	}
	if t.Checklist, err = c.ListChecklist(ctx, id); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (c conn) ListTasks(ctx context.Context, projectID string) ([]Task, error) {
	var tasks []Task
	err := c.selectAll(ctx, &tasks, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.project_id = ? ORDER BY t.created_at, t.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].Assignees, err = c.taskAssignees(ctx, tasks[i].ID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (c conn) UpdateTask(ctx context.Context, t Task) error {
	err := c.exec(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ?`, t.Title, t.Description, t.Priority, t.DueDate, now(), t.ID)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	return nil
}

func (c conn) SetTaskStatus(ctx context.Context, id, status string) error {
	if err := c.exec(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, status, now(), id); err != nil {
		return fmt.Errorf("set task status %s: %w", id, err)
	}
	return nil
}

func (c conn) DeleteTask(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (c conn) SetTaskAssignees(ctx context.Context, taskID string, userIDs []string) error {
	if err := c.exec(ctx, `DELETE FROM task_assignees WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task assignees: %w", err)
	}
	for _, userID := range dedupe(userIDs) {
		if err := c.exec(ctx, `INSERT INTO task_assignees (task_id, user_id) VALUES (?, ?)`, taskID, userID); err != nil {
			return fmt.Errorf("insert task assignee: %w", err)
		}
	}
	return nil
}

func (c conn) taskAssignees(ctx context.Context, taskID string) ([]string, error) {
	ids := []string{}
	if err := c.selectAll(ctx, &ids, `SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id`, taskID); err != nil {
		return nil, fmt.Errorf("list task assignees: %w", err)
	}
	return ids, nil
}

func (c conn) InsertChecklistItem(ctx context.Context, item ChecklistItem) (ChecklistItem, error) {
	var next int
	if err := c.get(ctx, &next, `SELECT COALESCE(MAX(sort_order), -1) + 1 FROM checklist_items WHERE task_id = ?`, item.TaskID); err != nil {
		return ChecklistItem{}, fmt.Errorf("next checklist order: %w", err)
	}
	item.SortOrder = next
	item.CreatedAt = now()
	err := c.exec(ctx, `
		INSERT INTO checklist_items (id, task_id, body, is_completed, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.TaskID, item.Body, item.IsCompleted, item.SortOrder, item.CreatedAt,
	)
	if err != nil {
		return ChecklistItem{}, fmt.Errorf("insert checklist item: %w", err)
	}
	return item, nil
}

func (c conn) GetChecklistItem(ctx context.Context, id string) (ChecklistItem, error) {
	var item ChecklistItem
	err := c.get(ctx, &item, `
		SELECT id, task_id, body, is_completed, sort_order, created_at
		FROM checklist_items WHERE id = ?`, id)
	if err != nil {
		return ChecklistItem{}, fmt.Errorf("get checklist item %s: %w", id, err)
	}
	return item, nil
}

// ToggleChecklistItem flips is_completed in a single statement so concurrent
// toggles never write the same value twice.
func (c conn) ToggleChecklistItem(ctx context.Context, id string) error {
	if err := c.exec(ctx, `UPDATE checklist_items SET is_completed = NOT is_completed WHERE id = ?`, id); err != nil {
		return fmt.Errorf("toggle checklist item %s: %w", id, err)
	}
	return nil
}

func (c conn) DeleteChecklistItem(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM checklist_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete checklist item %s: %w", id, err)
	}
	return nil
}

func (c conn) ListChecklist(ctx context.Context, taskID string) ([]ChecklistItem, error) {
	items := []ChecklistItem{}
	err := c.selectAll(ctx, &items, `
		SELECT id, task_id, body, is_completed, sort_order, created_at
		FROM checklist_items WHERE task_id = ? ORDER BY sort_order, created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list checklist: %w", err)
	}
	return items, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
