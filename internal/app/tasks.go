package app

import (
	"context"
	"strings"
	"time"

	"intranet/api/internal/policy"
	"intranet/api/internal/store"
	"intranet/api/internal/util"
)

const taskStatusDone = "Done"

var taskStatuses = map[string]string{
	"to do":       "To Do",
	"in progress": "In Progress",
	"review":      "Review",
	"done":        taskStatusDone,
}

func normalizeTaskStatus(value string) (string, bool) {
	status, ok := taskStatuses[strings.ToLower(strings.TrimSpace(value))]
	return status, ok
}

func isDone(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), taskStatusDone)
}

type CreateTaskInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=10000"`
	Status      string     `json:"status" validate:"omitempty,max=32"`
	Priority    string     `json:"priority" validate:"omitempty,max=32"`
	DueDate     *time.Time `json:"dueDate"`
	Assignees   []string   `json:"assignees" validate:"omitempty,dive,required,max=64"`
	Checklist   []string   `json:"checklist" validate:"omitempty,dive,required,max=500"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	Priority    *string    `json:"priority" validate:"omitempty,min=1,max=32"`
	DueDate     *time.Time `json:"dueDate"`
	Assignees   *[]string  `json:"assignees"`
}

func (s *Service) CreateTask(ctx context.Context, actor policy.Actor, projectID string, in CreateTaskInput) (store.Task, error) {
	if err := s.require(ctx, policy.KindTask, policy.Create, actor, projectID); err != nil {
		return store.Task{}, err
	}
	if err := validateInput(in); err != nil {
		return store.Task{}, err
	}
	status := "To Do"
	if in.Status != "" {
		normalized, ok := normalizeTaskStatus(in.Status)
		if !ok {
			return store.Task{}, validationError("Unknown task status", map[string]string{"status": in.Status})
		}
		status = normalized
	}
	priority := strings.TrimSpace(in.Priority)
	if priority == "" {
		priority = defaultPriority
	}

	task := store.Task{
		ID:          util.NewID(),
		ProjectID:   projectID,
		CreatorID:   actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
		Assignees:   in.Assignees,
	}
	err := s.store.WithTx(ctx, func(r repo) error {
		project, err := r.GetProject(ctx, projectID)
		if err != nil {
			return missing("Project", err)
		}
		if err := checkAssignees(ctx, r, project, task.Assignees); err != nil {
			return err
		}
		if err := r.InsertTask(ctx, task); err != nil {
			return err
		}
		for _, text := range in.Checklist {
			if _, err := r.InsertChecklistItem(ctx, store.ChecklistItem{
				ID:     util.NewID(),
				TaskID: task.ID,
				Body:   strings.TrimSpace(text),
			}); err != nil {
				return err
			}
		}
		return s.recomputeProgressTx(ctx, r, projectID, "task_created")
	})
	if err != nil {
		return store.Task{}, err
	}
	return s.getTask(ctx, task.ID)
}

// checkAssignees requires every assignee to belong to the project.
func checkAssignees(ctx context.Context, r repo, project store.Project, assignees []string) error {
	if len(assignees) == 0 {
		return nil
	}
	members, err := r.ListProjectMembers(ctx, project.ID)
	if err != nil {
		return err
	}
	allowed := map[string]bool{project.ManagerID: true}
	for _, m := range members {
		allowed[m.UserID] = true
	}
	var outsiders []string
	for _, id := range assignees {
		if !allowed[id] {
			outsiders = append(outsiders, id)
		}
	}
	if len(outsiders) > 0 {
		return validationError("Assignees must be project members", map[string]any{"assignees": outsiders})
	}
	return nil
}

func (s *Service) GetTask(ctx context.Context, actor policy.Actor, taskID string) (store.Task, error) {
	if err := s.require(ctx, policy.KindTask, policy.View, actor, taskID); err != nil {
		return store.Task{}, err
	}
	return s.getTask(ctx, taskID)
}

func (s *Service) getTask(ctx context.Context, taskID string) (store.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, missing("Task", err)
	}
	return task, nil
}

func (s *Service) ListTasks(ctx context.Context, actor policy.Actor, projectID string) ([]store.Task, error) {
	if err := s.require(ctx, policy.KindProject, policy.View, actor, projectID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, missing("Project", err)
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	return tasks, nil
}

func (s *Service) UpdateTask(ctx context.Context, actor policy.Actor, taskID string, in UpdateTaskInput) (store.Task, error) {
	if err := s.require(ctx, policy.KindTask, policy.Edit, actor, taskID); err != nil {
		return store.Task{}, err
	}
	if err := validateInput(in); err != nil {
		return store.Task{}, err
	}
	err := s.store.WithTx(ctx, func(r repo) error {
		task, err := r.GetTask(ctx, taskID)
		if err != nil {
			return missing("Task", err)
		}
		if in.Title != nil {
			task.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			task.Description = *in.Description
		}
		if in.Priority != nil {
			task.Priority = strings.TrimSpace(*in.Priority)
		}
		if in.DueDate != nil {
			task.DueDate = in.DueDate
		}
		if err := r.UpdateTask(ctx, task); err != nil {
			return err
		}
		if in.Assignees == nil {
			return nil
		}
		project, err := r.GetProject(ctx, task.ProjectID)
		if err != nil {
			return missing("Project", err)
		}
		if err := checkAssignees(ctx, r, project, *in.Assignees); err != nil {
			return err
		}
		return r.SetTaskAssignees(ctx, taskID, *in.Assignees)
	})
	if err != nil {
		return store.Task{}, err
	}
	return s.getTask(ctx, taskID)
}

// ChangeTaskStatus recomputes project progress only when the task moves into
// or out of Done.
func (s *Service) ChangeTaskStatus(ctx context.Context, actor policy.Actor, taskID, status string) (store.Task, error) {
	if err := s.require(ctx, policy.KindTask, policy.Edit, actor, taskID); err != nil {
		return store.Task{}, err
	}
	next, ok := normalizeTaskStatus(status)
	if !ok {
		return store.Task{}, validationError("Unknown task status", map[string]string{"status": status})
	}
	err := s.store.WithTx(ctx, func(r repo) error {
		task, err := r.GetTask(ctx, taskID)
		if err != nil {
			return missing("Task", err)
		}
		if err := r.SetTaskStatus(ctx, taskID, next); err != nil {
			return err
		}
		if isDone(task.Status) == isDone(next) {
			return nil
		}
		return s.recomputeProgressTx(ctx, r, task.ProjectID, "task_status")
	})
	if err != nil {
		return store.Task{}, err
	}
	return s.getTask(ctx, taskID)
}

func (s *Service) DeleteTask(ctx context.Context, actor policy.Actor, taskID string) error {
	if err := s.require(ctx, policy.KindTask, policy.Delete, actor, taskID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(r repo) error {
		task, err := r.GetTask(ctx, taskID)
		if err != nil {
			return missing("Task", err)
		}
		if err := r.DeleteTask(ctx, taskID); err != nil {
			return err
		}
		return s.recomputeProgressTx(ctx, r, task.ProjectID, "task_deleted")
	})
}

type ChecklistItemInput struct {
	Text string `json:"text" validate:"required,max=500"`
}

func (s *Service) AddChecklistItem(ctx context.Context, actor policy.Actor, taskID string, in ChecklistItemInput) (store.ChecklistItem, error) {
	if err := s.require(ctx, policy.KindTask, policy.Edit, actor, taskID); err != nil {
		return store.ChecklistItem{}, err
	}
	if err := validateInput(in); err != nil {
		return store.ChecklistItem{}, err
	}
	var item store.ChecklistItem
	err := s.store.WithTx(ctx, func(r repo) error {
		task, err := r.GetTask(ctx, taskID)
		if err != nil {
			return missing("Task", err)
		}
		item, err = r.InsertChecklistItem(ctx, store.ChecklistItem{
			ID:     util.NewID(),
			TaskID: taskID,
			Body:   strings.TrimSpace(in.Text),
		})
		if err != nil {
			return err
		}
		return s.recomputeProgressTx(ctx, r, task.ProjectID, "checklist_added")
	})
	if err != nil {
		return store.ChecklistItem{}, err
	}
	return item, nil
}

// ToggleChecklistItem flips the completion flag of an item on taskID.
func (s *Service) ToggleChecklistItem(ctx context.Context, actor policy.Actor, taskID, itemID string) (store.ChecklistItem, error) {
	if err := s.require(ctx, policy.KindTask, policy.Edit, actor, taskID); err != nil {
		return store.ChecklistItem{}, err
	}
	var item store.ChecklistItem
	err := s.store.WithTx(ctx, func(r repo) error {
		task, _, err := checklistItemOf(ctx, r, taskID, itemID)
		if err != nil {
			return err
		}
		if err := r.ToggleChecklistItem(ctx, itemID); err != nil {
			return err
		}
		if item, err = r.GetChecklistItem(ctx, itemID); err != nil {
			return err
		}
		return s.recomputeProgressTx(ctx, r, task.ProjectID, "checklist_toggled")
	})
	if err != nil {
		return store.ChecklistItem{}, err
	}
	return item, nil
}

func (s *Service) DeleteChecklistItem(ctx context.Context, actor policy.Actor, taskID, itemID string) error {
	if err := s.require(ctx, policy.KindTask, policy.Edit, actor, taskID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(r repo) error {
		task, _, err := checklistItemOf(ctx, r, taskID, itemID)
		if err != nil {
			return err
		}
		if err := r.DeleteChecklistItem(ctx, itemID); err != nil {
			return err
		}
		return s.recomputeProgressTx(ctx, r, task.ProjectID, "checklist_deleted")
	})
}

// checklistItemOf loads the task and one of its items. An item belonging to
// a different task is reported as missing.
func checklistItemOf(ctx context.Context, r repo, taskID, itemID string) (store.Task, store.ChecklistItem, error) {
	task, err := r.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, store.ChecklistItem{}, missing("Task", err)
	}
	item, err := r.GetChecklistItem(ctx, itemID)
	if err != nil {
		return store.Task{}, store.ChecklistItem{}, missing("Checklist item", err)
	}
	if item.TaskID != taskID {
		return store.Task{}, store.ChecklistItem{}, notFound("Checklist item")
	}
	return task, item, nil
}
