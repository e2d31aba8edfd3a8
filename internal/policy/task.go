package policy

import "context"

type TaskPolicy struct {
	lookup   Lookup
	projects ProjectPolicy
}

func NewTaskPolicy(lookup Lookup) TaskPolicy {
	return TaskPolicy{lookup: lookup, projects: NewProjectPolicy(lookup)}
}

func (p TaskPolicy) CanView(ctx context.Context, actor Actor, taskID string) (bool, error) {
	if err := validate(actor, taskID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, taskID)
	if err != nil || !found {
		return false, err
	}
	return access.Project.hasMember(actor.ID), nil
}

func (p TaskPolicy) CanEdit(ctx context.Context, actor Actor, taskID string) (bool, error) {
	if err := validate(actor, taskID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, taskID)
	if err != nil || !found {
		return false, err
	}
	return access.Project.managedBy(actor.ID) || access.IsAssignee, nil
}

func (p TaskPolicy) CanDelete(ctx context.Context, actor Actor, taskID string) (bool, error) {
	if err := validate(actor, taskID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, taskID)
	if err != nil || !found {
		return false, err
	}
	return access.Project.managedBy(actor.ID), nil
}

// CanCreate takes the id of the project the task will be created in.
func (p TaskPolicy) CanCreate(ctx context.Context, actor Actor, projectID string) (bool, error) {
	return p.projects.CanEdit(ctx, actor, projectID)
}

func (p TaskPolicy) load(ctx context.Context, actor Actor, taskID string) (TaskAccess, bool, error) {
	access, found, err := p.lookup.TaskAccess(ctx, taskID, actor.ID)
	if err != nil {
		return TaskAccess{}, false, lookupFailure("task", taskID, err)
	}
	return access, found, nil
}
