package policy

import "context"

type ProjectPolicy struct {
	lookup Lookup
}

func NewProjectPolicy(lookup Lookup) ProjectPolicy {
	return ProjectPolicy{lookup: lookup}
}

func (p ProjectPolicy) CanView(ctx context.Context, actor Actor, projectID string) (bool, error) {
	if err := validate(actor, projectID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, projectID)
	if err != nil || !found {
		return false, err
	}
	return access.hasMember(actor.ID), nil
}

func (p ProjectPolicy) CanEdit(ctx context.Context, actor Actor, projectID string) (bool, error) {
	if err := validate(actor, projectID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, projectID)
	if err != nil || !found {
		return false, err
	}
	return access.managedBy(actor.ID), nil
}

func (p ProjectPolicy) CanDelete(ctx context.Context, actor Actor, projectID string) (bool, error) {
	return p.CanEdit(ctx, actor, projectID)
}

// CanManage gates membership changes.
func (p ProjectPolicy) CanManage(ctx context.Context, actor Actor, projectID string) (bool, error) {
	return p.CanEdit(ctx, actor, projectID)
}

func (p ProjectPolicy) load(ctx context.Context, actor Actor, projectID string) (ProjectAccess, bool, error) {
	access, found, err := p.lookup.ProjectAccess(ctx, projectID, actor.ID)
	if err != nil {
		return ProjectAccess{}, false, lookupFailure("project", projectID, err)
	}
	return access, found, nil
}
