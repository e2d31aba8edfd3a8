package policy

import "context"

type NewsPolicy struct {
	lookup Lookup
}

func NewNewsPolicy(lookup Lookup) NewsPolicy {
	return NewsPolicy{lookup: lookup}
}

func (p NewsPolicy) CanEdit(ctx context.Context, actor Actor, articleID string) (bool, error) {
	if err := validate(actor, articleID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	authorID, found, err := p.lookup.NewsArticleAuthor(ctx, articleID)
	if err != nil {
		return false, lookupFailure("news article", articleID, err)
	}
	return found && authorID == actor.ID, nil
}

func (p NewsPolicy) CanDelete(ctx context.Context, actor Actor, articleID string) (bool, error) {
	return p.CanEdit(ctx, actor, articleID)
}

// CanCreate covers publishing and department-scoped access. The department
// id is not consulted: only admins and managers may publish.
func (p NewsPolicy) CanCreate(_ context.Context, actor Actor, _ string) (bool, error) {
	if err := validateActor(actor); err != nil {
		return false, err
	}
	return actor.IsPrivileged(), nil
}
