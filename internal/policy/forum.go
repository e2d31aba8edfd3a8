package policy

import "context"

type ForumPolicy struct {
	lookup Lookup
}

func NewForumPolicy(lookup Lookup) ForumPolicy {
	return ForumPolicy{lookup: lookup}
}

func (p ForumPolicy) CanEdit(ctx context.Context, actor Actor, postID string) (bool, error) {
	if err := validate(actor, postID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	return p.isAuthor(ctx, actor, postID)
}

// CanDelete also lets managers remove posts as moderators.
func (p ForumPolicy) CanDelete(ctx context.Context, actor Actor, postID string) (bool, error) {
	if err := validate(actor, postID); err != nil {
		return false, err
	}
	if actor.IsPrivileged() {
		return true, nil
	}
	return p.isAuthor(ctx, actor, postID)
}

// CanModerate gates hide/unhide.
func (p ForumPolicy) CanModerate(_ context.Context, actor Actor, postID string) (bool, error) {
	if err := validate(actor, postID); err != nil {
		return false, err
	}
	return actor.IsPrivileged(), nil
}

func (p ForumPolicy) isAuthor(ctx context.Context, actor Actor, postID string) (bool, error) {
	authorID, found, err := p.lookup.ForumPostAuthor(ctx, postID)
	if err != nil {
		return false, lookupFailure("forum post", postID, err)
	}
	return found && authorID == actor.ID, nil
}
